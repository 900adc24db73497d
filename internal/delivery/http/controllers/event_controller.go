package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name                 string     `json:"name"`
	Capacity             int        `json:"capacity"`
	RegistrationOpensAt  *time.Time `json:"registration_opens_at,omitempty"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at,omitempty"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.Capacity <= 0 {
		errs = append(errs, "capacity must be greater than zero")
	}
	if c.RegistrationOpensAt != nil && c.RegistrationClosesAt != nil && !c.RegistrationClosesAt.After(*c.RegistrationOpensAt) {
		errs = append(errs, "registration_closes_at must be after registration_opens_at")
	}
	return errs
}

// EventSuccessResponse is the success envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventSummarySuccessResponse is the success envelope for GET /events/{eventID}/summary.
type EventSummarySuccessResponse struct {
	Data  *domain.EventSummary `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates a lottery event with a fixed capacity and an optional registration window.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var opens, closes time.Time
	if req.RegistrationOpensAt != nil {
		opens = req.RegistrationOpensAt.UTC()
	}
	if req.RegistrationClosesAt != nil {
		closes = req.RegistrationClosesAt.UTC()
	}
	event := domain.NewEvent(req.Name, req.Capacity, opens, closes, time.Now().UTC())
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Summary godoc
// @Summary Lottery pipeline counts for an event
// @Description Waitlist, not-selected, selected, invitation and registration counts plus open vacancies, read as one snapshot.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSummarySuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/summary [get]
func (c *EventController) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.Service.Summary(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summary)
}
