package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

// DrawRequest is the request body for POST /events/{eventID}/draws.
type DrawRequest struct {
	Count int `json:"count"`
}

// Validate implements Validator.
func (d DrawRequest) Validate() []string {
	if d.Count <= 0 {
		return []string{"count must be greater than zero"}
	}
	return nil
}

// DrawSuccessResponse is the success envelope for POST /events/{eventID}/draws.
type DrawSuccessResponse struct {
	Data  *domain.DrawResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ReplacementSuccessResponse is the success envelope for POST /events/{eventID}/replacements.
type ReplacementSuccessResponse struct {
	Data  *domain.ReplacementResult `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// BulkCancelSuccessResponse is the success envelope for POST /events/{eventID}/invitations/cancel-pending.
type BulkCancelSuccessResponse struct {
	Data  *domain.BulkCancelResult `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// LotteryController exposes the organizer's lottery operations.
type LotteryController struct {
	Logger       *slog.Logger
	Engine       domain.LotteryEngine
	Replacements domain.ReplacementCoordinator
	Invitations  domain.InvitationManager
}

func NewLotteryController(logger *slog.Logger, engine domain.LotteryEngine, replacements domain.ReplacementCoordinator, invitations domain.InvitationManager) *LotteryController {
	return &LotteryController{
		Logger:       logger,
		Engine:       engine,
		Replacements: replacements,
		Invitations:  invitations,
	}
}

// Draw godoc
// @Summary Run the initial lottery draw
// @Description Draws up to count entrants from the waitlist, clamped to the event's free capacity. Entrants not drawn move to the replacement pool.
// @Tags lottery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body DrawRequest true "Number of entrants to draw"
// @Success 201 {object} controllers.DrawSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/draws [post]
func (c *LotteryController) Draw(w http.ResponseWriter, r *http.Request) {
	var req DrawRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Engine.Draw(r.Context(), r.PathValue("eventID"), domain.SelectionInitial, req.Count)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// RunReplacement godoc
// @Summary Fill open vacancies from the replacement pool
// @Description Draws one not-selected entrant per open vacancy. A pool too small to cover every vacancy still commits what it can; shortfall reports the rest.
// @Tags lottery
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.ReplacementSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/replacements [post]
func (c *LotteryController) RunReplacement(w http.ResponseWriter, r *http.Request) {
	result, err := c.Replacements.RunReplacement(r.Context(), r.PathValue("eventID"))
	if err != nil && !(errors.Is(err, domain.ErrInsufficientPool) && result != nil) {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// CancelPending godoc
// @Summary Cancel every pending invitation
// @Description Voids all PENDING invitations of the event. Freed places are recorded as vacancies.
// @Tags lottery
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.BulkCancelSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/invitations/cancel-pending [post]
func (c *LotteryController) CancelPending(w http.ResponseWriter, r *http.Request) {
	result, err := c.Invitations.BulkCancelPending(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
