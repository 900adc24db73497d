package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// JoinWaitlistRequest is the optional request body for POST /events/{eventID}/waitlist.
type JoinWaitlistRequest struct {
	// Geolocation is stored verbatim; it must be a JSON object when present.
	Geolocation json.RawMessage `json:"geolocation,omitempty" swaggertype:"object"`
}

// Validate implements Validator.
func (j JoinWaitlistRequest) Validate() []string {
	if len(j.Geolocation) == 0 || string(j.Geolocation) == "null" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(j.Geolocation, &obj); err != nil {
		return []string{"geolocation must be a JSON object"}
	}
	return nil
}

// WaitlistEntrySuccessResponse is the success envelope for POST /events/{eventID}/waitlist.
type WaitlistEntrySuccessResponse struct {
	Data  *domain.WaitlistEntry `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// WaitlistPage is one page of an event's waitlist.
type WaitlistPage struct {
	Entries    []*domain.WaitlistEntry `json:"entries"`
	Count      int                     `json:"count"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// WaitlistPageSuccessResponse is the success envelope for GET /events/{eventID}/waitlist.
type WaitlistPageSuccessResponse struct {
	Data  WaitlistPage      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type WaitlistController struct {
	Logger   *slog.Logger
	Waitlist domain.WaitlistStore
}

func NewWaitlistController(logger *slog.Logger, waitlist domain.WaitlistStore) *WaitlistController {
	return &WaitlistController{Logger: logger, Waitlist: waitlist}
}

// Join godoc
// @Summary Join an event's waitlist
// @Description Adds the caller to the waitlist while registration is open. Fails with conflict when the caller already has a lottery record for the event.
// @Tags waitlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body JoinWaitlistRequest false "Optional geolocation"
// @Success 201 {object} controllers.WaitlistEntrySuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 422 {object} helpers.APIResponse "error.code: unprocessable (registration closed)"
// @Router /events/{eventID}/waitlist [post]
func (c *WaitlistController) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req JoinWaitlistRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	geo := req.Geolocation
	if string(geo) == "null" {
		geo = nil
	}
	entry, err := c.Waitlist.Join(r.Context(), r.PathValue("eventID"), id.EntrantID, geo)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// Leave godoc
// @Summary Leave an event's waitlist
// @Description Removes the caller from the waitlist and from the replacement pool. Leaving twice is not an error.
// @Tags waitlist
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 204
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/waitlist [delete]
func (c *WaitlistController) Leave(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Waitlist.Leave(r.Context(), r.PathValue("eventID"), id.EntrantID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List godoc
// @Summary List an event's waitlist
// @Tags waitlist
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 50, max 500)"
// @Success 200 {object} controllers.WaitlistPageSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/waitlist [get]
func (c *WaitlistController) List(w http.ResponseWriter, r *http.Request) {
	entries, err := c.Waitlist.List(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	page := helpers.ParsePage(r)
	helpers.WriteJSONSuccess(w, http.StatusOK, WaitlistPage{
		Entries:    helpers.Slice(entries, page),
		Count:      len(entries),
		Pagination: helpers.NewPaginationMeta(page, len(entries)),
	})
}
