package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// RegistrationSuccessResponse is the success envelope for endpoints returning one registration.
type RegistrationSuccessResponse struct {
	Data  *domain.Registration `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// RegistrationListSuccessResponse is the success envelope for registration listings.
type RegistrationListSuccessResponse struct {
	Data  []*domain.Registration `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

type RegistrationController struct {
	Logger *slog.Logger
	Ledger domain.RegistrationLedger
}

func NewRegistrationController(logger *slog.Logger, ledger domain.RegistrationLedger) *RegistrationController {
	return &RegistrationController{Logger: logger, Ledger: ledger}
}

// List godoc
// @Summary List an event's registrations
// @Description status defaults to ACTIVE; "cancelled" returns both cancelled states.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param status query string false "ACTIVE, CANCELLED_BY_ENTRANT, CANCELLED_BY_ORGANIZER or cancelled"
// @Success 200 {object} controllers.RegistrationListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/registrations [get]
func (c *RegistrationController) List(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	var (
		regs []*domain.Registration
		err  error
	)
	switch raw := r.URL.Query().Get("status"); {
	case raw == "":
		regs, err = c.Ledger.ListByStatus(r.Context(), eventID, domain.RegistrationActive)
	case strings.EqualFold(raw, "cancelled"):
		regs, err = c.Ledger.ListCancelled(r.Context(), eventID)
	default:
		var status domain.RegistrationStatus
		if status, err = domain.ParseRegistrationStatus(raw); err == nil {
			regs, err = c.Ledger.ListByStatus(r.Context(), eventID, status)
		}
	}
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, regs)
}

// Cancel godoc
// @Summary Cancel an entrant's registration
// @Description Cancels an ACTIVE registration as organizer. The freed place is recorded as a vacancy.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param entrantID path string true "Entrant ID"
// @Success 200 {object} controllers.RegistrationSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not active)"
// @Router /events/{eventID}/registrations/{entrantID} [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	reg, err := c.Ledger.CancelByOrganizer(r.Context(), r.PathValue("eventID"), r.PathValue("entrantID"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// Withdraw godoc
// @Summary Withdraw from an event
// @Description Cancels the caller's own ACTIVE registration.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.RegistrationSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not active)"
// @Router /me/registrations/{eventID} [delete]
func (c *RegistrationController) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reg, err := c.Ledger.Withdraw(r.Context(), r.PathValue("eventID"), id.EntrantID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// ListMine godoc
// @Summary List the caller's registrations across events
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.RegistrationListSuccessResponse
// @Router /me/registrations [get]
func (c *RegistrationController) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	regs, err := c.Ledger.ListByEntrant(r.Context(), id.EntrantID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, regs)
}
