package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// InvitationSuccessResponse is the success envelope for endpoints returning one invitation.
type InvitationSuccessResponse struct {
	Data  *domain.Invitation `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// InvitationListSuccessResponse is the success envelope for invitation listings.
type InvitationListSuccessResponse struct {
	Data  []*domain.Invitation `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type InvitationController struct {
	Logger      *slog.Logger
	Invitations domain.InvitationManager
}

func NewInvitationController(logger *slog.Logger, invitations domain.InvitationManager) *InvitationController {
	return &InvitationController{Logger: logger, Invitations: invitations}
}

// ListByEvent godoc
// @Summary List an event's invitations
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param status query string false "Comma-separated statuses (PENDING, ACCEPTED, DECLINED, CANCELLED_BY_ORGANIZER)"
// @Success 200 {object} controllers.InvitationListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/invitations [get]
func (c *InvitationController) ListByEvent(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.InvitationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for part := range strings.SplitSeq(raw, ",") {
			st, err := domain.ParseInvitationStatus(part)
			if err != nil {
				helpers.WriteServiceError(w, r, c.Logger, err)
				return
			}
			statuses = append(statuses, st)
		}
	}
	invs, err := c.Invitations.ListByEvent(r.Context(), r.PathValue("eventID"), statuses)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invs)
}

// ListMine godoc
// @Summary List the caller's invitations across events
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.InvitationListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/invitations [get]
func (c *InvitationController) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	invs, err := c.Invitations.ListByEntrant(r.Context(), id.EntrantID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invs)
}

// Accept godoc
// @Summary Accept an invitation
// @Description Accepting enrols the caller (ACTIVE registration). Only the invited entrant may respond, and only once.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} controllers.InvitationSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the invitee)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already resolved or event full)"
// @Router /invitations/{invitationID}/accept [post]
func (c *InvitationController) Accept(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, domain.DecisionAccept)
}

// Decline godoc
// @Summary Decline an invitation
// @Description Declining frees the place; depending on policy a replacement is drawn immediately.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} controllers.InvitationSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the invitee)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already resolved)"
// @Router /invitations/{invitationID}/decline [post]
func (c *InvitationController) Decline(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, domain.DecisionDecline)
}

func (c *InvitationController) respond(w http.ResponseWriter, r *http.Request, decision domain.Decision) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	invitationID := r.PathValue("invitationID")
	inv, err := c.Invitations.Get(r.Context(), invitationID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if inv.EntrantID != id.EntrantID {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "invitation belongs to another entrant")
		return
	}
	inv, err = c.Invitations.Respond(r.Context(), invitationID, decision)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}
