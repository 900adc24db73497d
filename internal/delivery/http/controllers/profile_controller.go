package controllers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// UpdateProfileRequest is the request body for PUT /me/profile.
type UpdateProfileRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// Validate implements Validator.
func (u UpdateProfileRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Name) == "" {
		errs = append(errs, "name is required")
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			errs = append(errs, "email is not a valid address")
		}
	}
	if u.NotificationsEnabled && u.Email == "" {
		errs = append(errs, "email is required when notifications are enabled")
	}
	return errs
}

// ProfileSuccessResponse is the success envelope for the profile endpoints.
type ProfileSuccessResponse struct {
	Data  *domain.DisplayAttributes `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// ProfileController lets entrants maintain the display attributes used for notifications.
type ProfileController struct {
	Logger   *slog.Logger
	Profiles domain.ProfileStore
}

func NewProfileController(logger *slog.Logger, profiles domain.ProfileStore) *ProfileController {
	return &ProfileController{Logger: logger, Profiles: profiles}
}

// Get godoc
// @Summary Get the caller's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /me/profile [get]
func (c *ProfileController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	attrs, err := c.Profiles.Resolve(r.Context(), id.EntrantID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attrs)
}

// Put godoc
// @Summary Create or replace the caller's profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Display attributes"
// @Success 200 {object} controllers.ProfileSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /me/profile [put]
func (c *ProfileController) Put(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	attrs := &domain.DisplayAttributes{
		EntrantID:            id.EntrantID,
		Name:                 strings.TrimSpace(req.Name),
		Email:                req.Email,
		NotificationsEnabled: req.NotificationsEnabled,
	}
	if err := c.Profiles.Upsert(r.Context(), attrs); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attrs)
}
