package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventlottery/internal/delivery/http/controllers"
	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// Controllers groups every handler set the router mounts.
type Controllers struct {
	Events        *controllers.EventController
	Waitlist      *controllers.WaitlistController
	Lottery       *controllers.LotteryController
	Invitations   *controllers.InvitationController
	Registrations *controllers.RegistrationController
	Profiles      *controllers.ProfileController
}

// NewRouter initializes the HTTP router with all application routes.
// Every route except /healthz and /swagger/ needs a bearer token; organizer routes also need the organizer role.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier, logger)
	organizer := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleOrganizer)(next))
	}

	// Events
	mux.HandleFunc("POST /events", organizer(c.Events.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", auth(c.Events.GetEvent))
	mux.HandleFunc("GET /events/{eventID}/summary", organizer(c.Events.Summary))

	// Waitlist
	mux.HandleFunc("POST /events/{eventID}/waitlist", auth(c.Waitlist.Join))
	mux.HandleFunc("DELETE /events/{eventID}/waitlist", auth(c.Waitlist.Leave))
	mux.HandleFunc("GET /events/{eventID}/waitlist", organizer(c.Waitlist.List))

	// Lottery
	mux.HandleFunc("POST /events/{eventID}/draws", organizer(c.Lottery.Draw))
	mux.HandleFunc("POST /events/{eventID}/replacements", organizer(c.Lottery.RunReplacement))
	mux.HandleFunc("POST /events/{eventID}/invitations/cancel-pending", organizer(c.Lottery.CancelPending))

	// Invitations
	mux.HandleFunc("GET /events/{eventID}/invitations", organizer(c.Invitations.ListByEvent))
	mux.HandleFunc("GET /me/invitations", auth(c.Invitations.ListMine))
	mux.HandleFunc("POST /invitations/{invitationID}/accept", auth(c.Invitations.Accept))
	mux.HandleFunc("POST /invitations/{invitationID}/decline", auth(c.Invitations.Decline))

	// Registrations
	mux.HandleFunc("GET /events/{eventID}/registrations", organizer(c.Registrations.List))
	mux.HandleFunc("DELETE /events/{eventID}/registrations/{entrantID}", organizer(c.Registrations.Cancel))
	mux.HandleFunc("GET /me/registrations", auth(c.Registrations.ListMine))
	mux.HandleFunc("DELETE /me/registrations/{eventID}", auth(c.Registrations.Withdraw))

	// Profile
	mux.HandleFunc("GET /me/profile", auth(c.Profiles.Get))
	mux.HandleFunc("PUT /me/profile", auth(c.Profiles.Put))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
