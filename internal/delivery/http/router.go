package http

import (
	"net/http"

	"clubevents/internal/delivery/http/controllers"
	"clubevents/internal/delivery/http/helpers"
	"clubevents/internal/delivery/http/middleware"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Event        *controllers.EventController
	Registration *controllers.RegistrationController
	Export       *controllers.ExportController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, authn *middleware.Authenticator, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	auth := authn.RequireAuth

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.HandleFunc("POST /auth/session", auth(c.Auth.SignIn))
	mux.HandleFunc("POST /auth/signout", auth(c.Auth.SignOut))

	// Users
	mux.HandleFunc("GET /users/me", auth(c.User.GetMe))
	mux.HandleFunc("PATCH /users/me", auth(c.User.UpdateMe))
	mux.HandleFunc("GET /users/{userID}", auth(c.User.GetUser))
	mux.HandleFunc("PUT /users/{userID}/role", auth(c.User.SetRole))

	// Events; reads are public for active events
	mux.HandleFunc("GET /events", authn.OptionalAuth(c.Event.ListEvents))
	mux.HandleFunc("GET /events/{eventID}", authn.OptionalAuth(c.Event.GetEvent))
	mux.HandleFunc("POST /events", auth(c.Event.CreateEvent))
	mux.HandleFunc("PATCH /events/{eventID}", auth(c.Event.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(c.Event.DeleteEvent))
	mux.HandleFunc("GET /organizer/events", auth(c.Event.ListOrganizerEvents))

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/registrations", auth(c.Registration.Register))
	mux.HandleFunc("GET /events/{eventID}/registrations", auth(c.Registration.ListEventRegistrations))
	mux.HandleFunc("GET /registrations/me", auth(c.Registration.ListMine))
	mux.HandleFunc("GET /registrations/{registrationID}", auth(c.Registration.GetRegistration))
	mux.HandleFunc("PATCH /registrations/{registrationID}", auth(c.Registration.Update))
	mux.HandleFunc("POST /registrations/{registrationID}/cancel", auth(c.Registration.Cancel))
	mux.HandleFunc("POST /registrations/{registrationID}/approve", auth(c.Registration.Approve))

	// Export
	mux.HandleFunc("POST /events/{eventID}/export", auth(c.Export.ExportRegistrations))

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
