package controllers

import (
	"log/slog"
	"net/http"

	h "clubevents/internal/delivery/http/helpers"
	"clubevents/internal/delivery/http/middleware"
	"clubevents/internal/domain"
)

// SignInResponse is the data payload for POST /auth/session.
type SignInResponse struct {
	Profile *domain.UserProfile `json:"profile"`
	Created bool                `json:"created"`
}

// SignInSuccessResponse is the success envelope for POST /auth/session.
type SignInSuccessResponse struct {
	Data  SignInResponse `json:"data"`
	Error *h.APIError    `json:"error"`
}

// SignOutResponse is the data payload for POST /auth/signout.
type SignOutResponse struct {
	Status string `json:"status"`
}

type AuthController struct {
	Logger   *slog.Logger
	Profiles domain.ProfileService
	Revoker  domain.SessionRevoker
}

func NewAuthController(logger *slog.Logger, profiles domain.ProfileService, revoker domain.SessionRevoker) *AuthController {
	return &AuthController{Logger: logger, Profiles: profiles, Revoker: revoker}
}

// SignIn godoc
// @Summary Start a session
// @Description Verifies the identity token and creates the profile on first sign-in, or refreshes its email, name, photo and last login.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.SignInSuccessResponse "existing profile refreshed"
// @Success 201 {object} controllers.SignInSuccessResponse "profile created"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/session [post]
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	profile, created, err := c.Profiles.SyncOnSignIn(r.Context(), identity)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		c.Logger.InfoContext(r.Context(), "profile created", "user_id", profile.ID)
	}
	h.WriteJSONSuccess(w, status, SignInResponse{Profile: profile, Created: created})
}

// SignOut godoc
// @Summary End the session
// @Description Revokes the bearer token until it expires.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data.status: signed_out"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signout [post]
func (c *AuthController) SignOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Revoker.Revoke(r.Context(), identity); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, SignOutResponse{Status: "signed_out"})
}
