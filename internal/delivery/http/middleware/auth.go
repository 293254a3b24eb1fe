package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "clubevents/internal/delivery/http/helpers"
	"clubevents/internal/domain"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	identityKey  contextKey = "identity"
)

// SetPrincipal returns a context carrying the resolved principal.
func SetPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the request principal, or the anonymous principal.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(principalKey).(domain.Principal); ok {
		return p
	}
	return domain.Anonymous()
}

// SetIdentity returns a context carrying the verified token identity.
func SetIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the verified token identity, if present.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*domain.Identity)
	return id, ok && id != nil
}

// Authenticator turns bearer tokens into principals.
type Authenticator struct {
	verifier domain.IdentityVerifier
	revoker  domain.SessionRevoker
	profiles domain.ProfileService
	logger   *slog.Logger
}

func NewAuthenticator(verifier domain.IdentityVerifier, revoker domain.SessionRevoker, profiles domain.ProfileService, logger *slog.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, revoker: revoker, profiles: profiles, logger: logger}
}

// RequireAuth validates the Bearer token and sets the identity and principal in the request
// context. If the token is missing or invalid, it responds with 401 and does not call next.
func (a *Authenticator) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
			return
		}
		a.authenticate(w, r, next)
	}
}

// OptionalAuth behaves like RequireAuth when a token is sent and otherwise continues with
// the anonymous principal.
func (a *Authenticator) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next(w, r.WithContext(SetPrincipal(r.Context(), domain.Anonymous())))
			return
		}
		a.authenticate(w, r, next)
	}
}

func (a *Authenticator) authenticate(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
		return
	}
	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
		return
	}
	identity, err := a.verifier.Verify(token)
	if err != nil {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
		return
	}
	ctx := r.Context()
	if a.revoker != nil {
		revoked, err := a.revoker.IsRevoked(ctx, identity)
		if err != nil {
			a.logger.ErrorContext(ctx, "revocation check failed", "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal error")
			return
		}
		if revoked {
			h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "session signed out")
			return
		}
	}
	principal, err := a.profiles.ResolvePrincipal(ctx, identity)
	if err != nil {
		a.logger.ErrorContext(ctx, "resolve principal failed", "user_id", identity.UserID, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal error")
		return
	}
	ctx = SetIdentity(ctx, identity)
	ctx = SetPrincipal(ctx, principal)
	next(w, r.WithContext(ctx))
}
