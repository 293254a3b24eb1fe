package domain

import (
	"context"
	"time"
)

// Role is the stored privilege level of a user profile.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Preferences holds per-user notification settings.
type Preferences struct {
	EmailNotifications bool `json:"email_notifications"`
	EventReminders     bool `json:"event_reminders"`
}

// DefaultPreferences are applied to profiles created on first sign-in.
func DefaultPreferences() Preferences {
	return Preferences{EmailNotifications: true, EventReminders: true}
}

// UserProfile is keyed by the identity provider's user id.
// swagger:model UserProfile
type UserProfile struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	PhotoURL    string      `json:"photo_url,omitempty"`
	Role        Role        `json:"role"`
	CreatedAt   time.Time   `json:"created_at"`
	LastLogin   time.Time   `json:"last_login"`
	Preferences Preferences `json:"preferences"`
}

// NewUserProfile returns the profile created on a user's first sign-in.
func NewUserProfile(identity *Identity, now time.Time) *UserProfile {
	return &UserProfile{
		ID:          identity.UserID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
		Role:        RoleUser,
		CreatedAt:   now,
		LastLogin:   now,
		Preferences: DefaultPreferences(),
	}
}

// ProfilePatch carries the owner-editable profile fields. Nil fields are unchanged.
type ProfilePatch struct {
	DisplayName *string      `json:"display_name"`
	PhotoURL    *string      `json:"photo_url"`
	Preferences *Preferences `json:"preferences"`
}

// Identity is what the external identity provider asserts about the current session.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	PhotoURL    string
	TokenID     string
	ExpiresAt   time.Time
}

// IdentityVerifier verifies a bearer token issued by the identity provider.
type IdentityVerifier interface {
	Verify(token string) (*Identity, error)
}

// IdentityIssuer mints identity tokens.
type IdentityIssuer interface {
	Issue(identity *Identity, expiry time.Duration) (string, error)
}

// SessionRevoker implements sign-out for stateless identity tokens.
type SessionRevoker interface {
	Revoke(ctx context.Context, identity *Identity) error
	IsRevoked(ctx context.Context, identity *Identity) (bool, error)
}

// ProfileRepository defines the interface for user profile storage.
type ProfileRepository interface {
	Create(ctx context.Context, profile *UserProfile) error
	GetByID(ctx context.Context, id string) (*UserProfile, error)
	Update(ctx context.Context, profile *UserProfile) error
	RecordSignIn(ctx context.Context, id, email, displayName, photoURL string, at time.Time) (*UserProfile, error)
}

// ProfileService defines profile lifecycle operations.
type ProfileService interface {
	// SyncOnSignIn creates the profile on first sign-in or refreshes it. created reports
	// whether a new profile was stored.
	SyncOnSignIn(ctx context.Context, identity *Identity) (profile *UserProfile, created bool, err error)
	ResolvePrincipal(ctx context.Context, identity *Identity) (Principal, error)
	GetProfile(ctx context.Context, p Principal, id string) (*UserProfile, error)
	UpdateProfile(ctx context.Context, p Principal, id string, patch ProfilePatch) (*UserProfile, error)
	SetRole(ctx context.Context, p Principal, id string, role Role) (*UserProfile, error)
}
