package domain

import (
	"context"
	"time"
)

// RegistrationStatus is the state of a registration.
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationWaitlist  RegistrationStatus = "waitlist"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether s is one of the enumerated statuses.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationConfirmed, RegistrationWaitlist, RegistrationCancelled:
		return true
	}
	return false
}

// HoldsSeat reports whether a registration in status s counts towards currentAttendees.
func (s RegistrationStatus) HoldsSeat() bool {
	return s != RegistrationCancelled
}

// Registration is a user's registration for an event. UserName and UserEmail are a
// snapshot of the registrant taken at registration time and are never refreshed.
// swagger:model Registration
type Registration struct {
	ID               string             `json:"id"`
	EventID          string             `json:"event_id"`
	UserID           string             `json:"user_id"`
	UserName         string             `json:"user_name"`
	UserEmail        string             `json:"user_email"`
	RegistrationTime time.Time          `json:"registration_time"`
	Status           RegistrationStatus `json:"status"`
	Reason           string             `json:"reason,omitempty"`
	Notes            string             `json:"notes,omitempty"`
	Attendance       *bool              `json:"attendance,omitempty"`
}

// NewRegistration creates a confirmed Registration. ID is set by the repository on create.
func NewRegistration(eventID, userID, userName, userEmail, reason string, registeredAt time.Time) *Registration {
	return &Registration{
		EventID:          eventID,
		UserID:           userID,
		UserName:         userName,
		UserEmail:        userEmail,
		RegistrationTime: registeredAt,
		Status:           RegistrationConfirmed,
		Reason:           reason,
	}
}

// Clone returns a copy of r that shares no pointers with it.
func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Attendance != nil {
		v := *r.Attendance
		cp.Attendance = &v
	}
	return &cp
}

// RegistrationPatch carries registration fields an update may set. Nil fields are unchanged.
type RegistrationPatch struct {
	Status     *RegistrationStatus `json:"status"`
	Notes      *string             `json:"notes"`
	Attendance *bool               `json:"attendance"`
}

// OnlyCancels reports whether the patch sets status to cancelled and nothing else.
func (p RegistrationPatch) OnlyCancels() bool {
	return p.Status != nil && *p.Status == RegistrationCancelled && p.Notes == nil && p.Attendance == nil
}

// Empty reports whether the patch changes nothing.
func (p RegistrationPatch) Empty() bool {
	return p.Status == nil && p.Notes == nil && p.Attendance == nil
}

// Apply copies the set fields of p onto r.
func (p RegistrationPatch) Apply(r *Registration) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Attendance != nil {
		v := *p.Attendance
		r.Attendance = &v
	}
}

// RegistrationTx is the set of operations available inside one registration transaction.
// LockEvent and LockRegistration hold their rows until the transaction ends, serialising
// concurrent workflow runs on the same event.
type RegistrationTx interface {
	LockEvent(ctx context.Context, eventID string) (*Event, error)
	LockRegistration(ctx context.Context, registrationID string) (*Registration, error)
	FindActiveRegistration(ctx context.Context, eventID, userID string) (*Registration, error)
	CreateRegistration(ctx context.Context, reg *Registration) error
	UpdateRegistration(ctx context.Context, reg *Registration) error
	// AdjustAttendees adds delta to the event's currentAttendees, flooring at zero, refreshes
	// updatedAt and returns the new count.
	AdjustAttendees(ctx context.Context, eventID string, delta int, at time.Time) (int, error)
}

// RegistrationRepository defines storage operations for registrations.
type RegistrationRepository interface {
	// WithinTx runs fn in a single transaction; fn's error rolls it back.
	WithinTx(ctx context.Context, fn func(tx RegistrationTx) error) error
	GetByID(ctx context.Context, id string) (*Registration, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Registration, error)
	ListByUserID(ctx context.Context, userID string) ([]*Registration, error)
}

// RegisterInput is the request to register the calling principal for an event.
// Empty UserName and UserEmail default to the principal's identity.
type RegisterInput struct {
	EventID   string
	UserName  string
	UserEmail string
	Reason    string
}

// RegistrationWithEvent bundles a registration with its related event.
type RegistrationWithEvent struct {
	Registration *Registration `json:"registration"`
	Event        *Event        `json:"event"`
}

// RegistrationService is the registration workflow.
type RegistrationService interface {
	RegisterForEvent(ctx context.Context, p Principal, in RegisterInput) (*Registration, error)
	CancelRegistration(ctx context.Context, p Principal, registrationID, eventID string) (*Registration, error)
	ApproveRegistration(ctx context.Context, p Principal, registrationID string) (*Registration, error)
	UpdateRegistration(ctx context.Context, p Principal, registrationID string, patch RegistrationPatch) (*Registration, error)
	GetRegistration(ctx context.Context, p Principal, registrationID string) (*Registration, error)
	ListEventRegistrations(ctx context.Context, p Principal, eventID string) ([]*Registration, error)
	ListMyRegistrations(ctx context.Context, p Principal) ([]*RegistrationWithEvent, error)
}
