// Package policy holds the access rules for profiles, events and registrations, and the
// field-level validation applied to every write.
package policy

import (
	"clubevents/internal/domain"
)

// Action is an operation a principal attempts on a record.
type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionSetRole Action = "set_role"
	ActionExport  Action = "export"
)

// Resource is the record a Check is evaluated against.
type Resource interface {
	resourceName() string
}

// ProfileRecord identifies a user profile by its owner.
type ProfileRecord struct {
	OwnerID string
}

// EventRecord wraps an event. Event may be nil for ActionCreate.
type EventRecord struct {
	Event *domain.Event
}

// RegistrationRecord wraps a registration together with the event it references.
// Patch is consulted on ActionUpdate.
type RegistrationRecord struct {
	Registration *domain.Registration
	Event        *domain.Event
	Patch        *domain.RegistrationPatch
}

func (ProfileRecord) resourceName() string      { return "profile" }
func (EventRecord) resourceName() string        { return "event" }
func (RegistrationRecord) resourceName() string { return "registration" }

// Check decides whether p may perform action on res. It returns nil when allowed and a
// *domain.AccessError otherwise.
func Check(p domain.Principal, action Action, res Resource) error {
	var reason string
	switch r := res.(type) {
	case ProfileRecord:
		reason = checkProfile(p, action, r)
	case EventRecord:
		reason = checkEvent(p, action, r)
	case RegistrationRecord:
		reason = checkRegistration(p, action, r)
	default:
		reason = "unknown resource"
	}
	if reason == "" {
		return nil
	}
	name := "resource"
	if res != nil {
		name = res.resourceName()
	}
	return &domain.AccessError{
		Action:    string(action),
		Resource:  name,
		Reason:    reason,
		Anonymous: !p.IsAuthenticated(),
	}
}

const (
	reasonUnauthenticated = "authentication required"
	reasonNotOwner        = "not the owner"
	reasonNotOrganizer    = "organizer or admin role required"
	reasonNotAdmin        = "admin role required"
	reasonNotAllowed      = "operation not allowed"
	reasonOwnerCancelOnly = "owner may only cancel"
)

func checkProfile(p domain.Principal, action Action, r ProfileRecord) string {
	if !p.IsAuthenticated() {
		return reasonUnauthenticated
	}
	isOwner := p.UserID == r.OwnerID
	switch action {
	case ActionRead, ActionUpdate:
		if isOwner || p.IsAdmin() {
			return ""
		}
		return reasonNotOwner
	case ActionCreate:
		if isOwner {
			return ""
		}
		return reasonNotOwner
	case ActionSetRole:
		if p.IsAdmin() {
			return ""
		}
		return reasonNotAdmin
	}
	return reasonNotAllowed
}

func checkEvent(p domain.Principal, action Action, r EventRecord) string {
	switch action {
	case ActionRead:
		if r.Event != nil && r.Event.Status == domain.EventActive {
			return ""
		}
		if !p.IsAuthenticated() {
			return reasonUnauthenticated
		}
		return ""
	case ActionCreate:
		if !p.IsAuthenticated() {
			return reasonUnauthenticated
		}
		if !p.IsOrganizer() {
			return reasonNotOrganizer
		}
		return ""
	case ActionUpdate, ActionDelete, ActionExport:
		if !p.IsAuthenticated() {
			return reasonUnauthenticated
		}
		if !p.IsOrganizer() {
			return reasonNotOrganizer
		}
		if ownsEvent(p, r.Event) {
			return ""
		}
		return reasonNotOwner
	}
	return reasonNotAllowed
}

func checkRegistration(p domain.Principal, action Action, r RegistrationRecord) string {
	if !p.IsAuthenticated() {
		return reasonUnauthenticated
	}
	isOwner := r.Registration != nil && r.Registration.UserID == p.UserID
	manages := ownsEvent(p, r.Event)
	switch action {
	case ActionRead:
		if isOwner || manages {
			return ""
		}
		return reasonNotOwner
	case ActionCreate:
		if isOwner {
			return ""
		}
		return reasonNotOwner
	case ActionUpdate:
		if manages {
			return ""
		}
		if !isOwner {
			return reasonNotOwner
		}
		if r.Patch != nil && r.Patch.OnlyCancels() {
			return ""
		}
		return reasonOwnerCancelOnly
	}
	return reasonNotAllowed
}

// ownsEvent reports admin, or an organizer that owns e.
func ownsEvent(p domain.Principal, e *domain.Event) bool {
	if p.IsAdmin() {
		return true
	}
	return p.IsOrganizer() && e != nil && e.OrganizerID == p.UserID
}

// CanManageEvent reports whether p may manage e and its registrations.
func CanManageEvent(p domain.Principal, e *domain.Event) bool {
	return ownsEvent(p, e)
}
