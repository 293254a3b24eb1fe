package policy

import (
	"regexp"
	"strings"
	"time"

	"clubevents/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks the basic local@domain shape.
func ValidateEmail(field, email string) error {
	if !emailPattern.MatchString(email) {
		return domain.NewValidationError(field, "must be a valid email address")
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "is required")
	}
	return nil
}

// ValidateNewEvent checks an event about to be created. The date must be after now.
func ValidateNewEvent(e *domain.Event, now time.Time) error {
	if err := requireText("title", e.Title); err != nil {
		return err
	}
	if err := requireText("description", e.Description); err != nil {
		return err
	}
	if err := requireText("location", e.Location); err != nil {
		return err
	}
	if !e.Date.After(now) {
		return domain.NewValidationError("date", "must be in the future")
	}
	if e.MaxAttendees <= 0 {
		return domain.NewValidationError("max_attendees", "must be positive")
	}
	if !e.Status.Valid() {
		return domain.NewValidationError("status", "must be one of active, cancelled, completed")
	}
	return nil
}

// ValidateEventPatch checks a patch against the event it will be applied to.
func ValidateEventPatch(patch domain.EventPatch, current *domain.Event) error {
	if patch.Title != nil {
		if err := requireText("title", *patch.Title); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if err := requireText("description", *patch.Description); err != nil {
			return err
		}
	}
	if patch.Location != nil {
		if err := requireText("location", *patch.Location); err != nil {
			return err
		}
	}
	if patch.MaxAttendees != nil {
		if *patch.MaxAttendees <= 0 {
			return domain.NewValidationError("max_attendees", "must be positive")
		}
		if *patch.MaxAttendees < current.CurrentAttendees {
			return domain.NewValidationError("max_attendees", "must not be below current attendees")
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.NewValidationError("status", "must be one of active, cancelled, completed")
	}
	return nil
}

// ValidateProfile checks a profile before it is stored.
func ValidateProfile(profile *domain.UserProfile) error {
	if err := ValidateEmail("email", profile.Email); err != nil {
		return err
	}
	if err := requireText("display_name", profile.DisplayName); err != nil {
		return err
	}
	return ValidateRole(profile.Role)
}

// ValidateRole checks role is one of the enumerated values.
func ValidateRole(role domain.Role) error {
	if !role.Valid() {
		return domain.NewValidationError("role", "must be one of user, organizer, admin")
	}
	return nil
}

// ValidateRegistration checks a registration about to be created.
func ValidateRegistration(reg *domain.Registration) error {
	if strings.TrimSpace(reg.EventID) == "" {
		return domain.NewValidationError("event_id", "is required")
	}
	if err := requireText("user_name", reg.UserName); err != nil {
		return err
	}
	if err := ValidateEmail("user_email", reg.UserEmail); err != nil {
		return err
	}
	return ValidateRegistrationStatus(reg.Status)
}

// ValidateRegistrationStatus checks status is one of the enumerated values.
func ValidateRegistrationStatus(status domain.RegistrationStatus) error {
	if !status.Valid() {
		return domain.NewValidationError("status", "must be one of confirmed, waitlist, cancelled")
	}
	return nil
}
