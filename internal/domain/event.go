package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventActive    EventStatus = "active"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// Valid reports whether s is one of the enumerated statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventActive, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// Event represents a club event.
// swagger:model Event
type Event struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Location         string      `json:"location"`
	Date             time.Time   `json:"date"`
	MaxAttendees     int         `json:"max_attendees"`
	CurrentAttendees int         `json:"current_attendees"`
	OrganizerID      string      `json:"organizer_id"`
	OrganizerName    string      `json:"organizer_name"`
	Status           EventStatus `json:"status"`
	Tags             []string    `json:"tags"`
	ImageURL         string      `json:"image_url,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// NewEvent returns an active Event with no attendees. ID is set by the repository on create.
func NewEvent(title, description, location string, date time.Time, maxAttendees int, organizerID, organizerName string, tags []string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:         title,
		Description:   description,
		Location:      location,
		Date:          date,
		MaxAttendees:  maxAttendees,
		OrganizerID:   organizerID,
		OrganizerName: organizerName,
		Status:        EventActive,
		Tags:          tags,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// HasCapacity reports whether another seat can be taken.
func (e *Event) HasCapacity() bool {
	return e.CurrentAttendees < e.MaxAttendees
}

// EventPatch carries updatable event fields. Nil fields are unchanged.
// CurrentAttendees is owned by the registration workflow and cannot be patched.
type EventPatch struct {
	Title        *string      `json:"title"`
	Description  *string      `json:"description"`
	Location     *string      `json:"location"`
	Date         *time.Time   `json:"date"`
	MaxAttendees *int         `json:"max_attendees"`
	Status       *EventStatus `json:"status"`
	Tags         *[]string    `json:"tags"`
	ImageURL     *string      `json:"image_url"`
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil && p.Date == nil &&
		p.MaxAttendees == nil && p.Status == nil && p.Tags == nil && p.ImageURL == nil
}

// Apply copies the set fields of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.MaxAttendees != nil {
		e.MaxAttendees = *p.MaxAttendees
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Tags != nil {
		e.Tags = *p.Tags
	}
	if p.ImageURL != nil {
		e.ImageURL = *p.ImageURL
	}
}

// EventFilter narrows event listings. Zero values mean "any".
type EventFilter struct {
	Status      EventStatus
	OrganizerID string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns events matching filter ordered by date ascending, and the total count.
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
}

// EventService defines event management operations.
type EventService interface {
	CreateEvent(ctx context.Context, p Principal, event *Event) error
	GetEvent(ctx context.Context, p Principal, eventID string) (*Event, error)
	ListEvents(ctx context.Context, p Principal, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	ListEventsByOrganizer(ctx context.Context, p Principal, organizerID string, params PaginationParams) ([]*Event, int, error)
	UpdateEvent(ctx context.Context, p Principal, eventID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, p Principal, eventID string) error
}
