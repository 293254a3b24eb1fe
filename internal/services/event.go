package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clubevents/internal/domain"
	"clubevents/internal/policy"
)

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
	now            func() time.Time
}

// NewEventService creates an EventService backed by eventRepo.
func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, p domain.Principal, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(p, policy.ActionCreate, policy.EventRecord{}); err != nil {
		return err
	}

	now := s.now()
	event.OrganizerID = p.UserID
	if strings.TrimSpace(event.OrganizerName) == "" {
		event.OrganizerName = p.DisplayName
	}
	if event.Status == "" {
		event.Status = domain.EventActive
	}
	event.CurrentAttendees = 0
	event.Tags = normalizeTags(event.Tags)
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := policy.ValidateNewEvent(event, now); err != nil {
		return err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, p domain.Principal, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionRead, policy.EventRecord{Event: event}); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, p domain.Principal, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter.Status == "" || !p.IsAuthenticated() {
		filter.Status = domain.EventActive
	}
	if !filter.Status.Valid() {
		return nil, 0, domain.NewValidationError("status", "must be one of active, cancelled, completed")
	}

	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (s *eventService) ListEventsByOrganizer(ctx context.Context, p domain.Principal, organizerID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if organizerID == "" {
		organizerID = p.UserID
	}
	if !p.IsOrganizer() || (organizerID != p.UserID && !p.IsAdmin()) {
		return nil, 0, &domain.AccessError{
			Action:    "list",
			Resource:  "event",
			Reason:    "organizer may only list own events",
			Anonymous: !p.IsAuthenticated(),
		}
	}

	events, total, err := s.eventRepo.List(ctx, domain.EventFilter{OrganizerID: organizerID}, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list organizer events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, p domain.Principal, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(p, policy.ActionUpdate, policy.EventRecord{Event: event}); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.NewValidationError("", "no fields to update")
	}
	if err := policy.ValidateEventPatch(patch, event); err != nil {
		return nil, err
	}

	patch.Apply(event)
	event.Tags = normalizeTags(event.Tags)
	event.UpdatedAt = s.now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, p domain.Principal, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := policy.Check(p, policy.ActionDelete, policy.EventRecord{Event: event}); err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, domain.NewValidationError("event_id", "is required")
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// normalizeTags trims tags and drops empties and duplicates, keeping first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
