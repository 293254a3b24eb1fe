package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clubevents/internal/domain"
	"clubevents/internal/metrics"
	"clubevents/internal/policy"

	"github.com/google/uuid"
)

type registrationService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	publisher        domain.ChangePublisher
	metrics          *metrics.Metrics
	logger           *slog.Logger
	contextTimeout   time.Duration
	now              func() time.Time
}

// NewRegistrationService creates the registration workflow. Change events are published
// after each committed write; publisher may be nil.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	publisher domain.ChangePublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		publisher:        publisher,
		metrics:          m,
		logger:           logger,
		contextTimeout:   timeout,
		now:              time.Now,
	}
}

func (s *registrationService) RegisterForEvent(ctx context.Context, p domain.Principal, in domain.RegisterInput) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		return nil, domain.NewValidationError("event_id", "is required")
	}
	userName := strings.TrimSpace(in.UserName)
	if userName == "" {
		userName = p.DisplayName
	}
	userEmail := strings.TrimSpace(in.UserEmail)
	if userEmail == "" {
		userEmail = p.Email
	}

	reg := domain.NewRegistration(eventID, p.UserID, userName, userEmail, strings.TrimSpace(in.Reason), s.now())
	if err := policy.Check(p, policy.ActionCreate, policy.RegistrationRecord{Registration: reg}); err != nil {
		return nil, err
	}
	if err := policy.ValidateRegistration(reg); err != nil {
		return nil, err
	}

	err := s.registrationRepo.WithinTx(ctx, func(tx domain.RegistrationTx) error {
		// Lock first so the duplicate and capacity checks below see a stable event row.
		event, err := tx.LockEvent(ctx, eventID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("lock event: %w", err)
		}

		if _, err := tx.FindActiveRegistration(ctx, eventID, p.UserID); err == nil {
			return domain.ErrAlreadyRegistered
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("find active registration: %w", err)
		}

		if event == nil {
			return domain.ErrEventNotFound
		}
		if event.Status != domain.EventActive {
			return domain.ErrEventNotActive
		}
		if !event.HasCapacity() {
			return domain.ErrEventFull
		}

		if err := tx.CreateRegistration(ctx, reg); err != nil {
			return fmt.Errorf("create registration: %w", err)
		}
		if _, err := tx.AdjustAttendees(ctx, eventID, 1, s.now()); err != nil {
			return fmt.Errorf("increment attendees: %w", err)
		}
		return nil
	})
	s.metrics.RegistrationOutcome(registrationOutcome(err))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.ChangeCreated, nil, reg)
	return reg, nil
}

func (s *registrationService) CancelRegistration(ctx context.Context, p domain.Principal, registrationID, eventID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	existing, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if eventID != "" && existing.EventID != eventID {
		return nil, domain.ErrRegistrationNotFound
	}

	status := domain.RegistrationCancelled
	before, after, err := s.update(ctx, p, existing, domain.RegistrationPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	if before != nil {
		s.publish(ctx, domain.ChangeUpdated, before, after)
	}
	return after, nil
}

func (s *registrationService) ApproveRegistration(ctx context.Context, p domain.Principal, registrationID string) (*domain.Registration, error) {
	status := domain.RegistrationConfirmed
	return s.UpdateRegistration(ctx, p, registrationID, domain.RegistrationPatch{Status: &status})
}

func (s *registrationService) UpdateRegistration(ctx context.Context, p domain.Principal, registrationID string, patch domain.RegistrationPatch) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if patch.Empty() {
		return nil, domain.NewValidationError("", "no fields to update")
	}
	if patch.Status != nil {
		if err := policy.ValidateRegistrationStatus(*patch.Status); err != nil {
			return nil, err
		}
	}

	existing, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	before, after, err := s.update(ctx, p, existing, patch)
	if err != nil {
		return nil, err
	}
	if before != nil {
		s.publish(ctx, domain.ChangeUpdated, before, after)
	}
	return after, nil
}

// update applies patch inside a transaction, keeping the event's attendee count in step
// with seat-holding transitions. Locks are taken event first, then registration, matching
// RegisterForEvent. before is nil when nothing changed.
func (s *registrationService) update(ctx context.Context, p domain.Principal, existing *domain.Registration, patch domain.RegistrationPatch) (before, after *domain.Registration, err error) {
	err = s.registrationRepo.WithinTx(ctx, func(tx domain.RegistrationTx) error {
		event, err := tx.LockEvent(ctx, existing.EventID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("lock event: %w", err)
		}
		reg, err := tx.LockRegistration(ctx, existing.ID)
		if err != nil {
			return fmt.Errorf("lock registration: %w", err)
		}

		if err := policy.Check(p, policy.ActionUpdate, policy.RegistrationRecord{
			Registration: reg,
			Event:        event,
			Patch:        &patch,
		}); err != nil {
			return err
		}

		prev := reg.Clone()
		patch.Apply(reg)
		if unchanged(prev, reg) {
			after = reg
			return nil
		}

		wasHolding, nowHolding := prev.Status.HoldsSeat(), reg.Status.HoldsSeat()
		if !wasHolding && nowHolding {
			if event == nil {
				return domain.ErrEventNotFound
			}
			if dup, err := tx.FindActiveRegistration(ctx, reg.EventID, reg.UserID); err == nil && dup.ID != reg.ID {
				return domain.ErrAlreadyRegistered
			} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("find active registration: %w", err)
			}
			if !event.HasCapacity() {
				return domain.ErrEventFull
			}
		}

		if err := tx.UpdateRegistration(ctx, reg); err != nil {
			return fmt.Errorf("update registration: %w", err)
		}

		delta := 0
		switch {
		case wasHolding && !nowHolding:
			delta = -1
		case !wasHolding && nowHolding:
			delta = 1
		}
		if delta != 0 && event != nil {
			if _, err := tx.AdjustAttendees(ctx, reg.EventID, delta, s.now()); err != nil {
				return fmt.Errorf("adjust attendees: %w", err)
			}
		}

		before, after = prev, reg
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if before != nil && before.Status != domain.RegistrationCancelled && after.Status == domain.RegistrationCancelled {
		s.metrics.Cancellation()
	}
	return before, after, nil
}

func (s *registrationService) GetRegistration(ctx context.Context, p domain.Principal, registrationID string) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := s.getRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := policy.Check(p, policy.ActionRead, policy.RegistrationRecord{Registration: reg, Event: event}); err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *registrationService) ListEventRegistrations(ctx context.Context, p domain.Principal, eventID string) ([]*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !p.IsAuthenticated() {
		return nil, policy.Check(p, policy.ActionRead, policy.RegistrationRecord{})
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := policy.Check(p, policy.ActionRead, policy.RegistrationRecord{Event: event}); err != nil {
		return nil, err
	}

	regs, err := s.registrationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, nil
}

func (s *registrationService) ListMyRegistrations(ctx context.Context, p domain.Principal) ([]*domain.RegistrationWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(p, policy.ActionRead, policy.ProfileRecord{OwnerID: p.UserID}); err != nil {
		return nil, err
	}
	regs, err := s.registrationRepo.ListByUserID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}

	eventsByID := make(map[string]*domain.Event)
	result := make([]*domain.RegistrationWithEvent, 0, len(regs))
	for _, reg := range regs {
		ev, ok := eventsByID[reg.EventID]
		if !ok {
			ev, err = s.eventRepo.GetByID(ctx, reg.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// Event deleted; the registration stays but is not listed.
					continue
				}
				return nil, fmt.Errorf("get event for registration: %w", err)
			}
			eventsByID[reg.EventID] = ev
		}
		result = append(result, &domain.RegistrationWithEvent{Registration: reg, Event: ev})
	}
	return result, nil
}

func (s *registrationService) getRegistration(ctx context.Context, id string) (*domain.Registration, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("registration_id", "is required")
	}
	reg, err := s.registrationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

// publish emits a change event. The write has already committed, so failures are only logged.
func (s *registrationService) publish(ctx context.Context, kind domain.ChangeKind, before, after *domain.Registration) {
	if s.publisher == nil {
		return
	}
	change := &domain.RegistrationChange{
		ID:         uuid.NewString(),
		Kind:       kind,
		Before:     before.Clone(),
		After:      after.Clone(),
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, change); err != nil {
		s.logger.ErrorContext(ctx, "publish registration change",
			"registration_id", after.ID, "kind", kind, "err", err)
	}
}

func unchanged(a, b *domain.Registration) bool {
	if a.Status != b.Status || a.Notes != b.Notes {
		return false
	}
	if (a.Attendance == nil) != (b.Attendance == nil) {
		return false
	}
	return a.Attendance == nil || *a.Attendance == *b.Attendance
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, domain.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, domain.ErrEventNotActive):
		return "event_not_active"
	case errors.Is(err, domain.ErrEventFull):
		return "event_full"
	default:
		return "error"
	}
}
