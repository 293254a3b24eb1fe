package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clubevents/internal/domain"
	"clubevents/internal/metrics"
)

// notificationDispatcher sends registration emails in reaction to change events.
// It performs no writes.
type notificationDispatcher struct {
	eventRepo domain.EventRepository
	email     domain.EmailService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewNotificationDispatcher returns the ChangeHandler that emails registrants.
func NewNotificationDispatcher(eventRepo domain.EventRepository, email domain.EmailService, m *metrics.Metrics, logger *slog.Logger) domain.ChangeHandler {
	return &notificationDispatcher{
		eventRepo: eventRepo,
		email:     email,
		metrics:   m,
		logger:    logger,
	}
}

func (d *notificationDispatcher) HandleChange(ctx context.Context, change *domain.RegistrationChange) error {
	if change == nil || change.After == nil {
		return nil
	}

	var (
		templateName string
		send         func(context.Context, *domain.RegistrationEmailData) error
	)
	switch change.Kind {
	case domain.ChangeCreated:
		templateName, send = TemplateRegistrationReceived, d.email.SendRegistrationReceived
	case domain.ChangeUpdated:
		if !becameConfirmed(change.Before, change.After) {
			return nil
		}
		templateName, send = TemplateRegistrationApproved, d.email.SendRegistrationApproved
	default:
		d.logger.WarnContext(ctx, "unknown registration change kind", "kind", change.Kind, "change_id", change.ID)
		return nil
	}

	reg := change.After
	event, err := d.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.logger.WarnContext(ctx, "event not found for registration",
				"event_id", reg.EventID, "registration_id", reg.ID)
			d.metrics.Notification(templateName, metrics.ResultSkipped)
			return nil
		}
		return fmt.Errorf("get event: %w", err)
	}

	data := &domain.RegistrationEmailData{
		Email:      reg.UserEmail,
		UserName:   reg.UserName,
		EventTitle: event.Title,
		EventID:    event.ID,
	}
	if err := send(ctx, data); err != nil {
		d.logger.ErrorContext(ctx, "notification email failed",
			"template", templateName, "registration_id", reg.ID, "err", err)
		d.metrics.Notification(templateName, metrics.ResultFailure)
		return fmt.Errorf("%w: %w", domain.ErrDependency, err)
	}
	d.metrics.Notification(templateName, metrics.ResultSuccess)
	return nil
}

// becameConfirmed reports a transition into confirmed from any other status. An update
// without a previous image is not a transition.
func becameConfirmed(before, after *domain.Registration) bool {
	if after == nil || after.Status != domain.RegistrationConfirmed {
		return false
	}
	return before != nil && before.Status != domain.RegistrationConfirmed
}
