package services

import (
	"context"
	"fmt"
	"log/slog"

	"clubevents/internal/domain"
)

// Template names rendered by the email service.
const (
	TemplateRegistrationReceived = "registration_received"
	TemplateRegistrationApproved = "registration_approved"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendRegistrationReceived confirms a new registration to the registrant.
func (s *emailService) SendRegistrationReceived(ctx context.Context, data *domain.RegistrationEmailData) error {
	return s.send(ctx, TemplateRegistrationReceived, data)
}

// SendRegistrationApproved tells the registrant their registration was approved.
func (s *emailService) SendRegistrationApproved(ctx context.Context, data *domain.RegistrationEmailData) error {
	return s.send(ctx, TemplateRegistrationApproved, data)
}

func (s *emailService) send(ctx context.Context, templateName string, data *domain.RegistrationEmailData) error {
	if data == nil {
		return fmt.Errorf("%s email data is nil", templateName)
	}
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateName, err)
	}
	msg := &domain.EmailMessage{
		To:      data.Email,
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}
	s.logger.InfoContext(ctx, "email sent", "template", templateName, "to", data.Email)
	return nil
}
