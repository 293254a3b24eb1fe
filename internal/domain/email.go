package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// EmailMessage is one outbound email. An empty From uses the mailer's default sender.
type EmailMessage struct {
	To      string
	From    string
	Subject string
	HTML    string
	Text    string
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationEmailData holds data for registration notification emails.
type RegistrationEmailData struct {
	Email      string
	UserName   string
	EventTitle string
	EventID    string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendRegistrationReceived(ctx context.Context, data *RegistrationEmailData) error
	SendRegistrationApproved(ctx context.Context, data *RegistrationEmailData) error
}
