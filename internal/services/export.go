package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"clubevents/internal/domain"
	"clubevents/internal/metrics"
	"clubevents/internal/policy"
)

const (
	exportRange       = "Sheet1!A1"
	exportTitlePrefix = "Event Registrations - "
)

var exportHeader = []string{"Name", "Email", "Reason", "Status", "Timestamp"}

type exportService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	exporter         domain.TabularExporter
	metrics          *metrics.Metrics
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewExportService creates the registration export service.
func NewExportService(
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	exporter domain.TabularExporter,
	m *metrics.Metrics,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ExportService {
	return &exportService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		exporter:         exporter,
		metrics:          m,
		logger:           logger,
		contextTimeout:   timeout,
	}
}

// ExportRegistrations writes every registration of eventID to a tabular document. Failures
// past authorisation are logged and reported as domain.ErrExportFailed.
func (s *exportService) ExportRegistrations(ctx context.Context, p domain.Principal, eventID, targetDocumentID string) (*domain.ExportResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !p.IsAuthenticated() {
		return nil, &domain.AccessError{Action: "export", Resource: "event", Reason: "authentication required", Anonymous: true}
	}
	if !p.IsOrganizer() {
		return nil, &domain.AccessError{Action: "export", Resource: "event", Reason: "organizer or admin role required"}
	}
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, domain.NewValidationError("event_id", "is required")
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, s.fail(ctx, "get event", eventID, err)
	}
	if err := policy.Check(p, policy.ActionExport, policy.EventRecord{Event: event}); err != nil {
		return nil, err
	}

	regs, err := s.registrationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, s.fail(ctx, "list registrations", eventID, err)
	}
	rows := buildExportRows(regs)

	docID := strings.TrimSpace(targetDocumentID)
	if docID == "" {
		docID, err = s.exporter.Create(ctx, exportTitlePrefix+event.Title)
		if err != nil {
			return nil, s.fail(ctx, "create document", eventID, err)
		}
	}
	if err := s.exporter.WriteRange(ctx, docID, exportRange, rows); err != nil {
		return nil, s.fail(ctx, "write range", eventID, err)
	}
	url, err := s.exporter.URL(ctx, docID)
	if err != nil {
		return nil, s.fail(ctx, "document url", eventID, err)
	}

	s.metrics.Export(metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "registrations exported",
		"event_id", eventID, "document_id", docID, "count", len(regs))
	return &domain.ExportResult{
		DocumentID:    docID,
		ExportedCount: len(regs),
		URL:           url,
	}, nil
}

func (s *exportService) fail(ctx context.Context, step, eventID string, err error) error {
	s.logger.ErrorContext(ctx, "export failed", "step", step, "event_id", eventID, "err", err)
	s.metrics.Export(metrics.ResultFailure)
	return domain.ErrExportFailed
}

// buildExportRows returns the header row followed by one row per registration.
func buildExportRows(regs []*domain.Registration) [][]string {
	rows := make([][]string, 0, len(regs)+1)
	rows = append(rows, exportHeader)
	for _, r := range regs {
		rows = append(rows, []string{
			r.UserName,
			r.UserEmail,
			r.Reason,
			string(r.Status),
			r.RegistrationTime.UTC().Format(time.RFC3339),
		})
	}
	return rows
}
