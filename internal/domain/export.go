package domain

import "context"

// TabularExporter is the external tabular document target registrations are exported to.
type TabularExporter interface {
	// Create makes a new empty document and returns its id.
	Create(ctx context.Context, title string) (documentID string, err error)
	// WriteRange writes rows starting at the A1-notation cell rng, overwriting what is there.
	WriteRange(ctx context.Context, documentID, rng string, rows [][]string) error
	// URL returns a viewable link to the document.
	URL(ctx context.Context, documentID string) (string, error)
}

// ExportResult describes a completed export.
// swagger:model ExportResult
type ExportResult struct {
	DocumentID    string `json:"spreadsheet_id"`
	ExportedCount int    `json:"exported_count"`
	URL           string `json:"spreadsheet_url"`
}

// ExportService dumps an event's registrations to a tabular document.
type ExportService interface {
	ExportRegistrations(ctx context.Context, p Principal, eventID, targetDocumentID string) (*ExportResult, error)
}
