package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"clubevents/internal/delivery/http/helpers"
	"clubevents/internal/delivery/http/middleware"
	"clubevents/internal/domain"
)

// Callable error codes of the export endpoint.
const (
	callableUnauthenticated  = "unauthenticated"
	callablePermissionDenied = "permission-denied"
	callableInvalidArgument  = "invalid-argument"
	callableNotFound         = "not-found"
	callableInternal         = "internal"
)

// ExportRequest is the optional body for POST /events/{eventID}/export.
type ExportRequest struct {
	SpreadsheetID string `json:"spreadsheetId"`
}

// ExportResponse is the data payload of a successful export.
type ExportResponse struct {
	Success        bool   `json:"success"`
	SpreadsheetID  string `json:"spreadsheetId"`
	ExportedCount  int    `json:"exportedCount"`
	SpreadsheetURL string `json:"spreadsheetUrl"`
}

// ExportSuccessResponse is the success envelope for POST /events/{eventID}/export.
type ExportSuccessResponse struct {
	Data  ExportResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type ExportController struct {
	Logger  *slog.Logger
	Service domain.ExportService
}

func NewExportController(logger *slog.Logger, svc domain.ExportService) *ExportController {
	return &ExportController{Logger: logger, Service: svc}
}

// ExportRegistrations godoc
// @Summary Export an event's registrations
// @Description Writes all registrations of the event to a tabular document. Pass spreadsheetId to overwrite an existing document.
// @Tags export
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body ExportRequest false "Optional target document"
// @Success 200 {object} controllers.ExportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: invalid-argument"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthenticated"
// @Failure 403 {object} helpers.APIResponse "error.code: permission-denied"
// @Failure 404 {object} helpers.APIResponse "error.code: not-found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal"
// @Router /events/{eventID}/export [post]
func (c *ExportController) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := helpers.DecodeBody(r, &req, true); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, callableInvalidArgument, err.Error())
		return
	}
	result, err := c.Service.ExportRegistrations(r.Context(), middleware.PrincipalFromContext(r.Context()), r.PathValue("eventID"), req.SpreadsheetID)
	if err != nil {
		status, code, msg := callableError(err)
		if status == http.StatusInternalServerError {
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		}
		helpers.WriteJSONError(w, status, code, msg)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ExportResponse{
		Success:        true,
		SpreadsheetID:  result.DocumentID,
		ExportedCount:  result.ExportedCount,
		SpreadsheetURL: result.URL,
	})
}

func callableError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, callableUnauthenticated, "User must be authenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, callablePermissionDenied, "Only organizers and admins can export data"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, callableInvalidArgument, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, callableNotFound, "Event not found"
	default:
		return http.StatusInternalServerError, callableInternal, "Failed to export data"
	}
}
