package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eventra/dashboard/api/internal/repository"
	"github.com/eventra/dashboard/api/internal/service"
)

const maxCSVUploadBytes = 10 << 20

// LeadsHandler serves lead listing and the CSV import/export endpoints.
type LeadsHandler struct {
	leadsService *service.LeadsService
}

// NewLeadsHandler wires a handler backed by the leads service.
func NewLeadsHandler(leadsService *service.LeadsService) *LeadsHandler {
	return &LeadsHandler{leadsService: leadsService}
}

// List handles GET /api/leads.
func (h *LeadsHandler) List(c echo.Context) error {
	eventID, err := optionalUUID(c.QueryParam("eventId"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "eventId must be a valid UUID")
	}
	filter := repository.LeadFilter{
		EventID:  eventID,
		Status:   strings.TrimSpace(c.QueryParam("status")),
		Priority: strings.TrimSpace(c.QueryParam("priority")),
		Q:        strings.TrimSpace(c.QueryParam("q")),
		Page:     parsePositiveInt(c.QueryParam("page"), 1),
		PerPage:  parsePositiveInt(c.QueryParam("perPage"), 50),
	}

	leads, err := h.leadsService.ListLeads(c.Request().Context(), filter)
	if err != nil {
		return respondServiceError(c, err, "failed to list leads")
	}
	return Success(c, http.StatusOK, "", leads)
}

// ExportCSV handles GET /api/leads/export.
func (h *LeadsHandler) ExportCSV(c echo.Context) error {
	eventID, err := optionalUUID(c.QueryParam("eventId"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "eventId must be a valid UUID")
	}

	ctx := c.Request().Context()
	var buf bytes.Buffer
	if _, err := h.leadsService.ExportLeadsCSV(ctx, &buf, eventID); err != nil {
		return respondServiceError(c, err, "failed to export leads")
	}
	return sendCSV(c, h.leadsService.ExportFilename(ctx, "leads", eventID, time.Now()), buf.Bytes())
}

// ImportCSV handles POST /api/admin/leads/import.
func (h *LeadsHandler) ImportCSV(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}
	if fileHeader.Size > maxCSVUploadBytes {
		return Error(c, http.StatusRequestEntityTooLarge, "csv file is too large")
	}
	eventID, err := optionalUUID(c.FormValue("eventId"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "eventId must be a valid UUID")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	summary, err := h.leadsService.ImportLeadsCSV(c.Request().Context(), file, eventID)
	if err != nil {
		return respondServiceError(c, err, "failed to process csv")
	}

	return Success(c, http.StatusOK, "leads CSV processed", summary)
}

// ExportEventsCSV handles GET /api/events/export.
func (h *LeadsHandler) ExportEventsCSV(c echo.Context) error {
	var buf bytes.Buffer
	if _, err := h.leadsService.ExportEventsCSV(c.Request().Context(), &buf); err != nil {
		return respondServiceError(c, err, "failed to export events")
	}
	return sendCSV(c, h.leadsService.ExportFilename(c.Request().Context(), "events", nil, time.Now()), buf.Bytes())
}

// ExportTasksCSV handles GET /api/tasks/export.
func (h *LeadsHandler) ExportTasksCSV(c echo.Context) error {
	eventID, err := optionalUUID(c.QueryParam("eventId"))
	if err != nil {
		return Error(c, http.StatusBadRequest, "eventId must be a valid UUID")
	}

	var buf bytes.Buffer
	if _, err := h.leadsService.ExportTasksCSV(c.Request().Context(), &buf, eventID); err != nil {
		return respondServiceError(c, err, "failed to export tasks")
	}
	return sendCSV(c, h.leadsService.ExportFilename(c.Request().Context(), "tasks", eventID, time.Now()), buf.Bytes())
}

func sendCSV(c echo.Context, filename string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", body)
}

func optionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parsePositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
