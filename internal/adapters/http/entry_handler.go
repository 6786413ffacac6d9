package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/journify/core/internal/application/query"
	"github.com/journify/core/internal/application/services"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

// EntryHandler handles journal entry requests
type EntryHandler struct {
	entryService      *services.EntryService
	attachmentService *services.AttachmentService
	owner             Owner
	logger            *logger.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entryService *services.EntryService, attachmentService *services.AttachmentService, owner Owner, logger *logger.Logger) *EntryHandler {
	return &EntryHandler{
		entryService:      entryService,
		attachmentService: attachmentService,
		owner:             owner,
		logger:            logger,
	}
}

// ListEntries godoc
// @Summary List journal entries
// @Description Without query parameters the store's current search filters apply
// @Tags entries
// @Produce json
// @Param q query string false "Search term"
// @Param mood query []string false "Moods" collectionFormat(multi)
// @Param tag query []string false "Tag ids" collectionFormat(multi)
// @Param highlight query bool false "Highlight flag"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} ListResponse[query.EntryView]
// @Failure 400 {object} ErrorResponse
// @Router /entries [get]
func (h *EntryHandler) ListEntries(c echo.Context) error {
	filters, ok, err := parseFilters(c, h.entryService.Location())
	if err != nil {
		return err
	}

	var entries []query.EntryView
	if ok {
		entries = h.entryService.SearchEntries(filters)
	} else {
		entries = h.entryService.ListEntries()
	}
	return c.JSON(http.StatusOK, newListResponse(entries))
}

// CreateEntry godoc
// @Summary Create a journal entry
// @Tags entries
// @Accept json
// @Produce json
// @Param request body ports.CreateEntryRequest true "Entry data"
// @Success 201 {object} entities.JournalEntry
// @Failure 400 {object} ErrorResponse
// @Router /entries [post]
func (h *EntryHandler) CreateEntry(c echo.Context) error {
	var req ports.CreateEntryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := h.entryService.CreateEntry(h.owner(), req)
	if err != nil {
		h.logger.Errorw("Create entry failed", "error", err)
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// GetEntry godoc
// @Summary Get an entry with its tags resolved
// @Tags entries
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} query.EntryView
// @Failure 404 {object} ErrorResponse
// @Router /entries/{id} [get]
func (h *EntryHandler) GetEntry(c echo.Context) error {
	entry, err := h.entryService.GetEntry(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// UpdateEntry godoc
// @Summary Update an entry
// @Tags entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param request body ports.UpdateEntryRequest true "Changed fields"
// @Success 200 {object} entities.JournalEntry
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /entries/{id} [patch]
func (h *EntryHandler) UpdateEntry(c echo.Context) error {
	var req ports.UpdateEntryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := h.entryService.UpdateEntry(c.Param("id"), req)
	if err != nil {
		h.logger.Errorw("Update entry failed", "error", err, "entry_id", c.Param("id"))
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// DeleteEntry godoc
// @Summary Delete an entry
// @Tags entries
// @Param id path string true "Entry ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /entries/{id} [delete]
func (h *EntryHandler) DeleteEntry(c echo.Context) error {
	if err := h.entryService.DeleteEntry(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleHighlight flips the highlight flag.
func (h *EntryHandler) ToggleHighlight(c echo.Context) error {
	entry, err := h.entryService.ToggleHighlight(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) HighlightedEntries(c echo.Context) error {
	return c.JSON(http.StatusOK, newListResponse(h.entryService.HighlightedEntries()))
}

// EntriesByMood lists entries recorded with one mood.
func (h *EntryHandler) EntriesByMood(c echo.Context) error {
	mood := entities.Mood(c.Param("mood"))
	if !mood.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid mood")
	}
	return c.JSON(http.StatusOK, newListResponse(h.entryService.EntriesByMood(mood)))
}

// EntriesForDay godoc
// @Summary List the entries of one calendar day
// @Tags calendar
// @Produce json
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {object} ListResponse[query.EntryView]
// @Failure 400 {object} ErrorResponse
// @Router /calendar [get]
func (h *EntryHandler) EntriesForDay(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = query.DayKey(h.entryService.Now(), h.entryService.Location())
	}
	entries, err := h.entryService.EntriesForDay(date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(entries))
}

func (h *EntryHandler) CalendarDays(c echo.Context) error {
	return c.JSON(http.StatusOK, newListResponse(h.entryService.CalendarDays()))
}

// Stats godoc
// @Summary Journal statistics
// @Tags stats
// @Produce json
// @Success 200 {object} query.Stats
// @Router /stats [get]
func (h *EntryHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.entryService.Stats())
}

// RequestUpload godoc
// @Summary Register an attachment and get a presigned upload URL
// @Tags attachments
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param request body ports.AttachmentUploadRequest true "Attachment metadata"
// @Success 201 {object} ports.AttachmentUploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 501 {object} ErrorResponse
// @Router /entries/{id}/attachments [post]
func (h *EntryHandler) RequestUpload(c echo.Context) error {
	var req ports.AttachmentUploadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.attachmentService.RequestUpload(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		h.logger.Errorw("Attachment upload request failed", "error", err, "entry_id", c.Param("id"))
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

// DownloadAttachment redirects to a presigned download URL.
func (h *EntryHandler) DownloadAttachment(c echo.Context) error {
	url, err := h.attachmentService.DownloadURL(c.Request().Context(), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *EntryHandler) RemoveAttachment(c echo.Context) error {
	if err := h.attachmentService.RemoveAttachment(c.Param("id"), c.Param("attachmentId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
