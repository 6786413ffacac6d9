package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/journify/core/internal/application/editor"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

// EditorHandler exposes the entry editor. There is one editor per journal, so
// the draft is shared by every client.
type EditorHandler struct {
	editor *editor.Editor
	owner  Owner
	logger *logger.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(ed *editor.Editor, owner Owner, logger *logger.Logger) *EditorHandler {
	return &EditorHandler{
		editor: ed,
		owner:  owner,
		logger: logger,
	}
}

// EditorResponse reports the editor state and the draft, if any.
type EditorResponse struct {
	State editor.State           `json:"state"`
	Draft *entities.JournalEntry `json:"draft,omitempty"`
}

func (h *EditorHandler) respond(c echo.Context, code int) error {
	return c.JSON(code, EditorResponse{State: h.editor.State(), Draft: h.editor.Draft()})
}

// GetEditor godoc
// @Summary Current editor state and draft
// @Tags editor
// @Produce json
// @Success 200 {object} EditorResponse
// @Router /editor [get]
func (h *EditorHandler) GetEditor(c echo.Context) error {
	return h.respond(c, http.StatusOK)
}

// NewDraft godoc
// @Summary Start a new entry
// @Tags editor
// @Produce json
// @Success 201 {object} EditorResponse
// @Router /editor/new [post]
func (h *EditorHandler) NewDraft(c echo.Context) error {
	h.editor.New(h.owner())
	return h.respond(c, http.StatusCreated)
}

// EditEntry godoc
// @Summary Open an existing entry in the editor
// @Tags editor
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} EditorResponse
// @Failure 404 {object} ErrorResponse
// @Router /editor/edit/{id} [post]
func (h *EditorHandler) EditEntry(c echo.Context) error {
	if _, err := h.editor.Edit(c.Param("id")); err != nil {
		return err
	}
	return h.respond(c, http.StatusOK)
}

// ChangeDraft godoc
// @Summary Change the draft
// @Tags editor
// @Accept json
// @Produce json
// @Param request body ports.DraftRequest true "Changed fields"
// @Success 200 {object} EditorResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /editor/draft [patch]
func (h *EditorHandler) ChangeDraft(c echo.Context) error {
	var req ports.DraftRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if _, err := h.editor.Change(req.Patch()); err != nil {
		return err
	}
	return h.respond(c, http.StatusOK)
}

// AddInlineTag attaches a hashtag to the draft, creating it when needed.
func (h *EditorHandler) AddInlineTag(c echo.Context) error {
	var req ports.InlineTagRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tag, err := h.editor.AddInlineTag(req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *EditorHandler) ToggleHighlight(c echo.Context) error {
	if _, err := h.editor.ToggleHighlight(); err != nil {
		return err
	}
	return h.respond(c, http.StatusOK)
}

// Save godoc
// @Summary Save the draft
// @Description On a validation failure the editor stays in its editing state
// @Tags editor
// @Produce json
// @Success 200 {object} entities.JournalEntry
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /editor/save [post]
func (h *EditorHandler) Save(c echo.Context) error {
	entry, err := h.editor.Save()
	if err != nil {
		h.logger.Warnw("Save draft failed", "error", err)
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *EditorHandler) Cancel(c echo.Context) error {
	h.editor.Cancel()
	return h.respond(c, http.StatusOK)
}
