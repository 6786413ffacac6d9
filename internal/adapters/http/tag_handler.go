package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/journify/core/internal/application/services"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

// TagHandler handles tag manager requests
type TagHandler struct {
	tagService   *services.TagService
	entryService *services.EntryService
	owner        Owner
	logger       *logger.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagService *services.TagService, entryService *services.EntryService, owner Owner, logger *logger.Logger) *TagHandler {
	return &TagHandler{
		tagService:   tagService,
		entryService: entryService,
		owner:        owner,
		logger:       logger,
	}
}

// ListTags godoc
// @Summary List tags with usage counts
// @Tags tags
// @Produce json
// @Param type query string false "Tag type" Enums(folder, person, location, hashtag, highlight)
// @Success 200 {object} ListResponse[entities.Tag]
// @Failure 400 {object} ErrorResponse
// @Router /tags [get]
func (h *TagHandler) ListTags(c echo.Context) error {
	var typ *entities.TagType
	if raw := c.QueryParam("type"); raw != "" {
		t := entities.TagType(raw)
		if !t.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid tag type")
		}
		typ = &t
	}
	return c.JSON(http.StatusOK, newListResponse(h.tagService.ListTags(typ)))
}

// CreateTag godoc
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param request body ports.CreateTagRequest true "Tag data"
// @Success 201 {object} entities.Tag
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tags [post]
func (h *TagHandler) CreateTag(c echo.Context) error {
	var req ports.CreateTagRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tag, err := h.tagService.CreateTag(h.owner(), req)
	if err != nil {
		h.logger.Errorw("Create tag failed", "error", err, "name", req.Name)
		return err
	}
	return c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) GetTag(c echo.Context) error {
	tag, err := h.tagService.GetTag(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) UpdateTag(c echo.Context) error {
	var req ports.UpdateTagRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tag, err := h.tagService.UpdateTag(c.Param("id"), req)
	if err != nil {
		h.logger.Errorw("Update tag failed", "error", err, "tag_id", c.Param("id"))
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) DeleteTag(c echo.Context) error {
	if err := h.tagService.DeleteTag(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TagHandler) Children(c echo.Context) error {
	tags, err := h.tagService.Children(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(tags))
}

// TagEntries lists the entries carrying a tag.
func (h *TagHandler) TagEntries(c echo.Context) error {
	if _, err := h.tagService.GetTag(c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newListResponse(h.entryService.EntriesByTag(c.Param("id"))))
}
