package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/journify/core/internal/application/services"
	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

// StateHandler handles UI state, settings and whole-state requests
type StateHandler struct {
	store         *store.Store
	notifications *services.Notifications
	logger        *logger.Logger
}

// NewStateHandler creates a new state handler
func NewStateHandler(st *store.Store, notifications *services.Notifications, logger *logger.Logger) *StateHandler {
	return &StateHandler{
		store:         st,
		notifications: notifications,
		logger:        logger,
	}
}

func (h *StateHandler) GetFilters(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.SearchFilters())
}

// SetFilters godoc
// @Summary Replace the search filters
// @Description The filters are replaced wholesale; omitted fields are cleared
// @Tags filters
// @Accept json
// @Produce json
// @Param request body entities.SearchFilters true "Filters"
// @Success 200 {object} entities.SearchFilters
// @Failure 400 {object} ErrorResponse
// @Router /filters [put]
func (h *StateHandler) SetFilters(c echo.Context) error {
	var filters entities.SearchFilters
	if err := c.Bind(&filters); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	for _, m := range filters.Mood {
		if !m.Valid() {
			return entities.NewValidationError("mood", "unknown mood "+string(m))
		}
	}
	if dr := filters.DateRange; dr != nil && !dr.Start.IsZero() && !dr.End.IsZero() && dr.End.Before(dr.Start) {
		return entities.NewValidationError("dateRange", "end must not be before start")
	}

	h.store.SetSearchFilters(filters)
	return c.JSON(http.StatusOK, h.store.SearchFilters())
}

func (h *StateHandler) GetView(c echo.Context) error {
	return c.JSON(http.StatusOK, ports.SetViewRequest{View: h.store.CurrentView()})
}

func (h *StateHandler) SetView(c echo.Context) error {
	var req ports.SetViewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.store.SetCurrentView(req.View); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, req)
}

func (h *StateHandler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Settings())
}

// UpdateSettings godoc
// @Summary Update settings
// @Tags settings
// @Accept json
// @Produce json
// @Param request body entities.SettingsPatch true "Changed settings"
// @Success 200 {object} entities.AppSettings
// @Failure 400 {object} ErrorResponse
// @Router /settings [patch]
func (h *StateHandler) UpdateSettings(c echo.Context) error {
	var patch entities.SettingsPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return err
	}
	if err := h.store.UpdateSettings(patch); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.Settings())
}

func (h *StateHandler) SetTheme(c echo.Context) error {
	var req ports.SetThemeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.store.SetTheme(req.Theme); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.Settings())
}

func (h *StateHandler) SetSidebar(c echo.Context) error {
	var req ports.SetSidebarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	h.store.SetSidebarOpen(req.Open)
	return c.JSON(http.StatusOK, req)
}

// GetState godoc
// @Summary Whole application state
// @Tags state
// @Produce json
// @Success 200 {object} store.State
// @Router /state [get]
func (h *StateHandler) GetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.State())
}

func (h *StateHandler) ResetState(c echo.Context) error {
	h.store.ResetState()
	h.logger.Infow("State reset")
	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "State reset"})
}

// LoadSampleData replaces entries and tags with the demo journal.
func (h *StateHandler) LoadSampleData(c echo.Context) error {
	h.store.InitializeSampleData()
	h.logger.Infow("Sample data loaded")
	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Sample data loaded"})
}

func (h *StateHandler) ListNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, newListResponse(h.notifications.List()))
}

func (h *StateHandler) ClearNotifications(c echo.Context) error {
	h.notifications.Clear()
	return c.NoContent(http.StatusNoContent)
}
