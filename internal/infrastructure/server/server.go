package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/journify/core/docs"
	httpHandlers "github.com/journify/core/internal/adapters/http"
	"github.com/journify/core/internal/application/editor"
	"github.com/journify/core/internal/application/services"
	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/infrastructure/cache"
	"github.com/journify/core/internal/infrastructure/config"
	"github.com/journify/core/internal/infrastructure/database"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/infrastructure/metrics"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	db      *database.DB
	redis   *redis.Client
	metrics *metrics.Metrics
}

// Dependencies are the application components the HTTP layer serves. DB,
// Redis and Metrics are optional.
type Dependencies struct {
	Store         *store.Store
	Editor        *editor.Editor
	Entries       *services.EntryService
	Tags          *services.TagService
	Attachments   *services.AttachmentService
	Notifications *services.Notifications
	Owner         httpHandlers.Owner

	DB      *database.DB
	Redis   *redis.Client
	Metrics *metrics.Metrics
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// NewValidator returns the request validator used by the server.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = NewValidator()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	entryHandler := httpHandlers.NewEntryHandler(deps.Entries, deps.Attachments, deps.Owner, appLogger)
	tagHandler := httpHandlers.NewTagHandler(deps.Tags, deps.Entries, deps.Owner, appLogger)
	editorHandler := httpHandlers.NewEditorHandler(deps.Editor, deps.Owner, appLogger)
	stateHandler := httpHandlers.NewStateHandler(deps.Store, deps.Notifications, appLogger)

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger,
		db:      deps.DB,
		redis:   deps.Redis,
		metrics: deps.Metrics,
	}

	server.setupMiddleware()

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		server.setupMetrics()
	}

	server.setupRoutes(entryHandler, tagHandler, editorHandler, stateHandler)

	return server, nil
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			reqLogger := s.logger.WithRequestID(values.RequestID)
			latency := float64(values.Latency.Nanoseconds()) / 1000000

			if values.Error != nil {
				reqLogger.Errorw("HTTP request failed",
					"method", values.Method,
					"uri", values.URI,
					"status", values.Status,
					"latency_ms", latency,
					"error", values.Error.Error(),
				)
			} else {
				reqLogger.LogHTTPRequest(values.Method, values.URI, values.UserAgent, values.RemoteIP, values.Status, latency)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	if s.config.Security.RateLimitRequests > 0 {
		window := s.config.Security.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / window.Seconds()),
					Burst:     s.config.Security.RateLimitRequests,
					ExpiresIn: window,
				},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Path(), "/swagger")
			},
			Timeout: s.config.Server.RequestTimeout,
		}))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(entryHandler *httpHandlers.EntryHandler, tagHandler *httpHandlers.TagHandler, editorHandler *httpHandlers.EditorHandler, stateHandler *httpHandlers.StateHandler) {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := s.echo.Group("/api/v1")

	entries := v1.Group("/entries")
	entries.GET("", entryHandler.ListEntries)
	entries.POST("", entryHandler.CreateEntry)
	entries.GET("/highlighted", entryHandler.HighlightedEntries)
	entries.GET("/mood/:mood", entryHandler.EntriesByMood)
	entries.GET("/:id", entryHandler.GetEntry)
	entries.PATCH("/:id", entryHandler.UpdateEntry)
	entries.DELETE("/:id", entryHandler.DeleteEntry)
	entries.POST("/:id/highlight", entryHandler.ToggleHighlight)
	entries.POST("/:id/attachments", entryHandler.RequestUpload)
	entries.GET("/:id/attachments/:attachmentId", entryHandler.DownloadAttachment)
	entries.DELETE("/:id/attachments/:attachmentId", entryHandler.RemoveAttachment)

	v1.GET("/calendar", entryHandler.EntriesForDay)
	v1.GET("/calendar/days", entryHandler.CalendarDays)
	v1.GET("/stats", entryHandler.Stats)

	tags := v1.Group("/tags")
	tags.GET("", tagHandler.ListTags)
	tags.POST("", tagHandler.CreateTag)
	tags.GET("/:id", tagHandler.GetTag)
	tags.PATCH("/:id", tagHandler.UpdateTag)
	tags.DELETE("/:id", tagHandler.DeleteTag)
	tags.GET("/:id/children", tagHandler.Children)
	tags.GET("/:id/entries", tagHandler.TagEntries)

	v1.GET("/filters", stateHandler.GetFilters)
	v1.PUT("/filters", stateHandler.SetFilters)
	v1.GET("/view", stateHandler.GetView)
	v1.PUT("/view", stateHandler.SetView)
	v1.GET("/settings", stateHandler.GetSettings)
	v1.PATCH("/settings", stateHandler.UpdateSettings)
	v1.PUT("/settings/theme", stateHandler.SetTheme)
	v1.PUT("/ui/sidebar", stateHandler.SetSidebar)

	v1.GET("/state", stateHandler.GetState)
	v1.POST("/state/reset", stateHandler.ResetState)
	v1.POST("/state/sample", stateHandler.LoadSampleData)
	v1.GET("/notifications", stateHandler.ListNotifications)
	v1.DELETE("/notifications", stateHandler.ClearNotifications)

	ed := v1.Group("/editor")
	ed.GET("", editorHandler.GetEditor)
	ed.POST("/new", editorHandler.NewDraft)
	ed.POST("/edit/:id", editorHandler.EditEntry)
	ed.PATCH("/draft", editorHandler.ChangeDraft)
	ed.POST("/tags", editorHandler.AddInlineTag)
	ed.POST("/highlight", editorHandler.ToggleHighlight)
	ed.POST("/save", editorHandler.Save)
	ed.POST("/cancel", editorHandler.Cancel)
}

// setupMetrics installs the request metrics middleware and /metrics.
func (s *Server) setupMetrics() {
	s.echo.Use(metricsMiddleware(s.metrics))

	metricsHandler := promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if s.db != nil {
		if err := s.db.HealthCheck(); err != nil {
			status = "degraded"
			checks["database"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		} else {
			checks["database"] = map[string]interface{}{
				"status": "ok",
				"stats":  s.db.GetConnectionInfo(),
			}
		}
	}

	if s.redis != nil {
		if err := cache.Ping(c.Request().Context(), s.redis); err != nil {
			status = "degraded"
			checks["redis"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		} else {
			checks["redis"] = map[string]interface{}{"status": "ok"}
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	}

	// The journal keeps working on its local snapshot when a backend is down.
	return c.JSON(http.StatusOK, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "database_not_ready",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code, msg := statusFor(err)

		if code == http.StatusInternalServerError {
			logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				WithError(err).
				Errorw("Internal server error", "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}

func errorBody(code int, detail string) httpHandlers.ErrorResponse {
	return httpHandlers.ErrorResponse{Error: http.StatusText(code), Details: detail}
}

// Addr formats the listen address.
func Addr(cfg config.ServerConfig) string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
