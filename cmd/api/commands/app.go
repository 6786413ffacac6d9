package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/journify/core/internal/adapters/repository"
	"github.com/journify/core/internal/adapters/snapshot"
	"github.com/journify/core/internal/adapters/storage"
	"github.com/journify/core/internal/application/editor"
	"github.com/journify/core/internal/application/services"
	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/cache"
	"github.com/journify/core/internal/infrastructure/config"
	"github.com/journify/core/internal/infrastructure/database"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/infrastructure/metrics"
	"github.com/journify/core/internal/infrastructure/server"
	"github.com/journify/core/internal/ports"
)

// app holds the wired journal components shared by the commands.
type app struct {
	cfg    *config.Config
	logger *logger.Logger

	store         *store.Store
	persister     *store.Persister
	editor        *editor.Editor
	entries       *services.EntryService
	tags          *services.TagService
	attachments   *services.AttachmentService
	notifications *services.Notifications
	sync          *services.SyncService
	metrics       *metrics.Metrics

	db    *database.DB
	redis *redis.Client

	unobserve func()
}

// appOptions selects which remote components are opened.
type appOptions struct {
	withGateway bool
	withStorage bool
}

func loadConfigAndLogger() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, appLogger, nil
}

// newApp restores the store from its snapshot and wires the services around
// it. Remote failures are logged and the journal runs locally.
func newApp(ctx context.Context, cfg *config.Config, appLogger *logger.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: appLogger}

	loc, err := cfg.Journal.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid journal timezone: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
	}

	backend, err := a.snapshotBackend(ctx)
	if err != nil {
		return nil, err
	}

	a.persister = store.NewPersister(backend, store.PersisterConfig{
		Key:      cfg.Snapshot.Key,
		Fields:   cfg.Snapshot.Fields,
		Debounce: cfg.Snapshot.Debounce,
	}, appLogger)

	initial, err := a.persister.Load(ctx)
	if err != nil {
		appLogger.Warnw("Snapshot could not be loaded, starting from defaults", "error", err)
	}

	a.store = store.New(appLogger, store.WithPersister(a.persister), store.WithState(initial))
	a.notifications = services.NewNotifications(0)
	a.persister.OnFailure(a.onPersistenceFailure("snapshot", cfg.Snapshot.Key))

	if a.metrics != nil {
		a.unobserve = a.metrics.ObserveStore(a.store)
	}

	owner := entities.User{
		ID:    cfg.Journal.UserID,
		Email: cfg.Journal.UserEmail,
		Name:  cfg.Journal.UserName,
	}
	if a.store.User() == nil {
		a.store.SetUser(&owner)
	}

	if cfg.Journal.SeedSampleData && len(a.store.Entries()) == 0 {
		a.store.InitializeSampleData()
	}

	var uploader ports.AttachmentUploader
	if opts.withStorage && cfg.Storage.Enabled {
		s3, err := storage.NewS3Uploader(ctx, cfg.Storage)
		if err != nil {
			appLogger.Errorw("Attachment storage unavailable", "error", err)
		} else {
			uploader = s3
		}
	}

	a.entries = services.NewEntryService(a.store, loc, appLogger)
	a.tags = services.NewTagService(a.store, appLogger)
	a.attachments = services.NewAttachmentService(a.store, uploader, appLogger)
	a.editor = editor.New(a.store, appLogger)

	if opts.withGateway && cfg.Database.Enabled {
		if err := a.openGateway(ctx, owner); err != nil {
			appLogger.Errorw("Remote gateway unavailable, running on the local snapshot", "error", err)
		}
	}

	return a, nil
}

func (a *app) snapshotBackend(ctx context.Context) (ports.SnapshotStore, error) {
	switch a.cfg.Snapshot.Driver {
	case "redis":
		client, err := cache.Connect(ctx, a.cfg.Redis, a.logger)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return snapshot.NewRedisStore(client, 0), nil
	case "memory":
		return snapshot.NewMemoryStore(), nil
	default:
		return snapshot.NewFileStore(a.cfg.Snapshot.Dir)
	}
}

func (a *app) openGateway(ctx context.Context, owner entities.User) error {
	db, err := database.New(a.cfg.Database)
	if err != nil {
		return err
	}
	a.db = db

	if ran, err := db.MigrateUp(); err != nil {
		return err
	} else if ran {
		a.logger.Info("Database migrations applied")
	}

	opts := services.SyncOptions{
		UserID:    owner.ID,
		Interval:  a.cfg.Sync.Interval,
		Timeout:   a.cfg.Sync.Timeout,
		OnFailure: a.onPersistenceFailure("gateway", ""),
	}
	if a.metrics != nil {
		opts.OnPass = func(d time.Duration) { a.metrics.SyncDuration.Observe(d.Seconds()) }
	}
	a.sync = services.NewSyncService(a.store, repository.NewGateway(db.DB), a.notifications, opts, a.logger)

	if err := a.sync.EnsureUser(ctx, owner); err != nil {
		return err
	}
	return a.sync.Load(ctx)
}

func (a *app) onPersistenceFailure(target, key string) func(error) {
	var count func(error)
	if a.metrics != nil {
		count = a.metrics.PersistenceFailure(target)
	}
	return func(err error) {
		if target == "snapshot" {
			a.notifications.Error("save snapshot", key, err)
		}
		if count != nil {
			count(err)
		}
	}
}

func (a *app) serverDependencies() server.Dependencies {
	return server.Dependencies{
		Store:         a.store,
		Editor:        a.editor,
		Entries:       a.entries,
		Tags:          a.tags,
		Attachments:   a.attachments,
		Notifications: a.notifications,
		Owner:         a.ownerID,
		DB:            a.db,
		Redis:         a.redis,
		Metrics:       a.metrics,
	}
}

func (a *app) ownerID() string {
	if u := a.store.User(); u != nil && u.ID != "" {
		return u.ID
	}
	return a.cfg.Journal.UserID
}

// close flushes pending writes and releases connections.
func (a *app) close(ctx context.Context) {
	if a.sync != nil {
		a.sync.Stop()
	}
	if err := a.store.Flush(ctx); err != nil {
		a.logger.Errorw("Failed to flush snapshot", "error", err)
	}
	if a.unobserve != nil {
		a.unobserve()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
