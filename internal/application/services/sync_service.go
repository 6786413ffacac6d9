package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

// SyncService reconciles local store mutations with the remote gateway. Store
// mutations are applied locally first; the service records which entries and
// tags changed and pushes them in the background. A failed push leaves local
// state untouched, records a notification and is retried on the next pass.
type SyncService struct {
	store         *store.Store
	gateway       ports.Gateway
	notifications *Notifications
	logger        *logger.Logger
	userID        string

	syncInterval time.Duration
	timeout      time.Duration

	mu          sync.Mutex
	dirtyEntry  map[string]bool
	dirtyTag    map[string]bool
	running     bool
	stopChan    chan struct{}
	doneChan    chan struct{}
	trigger     chan struct{}
	unsubscribe func()

	onFailure func(error)
	onPass    func(time.Duration)
}

// SyncOptions configures a SyncService.
type SyncOptions struct {
	UserID    string
	Interval  time.Duration
	Timeout   time.Duration
	OnFailure func(error)
	OnPass    func(time.Duration)
}

func NewSyncService(st *store.Store, gateway ports.Gateway, notifications *Notifications, opts SyncOptions, logger *logger.Logger) *SyncService {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &SyncService{
		store:         st,
		gateway:       gateway,
		notifications: notifications,
		logger:        logger.WithComponent("sync"),
		userID:        opts.UserID,
		syncInterval:  opts.Interval,
		timeout:       opts.Timeout,
		dirtyEntry:    make(map[string]bool),
		dirtyTag:      make(map[string]bool),
		trigger:       make(chan struct{}, 1),
		onFailure:     opts.OnFailure,
		onPass:        opts.OnPass,
	}
}

// Load pulls the user's entries and tags from the gateway and merges them
// into the store. For ids present on both sides the newer updatedAt wins;
// local-only and locally newer items are queued for push.
func (s *SyncService) Load(ctx context.Context) error {
	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	remoteTags, err := s.gateway.Tags.ListByUser(ctx, s.userID)
	if err != nil {
		return s.fail("load tags", "", err)
	}
	remoteEntries, err := s.gateway.Entries.ListByUser(ctx, s.userID)
	if err != nil {
		return s.fail("load entries", "", err)
	}

	local := s.store.State()
	tags, pushTags := mergeTags(local.Tags, remoteTags)
	entries, pushEntries := mergeEntries(local.Entries, remoteEntries)

	s.store.SetTags(tags)
	s.store.SetEntries(entries)

	s.mu.Lock()
	for _, id := range pushTags {
		s.dirtyTag[id] = true
	}
	for _, id := range pushEntries {
		s.dirtyEntry[id] = true
	}
	s.mu.Unlock()

	s.logger.Infow("Loaded journal from gateway",
		"entries", len(remoteEntries),
		"tags", len(remoteTags),
		"pending_entries", len(pushEntries),
		"pending_tags", len(pushTags),
	)
	return nil
}

// EnsureUser creates the owner row on the gateway if it does not exist yet.
func (s *SyncService) EnsureUser(ctx context.Context, user entities.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.gateway.Users.GetByID(ctx, user.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, entities.ErrUserNotFound) {
		return s.fail("get user", user.ID, err)
	}
	if err := s.gateway.Users.Create(ctx, &user); err != nil && !errors.Is(err, entities.ErrDuplicateID) {
		return s.fail("create user", user.ID, err)
	}
	s.logger.Infow("Created journal owner", "user_id", user.ID)
	return nil
}

// Start subscribes to the store and launches the sync loop.
func (s *SyncService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.unsubscribe = s.store.Subscribe(s.onChange)
	go s.syncLoop(s.stopChan, s.doneChan)
	s.logger.Infow("Sync service started", "interval", s.syncInterval.String())
}

// Stop ends the loop after a final pass.
func (s *SyncService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.unsubscribe()
	close(s.stopChan)
	done := s.doneChan
	s.mu.Unlock()

	<-done
	s.logger.Info("Sync service stopped")
}

// Pending reports the number of entries and tags waiting to be pushed.
func (s *SyncService) Pending() (entries, tags int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirtyEntry), len(s.dirtyTag)
}

func (s *SyncService) onChange(state store.State, change store.Change) {
	s.mu.Lock()
	switch change.Kind {
	case store.KindEntry:
		s.dirtyEntry[change.ID] = true
	case store.KindTag:
		s.dirtyTag[change.ID] = true
	case store.KindAll:
		if change.Op == store.OpReset {
			break
		}
		for _, t := range state.Tags {
			s.dirtyTag[t.ID] = true
		}
		for _, e := range state.Entries {
			s.dirtyEntry[e.ID] = true
		}
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *SyncService) syncLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performSync(context.Background())
		case <-s.trigger:
			s.performSync(context.Background())
		case <-stop:
			s.performSync(context.Background())
			return
		}
	}
}

// SyncNow runs one pass synchronously and returns the number of failures.
func (s *SyncService) SyncNow(ctx context.Context) int {
	return s.performSync(ctx)
}

func (s *SyncService) performSync(ctx context.Context) int {
	s.mu.Lock()
	entryIDs := keys(s.dirtyEntry)
	tagIDs := keys(s.dirtyTag)
	s.dirtyEntry = make(map[string]bool)
	s.dirtyTag = make(map[string]bool)
	s.mu.Unlock()

	if len(entryIDs) == 0 && len(tagIDs) == 0 {
		return 0
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	failures := 0
	var deletedTags []string

	// Tags go first so that entry tag links can reference them.
	for _, id := range tagIDs {
		tag, ok := s.store.Tag(id)
		if !ok {
			deletedTags = append(deletedTags, id)
			continue
		}
		if err := s.gateway.Tags.Save(ctx, &tag); err != nil {
			failures++
			s.retryTag(id)
			_ = s.fail("save tag", id, err)
		}
	}

	for _, id := range entryIDs {
		entry, ok := s.store.Entry(id)
		var err error
		op := "save entry"
		if ok {
			err = s.gateway.Entries.Save(ctx, &entry)
		} else {
			op = "delete entry"
			err = s.gateway.Entries.Delete(ctx, id)
			if errors.Is(err, entities.ErrNotFound) {
				err = nil
			}
		}
		if err != nil {
			failures++
			s.retryEntry(id)
			_ = s.fail(op, id, err)
		}
	}

	for _, id := range deletedTags {
		err := s.gateway.Tags.Delete(ctx, id)
		if err != nil && !errors.Is(err, entities.ErrNotFound) {
			failures++
			s.retryTag(id)
			_ = s.fail("delete tag", id, err)
		}
	}

	duration := time.Since(startTime)
	if s.onPass != nil {
		s.onPass(duration)
	}
	s.logger.Infow("Sync completed",
		"duration", duration.String(),
		"entries", len(entryIDs),
		"tags", len(tagIDs),
		"failures", failures,
	)
	return failures
}

func (s *SyncService) retryEntry(id string) {
	s.mu.Lock()
	s.dirtyEntry[id] = true
	s.mu.Unlock()
}

func (s *SyncService) retryTag(id string) {
	s.mu.Lock()
	s.dirtyTag[id] = true
	s.mu.Unlock()
}

// fail records a gateway failure and returns it as a PersistenceError.
func (s *SyncService) fail(op, id string, err error) error {
	perr := entities.NewPersistenceError(op, err)
	s.logger.LogPersistenceFailure(op, id, err)
	if s.notifications != nil {
		s.notifications.Error(op, id, perr)
	}
	if s.onFailure != nil {
		s.onFailure(perr)
	}
	return fmt.Errorf("sync: %w", perr)
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func mergeTags(local, remote []entities.Tag) ([]entities.Tag, []string) {
	byID := make(map[string]int, len(remote))
	merged := make([]entities.Tag, len(remote))
	for i, t := range remote {
		merged[i] = t.Clone()
		byID[t.ID] = i
	}

	var push []string
	for _, t := range local {
		i, ok := byID[t.ID]
		if !ok {
			merged = append(merged, t.Clone())
			push = append(push, t.ID)
			continue
		}
		if tagUpdated(t).After(tagUpdated(merged[i])) {
			merged[i] = t.Clone()
			push = append(push, t.ID)
		}
	}
	return merged, push
}

func tagUpdated(t entities.Tag) time.Time {
	if t.UpdatedAt != nil {
		return *t.UpdatedAt
	}
	return t.CreatedAt
}

func mergeEntries(local, remote []entities.JournalEntry) ([]entities.JournalEntry, []string) {
	byID := make(map[string]int, len(remote))
	merged := make([]entities.JournalEntry, len(remote))
	for i, e := range remote {
		merged[i] = e.Clone()
		byID[e.ID] = i
	}

	var push []string
	for _, e := range local {
		i, ok := byID[e.ID]
		if !ok {
			merged = append(merged, e.Clone())
			push = append(push, e.ID)
			continue
		}
		if e.UpdatedAt.After(merged[i].UpdatedAt) {
			merged[i] = e.Clone()
			push = append(push, e.ID)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].CreatedAt.After(merged[j].CreatedAt) })
	return merged, push
}
