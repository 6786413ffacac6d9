package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

const snapshotVersion = 1

// Snapshot field names. Only these can appear in the allow-list; user,
// currentEntry and isLoading are never persisted.
const (
	FieldTheme         = "theme"
	FieldSettings      = "settings"
	FieldSidebarOpen   = "sidebarOpen"
	FieldCurrentView   = "currentView"
	FieldSearchFilters = "searchFilters"
	FieldEntries       = "entries"
	FieldTags          = "tags"
)

var persistableFields = map[string]bool{
	FieldTheme:         true,
	FieldSettings:      true,
	FieldSidebarOpen:   true,
	FieldCurrentView:   true,
	FieldSearchFilters: true,
	FieldEntries:       true,
	FieldTags:          true,
}

type snapshotEnvelope struct {
	State   map[string]json.RawMessage `json:"state"`
	Version int                        `json:"version"`
}

// PersisterConfig selects the snapshot key, the persisted field allow-list and
// an optional debounce window.
type PersisterConfig struct {
	Key      string
	Fields   []string
	Debounce time.Duration
	Timeout  time.Duration
}

// Persister writes store snapshots to a keyed blob store.
type Persister struct {
	backend  ports.SnapshotStore
	key      string
	fields   []string
	debounce time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	mu         sync.Mutex
	timer      *time.Timer
	pending    *State
	pendingSeq uint64
	seq        uint64
	onFailure  func(error)

	// writeMu serializes backend writes; written is the sequence of the
	// newest snapshot stored, so an older one never overwrites it.
	writeMu sync.Mutex
	written uint64
}

// NewPersister builds a persister. Unknown or non-persistable field names in
// the allow-list are dropped with a warning.
func NewPersister(backend ports.SnapshotStore, cfg PersisterConfig, log *logger.Logger) *Persister {
	log = log.WithComponent("snapshot")

	fields := make([]string, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if !persistableFields[f] {
			log.Warnw("Ignoring non-persistable snapshot field", "field", f)
			continue
		}
		fields = append(fields, f)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Persister{
		backend:  backend,
		key:      cfg.Key,
		fields:   fields,
		debounce: cfg.Debounce,
		timeout:  timeout,
		logger:   log,
	}
}

// OnFailure registers a hook invoked for every failed write.
func (p *Persister) OnFailure(fn func(error)) {
	p.mu.Lock()
	p.onFailure = fn
	p.mu.Unlock()
}

// Fields returns the effective allow-list.
func (p *Persister) Fields() []string {
	return append([]string(nil), p.fields...)
}

// Save writes st immediately, or schedules it when a debounce window is set.
// Failures are logged and reported to the failure hook, never returned.
func (p *Persister) Save(st State) {
	if p.debounce <= 0 {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.report(p.Write(ctx, st))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.pending = &st
	p.pendingSeq = p.seq
	if p.timer == nil {
		p.timer = time.AfterFunc(p.debounce, func() {
			ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
			defer cancel()
			p.report(p.Flush(ctx))
		})
	}
}

// Flush writes the pending debounced snapshot, if any.
func (p *Persister) Flush(ctx context.Context) error {
	pending, seq := p.takePending()
	if pending == nil {
		return nil
	}
	return p.write(ctx, *pending, seq)
}

func (p *Persister) takePending() (*State, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pending, seq := p.pending, p.pendingSeq
	p.pending = nil
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	return pending, seq
}

// Write encodes the allow-listed fields of st and stores them under the key.
func (p *Persister) Write(ctx context.Context, st State) error {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()
	return p.write(ctx, st, seq)
}

func (p *Persister) write(ctx context.Context, st State, seq uint64) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if seq <= p.written {
		p.logger.Debugw("Skipping stale snapshot", "seq", seq, "written", p.written)
		return nil
	}

	data, err := EncodeSnapshot(st, p.fields)
	if err != nil {
		return entities.NewPersistenceError("encode snapshot", err)
	}
	if err := p.backend.Save(ctx, p.key, data); err != nil {
		return entities.NewPersistenceError("save snapshot", err)
	}
	p.written = seq
	return nil
}

// Load reads the snapshot and rebuilds a state from it. A missing key yields
// the default state. Fields that are absent or fail to decode fall back to
// their defaults individually.
func (p *Persister) Load(ctx context.Context) (State, error) {
	data, err := p.backend.Load(ctx, p.key)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return DefaultState(), nil
		}
		return DefaultState(), entities.NewPersistenceError("load snapshot", err)
	}
	st, err := DecodeSnapshot(data, p.fields, p.logger)
	if err != nil {
		return DefaultState(), entities.NewPersistenceError("decode snapshot", err)
	}
	return st, nil
}

// Clear removes the stored snapshot.
func (p *Persister) Clear(ctx context.Context) error {
	if err := p.backend.Delete(ctx, p.key); err != nil && !errors.Is(err, entities.ErrNotFound) {
		return entities.NewPersistenceError("clear snapshot", err)
	}
	return nil
}

func (p *Persister) report(err error) {
	if err == nil {
		return
	}
	p.logger.LogPersistenceFailure("snapshot", p.key, err)
	p.mu.Lock()
	fn := p.onFailure
	p.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// EncodeSnapshot serializes the allow-listed fields of st. Timestamps are
// written as RFC 3339.
func EncodeSnapshot(st State, fields []string) ([]byte, error) {
	env := snapshotEnvelope{
		State:   make(map[string]json.RawMessage, len(fields)),
		Version: snapshotVersion,
	}
	for _, f := range fields {
		var v interface{}
		switch f {
		case FieldTheme:
			v = st.Theme
		case FieldSettings:
			v = st.Settings
		case FieldSidebarOpen:
			v = st.SidebarOpen
		case FieldCurrentView:
			v = st.CurrentView
		case FieldSearchFilters:
			v = st.SearchFilters
		case FieldEntries:
			v = st.Entries
		case FieldTags:
			v = st.Tags
		default:
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f, err)
		}
		env.State[f] = raw
	}
	return json.Marshal(env)
}

// DecodeSnapshot rebuilds state from data. Only fields in the allow-list are
// read. It fails only when the envelope itself is unreadable.
func DecodeSnapshot(data []byte, fields []string, log *logger.Logger) (State, error) {
	st := DefaultState()

	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return st, fmt.Errorf("decode envelope: %w", err)
	}

	for _, f := range fields {
		raw, ok := env.State[f]
		if !ok || len(raw) == 0 || string(raw) == "null" {
			continue
		}
		if err := decodeField(&st, f, raw); err != nil {
			log.Warnw("Snapshot field unreadable, using default", "field", f, "error", err)
		}
	}
	return st, nil
}

func decodeField(st *State, field string, raw json.RawMessage) error {
	switch field {
	case FieldTheme:
		var theme entities.Theme
		if err := json.Unmarshal(raw, &theme); err != nil {
			return err
		}
		if !theme.Valid() {
			return fmt.Errorf("unknown theme %q", theme)
		}
		st.Theme = theme
	case FieldSettings:
		settings := entities.DefaultSettings()
		if err := json.Unmarshal(raw, &settings); err != nil {
			return err
		}
		st.Settings = settings
	case FieldSidebarOpen:
		var open bool
		if err := json.Unmarshal(raw, &open); err != nil {
			return err
		}
		st.SidebarOpen = open
	case FieldCurrentView:
		var view entities.View
		if err := json.Unmarshal(raw, &view); err != nil {
			return err
		}
		if !view.Valid() {
			return fmt.Errorf("unknown view %q", view)
		}
		st.CurrentView = view
	case FieldSearchFilters:
		var filters entities.SearchFilters
		if err := json.Unmarshal(raw, &filters); err != nil {
			return err
		}
		st.SearchFilters = filters
	case FieldEntries:
		var list []entities.JournalEntry
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		for i := range list {
			if list[i].TagIDs == nil {
				list[i].TagIDs = []string{}
			}
			if list[i].Attachments == nil {
				list[i].Attachments = []entities.Attachment{}
			}
		}
		if list != nil {
			st.Entries = list
		}
	case FieldTags:
		var list []entities.Tag
		if err := json.Unmarshal(raw, &list); err != nil {
			return err
		}
		if list != nil {
			st.Tags = list
		}
	}
	return nil
}
