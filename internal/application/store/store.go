package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
)

// Store is the single source of truth for the journal: entries, tags, the
// entry under edit, UI selection, search filters and settings. Every mutator
// writes the persisted snapshot and notifies subscribers before returning.
type Store struct {
	mu    sync.RWMutex
	state State

	// commitMu orders commits so listeners observe mutations in sequence.
	commitMu sync.Mutex

	lmu       sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64

	persister *Persister
	logger    *logger.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPersister writes a snapshot through p after every mutation.
func WithPersister(p *Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithState seeds the store, typically with a loaded snapshot.
func WithState(st State) Option {
	return func(s *Store) {
		s.state = st.Clone()
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store holding the default state.
func New(log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		state:     DefaultState(),
		listeners: make(map[uint64]Listener),
		logger:    log.WithComponent("store"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// commit applies fn under the write lock, then persists and notifies. When fn
// fails nothing is persisted or published.
func (s *Store) commit(change Change, fn func(st *State) error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.logger.LogStoreMutation(string(change.Op), string(change.Kind), change.ID)

	if s.persister != nil {
		s.persister.Save(snapshot)
	}

	s.lmu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.Unlock()

	for _, l := range listeners {
		l(snapshot, change)
	}
	return nil
}

// Flush forces any debounced snapshot write to complete.
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Flush(ctx)
}

// Reads

// State returns a copy of the whole state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Entries returns the entries, newest insertion first.
func (s *Store) Entries() []entities.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.JournalEntry, len(s.state.Entries))
	for i, e := range s.state.Entries {
		out[i] = e.Clone()
	}
	return out
}

// Entry returns the entry with the given id.
func (s *Store) Entry(id string) (entities.JournalEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.entryIndex(id); i >= 0 {
		return s.state.Entries[i].Clone(), true
	}
	return entities.JournalEntry{}, false
}

// Tags returns the tag registry in insertion order.
func (s *Store) Tags() []entities.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.Tag, len(s.state.Tags))
	for i, t := range s.state.Tags {
		out[i] = t.Clone()
	}
	return out
}

// Tag returns the tag with the given id.
func (s *Store) Tag(id string) (entities.Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.state.tagIndex(id); i >= 0 {
		return s.state.Tags[i].Clone(), true
	}
	return entities.Tag{}, false
}

// CurrentEntry returns the entry under edit, or nil.
func (s *Store) CurrentEntry() *entities.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.CurrentEntry == nil {
		return nil
	}
	ce := s.state.CurrentEntry.Clone()
	return &ce
}

func (s *Store) SearchFilters() entities.SearchFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SearchFilters.Clone()
}

func (s *Store) Settings() entities.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Settings
}

func (s *Store) CurrentView() entities.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentView
}

func (s *Store) User() *entities.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// Entry mutators

// AddEntry prepends a fully formed entry. The caller owns id generation; a
// missing id, blank content or an id already in the store is rejected.
func (s *Store) AddEntry(entry entities.JournalEntry) error {
	if err := validateEntry(&entry); err != nil {
		return err
	}
	entry = entry.Clone()
	if entry.TagIDs == nil {
		entry.TagIDs = []string{}
	}
	if entry.Attachments == nil {
		entry.Attachments = []entities.Attachment{}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.UpdatedAt.Before(entry.CreatedAt) {
		entry.UpdatedAt = entry.CreatedAt
	}

	return s.commit(Change{Op: OpAdd, Kind: KindEntry, ID: entry.ID}, func(st *State) error {
		if st.entryIndex(entry.ID) >= 0 {
			return fmt.Errorf("add entry %s: %w", entry.ID, entities.ErrDuplicateID)
		}
		st.Entries = append([]entities.JournalEntry{entry}, st.Entries...)
		return nil
	})
}

// UpdateEntry merges patch into the entry and into the current entry when it
// is the one being edited. An unknown id is a logged no-op.
func (s *Store) UpdateEntry(id string, patch entities.EntryPatch) error {
	_, err := s.ModifyEntry(id, func(entities.JournalEntry) (entities.EntryPatch, error) {
		return patch, nil
	})
	return err
}

// ModifyEntry derives a patch from the entry as currently stored and applies
// it within the same commit, so read-modify-write callers never lose a
// concurrent update. It returns the entry after the patch.
func (s *Store) ModifyEntry(id string, fn func(current entities.JournalEntry) (entities.EntryPatch, error)) (entities.JournalEntry, error) {
	var updated entities.JournalEntry
	err := s.commit(Change{Op: OpUpdate, Kind: KindEntry, ID: id}, func(st *State) error {
		i := st.entryIndex(id)
		if i < 0 {
			return entities.ErrEntryNotFound
		}
		patch, err := fn(st.Entries[i].Clone())
		if err != nil {
			return err
		}
		if err := validatePatch(patch); err != nil {
			return err
		}
		patch.Apply(&st.Entries[i])
		if st.CurrentEntry != nil && st.CurrentEntry.ID == id {
			patch.Apply(st.CurrentEntry)
		}
		updated = st.Entries[i].Clone()
		return nil
	})
	if err == entities.ErrEntryNotFound {
		s.logger.LogMissingTarget("update", string(KindEntry), id)
		return entities.JournalEntry{}, fmt.Errorf("update entry %s: %w", id, err)
	}
	if err != nil {
		return entities.JournalEntry{}, err
	}
	return updated, nil
}

// DeleteEntry removes the entry and clears the current entry if it was the
// one deleted. An unknown id is a logged no-op.
func (s *Store) DeleteEntry(id string) error {
	err := s.commit(Change{Op: OpDelete, Kind: KindEntry, ID: id}, func(st *State) error {
		i := st.entryIndex(id)
		if i < 0 {
			return entities.ErrEntryNotFound
		}
		st.Entries = append(st.Entries[:i:i], st.Entries[i+1:]...)
		if st.CurrentEntry != nil && st.CurrentEntry.ID == id {
			st.CurrentEntry = nil
		}
		return nil
	})
	if err == entities.ErrEntryNotFound {
		s.logger.LogMissingTarget("delete", string(KindEntry), id)
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return err
}

// SetCurrentEntry sets or clears the entry under edit.
func (s *Store) SetCurrentEntry(entry *entities.JournalEntry) {
	var id string
	var ce *entities.JournalEntry
	if entry != nil {
		id = entry.ID
		c := entry.Clone()
		ce = &c
	}
	_ = s.commit(Change{Op: OpReplace, Kind: KindCurrent, ID: id}, func(st *State) error {
		st.CurrentEntry = ce
		return nil
	})
}

// SetEntries replaces the whole entry collection, as when loading from the
// remote gateway.
func (s *Store) SetEntries(list []entities.JournalEntry) {
	cloned := make([]entities.JournalEntry, len(list))
	for i, e := range list {
		cloned[i] = e.Clone()
	}
	_ = s.commit(Change{Op: OpReplace, Kind: KindEntries}, func(st *State) error {
		st.Entries = cloned
		return nil
	})
}

// Tag mutators

// AddTag appends a tag to the registry.
func (s *Store) AddTag(tag entities.Tag) error {
	tag = tag.Clone()
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = s.now()
	}

	return s.commit(Change{Op: OpAdd, Kind: KindTag, ID: tag.ID}, func(st *State) error {
		if tag.ID == "" {
			return entities.NewValidationError("id", "is required")
		}
		if st.tagIndex(tag.ID) >= 0 {
			return fmt.Errorf("add tag %s: %w", tag.ID, entities.ErrDuplicateID)
		}
		if err := validateTag(st, &tag); err != nil {
			return err
		}
		st.Tags = append(st.Tags, tag)
		return nil
	})
}

// UpdateTag merges patch into the tag. Entries referencing it are untouched.
func (s *Store) UpdateTag(id string, patch entities.TagPatch) error {
	now := s.now()
	err := s.commit(Change{Op: OpUpdate, Kind: KindTag, ID: id}, func(st *State) error {
		i := st.tagIndex(id)
		if i < 0 {
			return entities.ErrTagNotFound
		}
		updated := st.Tags[i].Clone()
		patch.Apply(&updated, now)
		updated.Name = strings.TrimSpace(updated.Name)
		if err := validateTag(st, &updated); err != nil {
			return err
		}
		if updated.Type != entities.TagTypeFolder && st.hasChildren(id) {
			return entities.NewValidationError("type", "a folder with child tags must stay a folder")
		}
		st.Tags[i] = updated
		return nil
	})
	if err == entities.ErrTagNotFound {
		s.logger.LogMissingTarget("update", string(KindTag), id)
		return fmt.Errorf("update tag %s: %w", id, err)
	}
	return err
}

// DeleteTag removes the tag from the registry. Entries keep the id; readers
// resolve ids against the registry and skip the ones no longer present.
// Child folders are detached to the root.
func (s *Store) DeleteTag(id string) error {
	err := s.commit(Change{Op: OpDelete, Kind: KindTag, ID: id}, func(st *State) error {
		i := st.tagIndex(id)
		if i < 0 {
			return entities.ErrTagNotFound
		}
		st.Tags = append(st.Tags[:i:i], st.Tags[i+1:]...)
		for j := range st.Tags {
			if st.Tags[j].ParentID != nil && *st.Tags[j].ParentID == id {
				st.Tags[j].ParentID = nil
			}
		}
		return nil
	})
	if err == entities.ErrTagNotFound {
		s.logger.LogMissingTarget("delete", string(KindTag), id)
		return fmt.Errorf("delete tag %s: %w", id, err)
	}
	return err
}

// SetTags replaces the tag registry.
func (s *Store) SetTags(list []entities.Tag) {
	cloned := make([]entities.Tag, len(list))
	for i, t := range list {
		cloned[i] = t.Clone()
	}
	_ = s.commit(Change{Op: OpReplace, Kind: KindTags}, func(st *State) error {
		st.Tags = cloned
		return nil
	})
}

// UI and settings mutators

// SetSearchFilters replaces the filters wholesale. Callers wanting a partial
// change must merge with SearchFilters() themselves.
func (s *Store) SetSearchFilters(filters entities.SearchFilters) {
	f := filters.Clone()
	_ = s.commit(Change{Op: OpReplace, Kind: KindFilters}, func(st *State) error {
		st.SearchFilters = f
		return nil
	})
}

func (s *Store) SetCurrentView(view entities.View) error {
	if !view.Valid() {
		return entities.NewValidationError("view", fmt.Sprintf("unknown view %q", view))
	}
	return s.commit(Change{Op: OpReplace, Kind: KindView, ID: string(view)}, func(st *State) error {
		st.CurrentView = view
		return nil
	})
}

// UpdateSettings merges patch into the settings. A theme change is mirrored
// into the top-level theme.
func (s *Store) UpdateSettings(patch entities.SettingsPatch) error {
	if patch.Theme != nil && !patch.Theme.Valid() {
		return entities.NewValidationError("theme", fmt.Sprintf("unknown theme %q", *patch.Theme))
	}
	return s.commit(Change{Op: OpUpdate, Kind: KindSettings}, func(st *State) error {
		patch.Apply(&st.Settings)
		if patch.Theme != nil {
			st.Theme = *patch.Theme
		}
		return nil
	})
}

func (s *Store) SetTheme(theme entities.Theme) error {
	if !theme.Valid() {
		return entities.NewValidationError("theme", fmt.Sprintf("unknown theme %q", theme))
	}
	return s.commit(Change{Op: OpReplace, Kind: KindSettings, ID: string(theme)}, func(st *State) error {
		st.Theme = theme
		st.Settings.Theme = theme
		return nil
	})
}

func (s *Store) SetSidebarOpen(open bool) {
	_ = s.commit(Change{Op: OpReplace, Kind: KindUI}, func(st *State) error {
		st.SidebarOpen = open
		return nil
	})
}

func (s *Store) SetUser(user *entities.User) {
	var u *entities.User
	var id string
	if user != nil {
		c := *user
		u = &c
		id = user.ID
	}
	_ = s.commit(Change{Op: OpReplace, Kind: KindUser, ID: id}, func(st *State) error {
		st.User = u
		return nil
	})
}

func (s *Store) SetLoading(loading bool) {
	_ = s.commit(Change{Op: OpReplace, Kind: KindSession}, func(st *State) error {
		st.IsLoading = loading
		return nil
	})
}

// ResetState restores every field to its default.
func (s *Store) ResetState() {
	_ = s.commit(Change{Op: OpReset, Kind: KindAll}, func(st *State) error {
		*st = DefaultState()
		return nil
	})
}

func validatePatch(patch entities.EntryPatch) error {
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return entities.NewValidationError("content", "must not be empty")
	}
	if patch.Mood != nil && !patch.Mood.Valid() {
		return entities.NewValidationError("mood", fmt.Sprintf("unknown mood %q", *patch.Mood))
	}
	return nil
}

func validateEntry(e *entities.JournalEntry) error {
	if strings.TrimSpace(e.ID) == "" {
		return entities.NewValidationError("id", "is required")
	}
	if strings.TrimSpace(e.Content) == "" {
		return entities.NewValidationError("content", "must not be empty")
	}
	if e.Mood != nil && !e.Mood.Valid() {
		return entities.NewValidationError("mood", fmt.Sprintf("unknown mood %q", *e.Mood))
	}
	return nil
}

// validateTag checks tag against the registry in st. A parent must exist, be
// a folder, and must not lead back to the tag itself.
func validateTag(st *State, tag *entities.Tag) error {
	if tag.Name == "" {
		return entities.NewValidationError("name", "must not be empty")
	}
	if !tag.Type.Valid() {
		return entities.NewValidationError("type", fmt.Sprintf("unknown tag type %q", tag.Type))
	}
	if tag.ParentID != nil && *tag.ParentID == "" {
		tag.ParentID = nil
	}
	if tag.ParentID == nil {
		return nil
	}
	if tag.Type != entities.TagTypeFolder {
		return entities.NewValidationError("parentId", "only folders can be nested")
	}

	seen := map[string]bool{tag.ID: true}
	parentID := *tag.ParentID
	for parentID != "" {
		if seen[parentID] {
			return &entities.ValidationError{Field: "parentId", Message: "would create a cycle", Err: entities.ErrTagCycle}
		}
		seen[parentID] = true

		i := st.tagIndex(parentID)
		if i < 0 {
			return entities.NewValidationError("parentId", fmt.Sprintf("parent tag %s does not exist", parentID))
		}
		parent := st.Tags[i]
		if parent.Type != entities.TagTypeFolder {
			return entities.NewValidationError("parentId", "parent must be a folder")
		}
		if parent.ParentID == nil {
			break
		}
		parentID = *parent.ParentID
	}
	return nil
}
