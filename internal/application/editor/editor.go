// Package editor drives the entry editing flow on top of the store.
//
// The draft lives in the store's current-entry slot, so every view sees the
// entry under edit. The editor state is derived from that slot: no current
// entry means Viewing, a current entry whose id is already in the store means
// EditingExisting, anything else is EditingNew. Draft ids are generated once
// in New and never change.
package editor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
)

// ErrNotEditing is returned by draft operations while no entry is under edit.
var ErrNotEditing = errors.New("no entry under edit")

type State string

const (
	Viewing         State = "viewing"
	EditingNew      State = "editing_new"
	EditingExisting State = "editing_existing"
)

// Editor serializes editing operations against a store.
type Editor struct {
	mu     sync.Mutex
	store  *store.Store
	logger *logger.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Editor)

func WithClock(now func() time.Time) Option {
	return func(e *Editor) { e.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) { e.newID = fn }
}

func New(st *store.Store, log *logger.Logger, opts ...Option) *Editor {
	e := &Editor{
		store:  st,
		logger: log.WithComponent("editor"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current editor state.
func (e *Editor) State() State {
	return e.stateOf(e.store.CurrentEntry())
}

func (e *Editor) stateOf(current *entities.JournalEntry) State {
	if current == nil {
		return Viewing
	}
	if _, ok := e.store.Entry(current.ID); ok {
		return EditingExisting
	}
	return EditingNew
}

// Draft returns the entry under edit, or nil while viewing.
func (e *Editor) Draft() *entities.JournalEntry {
	return e.store.CurrentEntry()
}

// New opens a blank draft for userID. Any draft in progress is discarded.
func (e *Editor) New(userID string) entities.JournalEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	draft := entities.JournalEntry{
		ID:          e.newID(),
		UserID:      userID,
		TagIDs:      []string{},
		Attachments: []entities.Attachment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.store.SetCurrentEntry(&draft)
	return draft
}

// Edit opens an existing entry for editing.
func (e *Editor) Edit(id string) (entities.JournalEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.store.Entry(id)
	if !ok {
		e.logger.LogMissingTarget("edit", "entry", id)
		return entities.JournalEntry{}, fmt.Errorf("edit entry %s: %w", id, entities.ErrEntryNotFound)
	}
	e.store.SetCurrentEntry(&entry)
	return entry, nil
}

// Change applies patch to the draft only. The stored entry is untouched until
// Save.
func (e *Editor) Change(patch entities.EntryPatch) (entities.JournalEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.store.CurrentEntry()
	if draft == nil {
		return entities.JournalEntry{}, ErrNotEditing
	}
	if patch.Mood != nil && !patch.Mood.Valid() {
		return entities.JournalEntry{}, entities.NewValidationError("mood", fmt.Sprintf("unknown mood %q", *patch.Mood))
	}
	patch.UpdatedAt = nil
	patch.Apply(draft)
	e.store.SetCurrentEntry(draft)
	return *draft, nil
}

// ToggleHighlight flips the draft's highlight flag.
func (e *Editor) ToggleHighlight() (entities.JournalEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.store.CurrentEntry()
	if draft == nil {
		return entities.JournalEntry{}, ErrNotEditing
	}
	draft.IsHighlight = !draft.IsHighlight
	e.store.SetCurrentEntry(draft)
	return *draft, nil
}

// AddInlineTag attaches a hashtag named name to the draft, creating it in the
// registry unless a hashtag with that name already exists.
func (e *Editor) AddInlineTag(name string) (entities.Tag, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.store.CurrentEntry()
	if draft == nil {
		return entities.Tag{}, ErrNotEditing
	}

	name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#"))
	if name == "" {
		return entities.Tag{}, entities.NewValidationError("name", "must not be empty")
	}

	tag, found := e.findHashtag(name)
	if !found {
		color := entities.TagTypeHashtag.DefaultColor()
		tag = entities.Tag{
			ID:        e.newID(),
			Name:      name,
			Type:      entities.TagTypeHashtag,
			Color:     &color,
			UserID:    draft.UserID,
			CreatedAt: e.now(),
		}
		if err := e.store.AddTag(tag); err != nil {
			return entities.Tag{}, err
		}
	}

	if !draft.HasTag(tag.ID) {
		draft.TagIDs = append(draft.TagIDs, tag.ID)
		e.store.SetCurrentEntry(draft)
	}
	return tag, nil
}

func (e *Editor) findHashtag(name string) (entities.Tag, bool) {
	for _, t := range e.store.Tags() {
		if t.Type == entities.TagTypeHashtag && strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return entities.Tag{}, false
}

// Save commits the draft and returns to Viewing. Blank content is a
// ValidationError and leaves the draft in place.
func (e *Editor) Save() (entities.JournalEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.store.CurrentEntry()
	if draft == nil {
		return entities.JournalEntry{}, ErrNotEditing
	}

	content := strings.TrimSpace(draft.Content)
	if content == "" {
		return entities.JournalEntry{}, entities.NewValidationError("content", "must not be empty")
	}

	var title *string
	if draft.Title != nil {
		if t := strings.TrimSpace(*draft.Title); t != "" {
			title = &t
		}
	}

	now := e.now()
	entry := draft.Clone()
	entry.Title = title
	entry.Content = content
	entry.UpdatedAt = now

	switch e.stateOf(draft) {
	case EditingExisting:
		patch := entities.EntryPatch{
			Title:       title,
			ClearTitle:  title == nil,
			Content:     &content,
			Mood:        entry.Mood,
			ClearMood:   entry.Mood == nil,
			TagIDs:      &entry.TagIDs,
			IsHighlight: &entry.IsHighlight,
			Attachments: &entry.Attachments,
			UpdatedAt:   &now,
		}
		if err := e.store.UpdateEntry(entry.ID, patch); err != nil {
			return entities.JournalEntry{}, err
		}
		if saved, ok := e.store.Entry(entry.ID); ok {
			entry = saved
		}
	default:
		if err := e.store.AddEntry(entry); err != nil {
			return entities.JournalEntry{}, err
		}
	}

	e.store.SetCurrentEntry(nil)
	return entry, nil
}

// Cancel discards the draft without touching any entry.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.SetCurrentEntry(nil)
}
