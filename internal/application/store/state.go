package store

import (
	"github.com/journify/core/internal/domain/entities"
)

// State is the full content of the store. Values handed to callers are deep
// copies and may be modified freely.
type State struct {
	User          *entities.User          `json:"user"`
	Entries       []entities.JournalEntry `json:"entries"`
	Tags          []entities.Tag          `json:"tags"`
	CurrentEntry  *entities.JournalEntry  `json:"currentEntry"`
	CurrentView   entities.View           `json:"currentView"`
	SearchFilters entities.SearchFilters  `json:"searchFilters"`
	Settings      entities.AppSettings    `json:"settings"`
	Theme         entities.Theme          `json:"theme"`
	SidebarOpen   bool                    `json:"sidebarOpen"`
	IsLoading     bool                    `json:"isLoading"`
}

// DefaultState is the state of a fresh journal.
func DefaultState() State {
	return State{
		Entries:     []entities.JournalEntry{},
		Tags:        []entities.Tag{},
		CurrentView: entities.ViewTimeline,
		Settings:    entities.DefaultSettings(),
		Theme:       entities.ThemeSystem,
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Entries = make([]entities.JournalEntry, len(s.Entries))
	for i, e := range s.Entries {
		out.Entries[i] = e.Clone()
	}
	out.Tags = make([]entities.Tag, len(s.Tags))
	for i, t := range s.Tags {
		out.Tags[i] = t.Clone()
	}
	if s.CurrentEntry != nil {
		ce := s.CurrentEntry.Clone()
		out.CurrentEntry = &ce
	}
	out.SearchFilters = s.SearchFilters.Clone()
	return out
}

func (s *State) entryIndex(id string) int {
	for i := range s.Entries {
		if s.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) tagIndex(id string) int {
	for i := range s.Tags {
		if s.Tags[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) hasChildren(id string) bool {
	for i := range s.Tags {
		if s.Tags[i].ParentID != nil && *s.Tags[i].ParentID == id {
			return true
		}
	}
	return false
}

// ChangeOp names the kind of mutation that produced a change notification.
type ChangeOp string

const (
	OpAdd     ChangeOp = "add"
	OpUpdate  ChangeOp = "update"
	OpDelete  ChangeOp = "delete"
	OpReplace ChangeOp = "replace"
	OpReset   ChangeOp = "reset"
)

// ChangeKind names the slice of state a mutation touched.
type ChangeKind string

const (
	KindEntry    ChangeKind = "entry"
	KindEntries  ChangeKind = "entries"
	KindTag      ChangeKind = "tag"
	KindTags     ChangeKind = "tags"
	KindCurrent  ChangeKind = "current_entry"
	KindView     ChangeKind = "view"
	KindFilters  ChangeKind = "filters"
	KindSettings ChangeKind = "settings"
	KindUI       ChangeKind = "ui"
	KindUser     ChangeKind = "user"
	KindSession  ChangeKind = "session"
	KindAll      ChangeKind = "all"
)

// Change describes one committed mutation.
type Change struct {
	Op   ChangeOp
	Kind ChangeKind
	ID   string
}

// Listener is called synchronously after every committed mutation. Listeners
// must not call store mutators themselves.
type Listener func(State, Change)
