package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/journify/core/internal/application/query"
	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
	"github.com/journify/core/internal/ports"
)

// EntryService handles entry operations that bypass the editor, and the read
// views built on the query layer.
type EntryService struct {
	store    *store.Store
	logger   *logger.Logger
	location *time.Location
	now      func() time.Time
}

// NewEntryService creates a new entry service
func NewEntryService(st *store.Store, loc *time.Location, logger *logger.Logger) *EntryService {
	if loc == nil {
		loc = time.Local
	}
	return &EntryService{
		store:    st,
		logger:   logger.WithComponent("entry_service"),
		location: loc,
		now:      time.Now,
	}
}

// Now returns the current time in the journal's timezone.
func (s *EntryService) Now() time.Time {
	return s.now().In(s.location)
}

func (s *EntryService) Location() *time.Location {
	return s.location
}

// CreateEntry materializes a new entry, assigning its id here.
func (s *EntryService) CreateEntry(userID string, req ports.CreateEntryRequest) (entities.JournalEntry, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return entities.JournalEntry{}, entities.NewValidationError("content", "must not be empty")
	}

	var title *string
	if req.Title != nil {
		if t := strings.TrimSpace(*req.Title); t != "" {
			title = &t
		}
	}

	now := s.now()
	tagIDs := req.TagIDs
	if tagIDs == nil {
		tagIDs = []string{}
	}
	entry := entities.JournalEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Content:     content,
		Mood:        req.Mood,
		TagIDs:      tagIDs,
		IsHighlight: req.IsHighlight,
		Attachments: []entities.Attachment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.AddEntry(entry); err != nil {
		return entities.JournalEntry{}, fmt.Errorf("failed to create entry: %w", err)
	}

	s.logger.Infow("Entry created successfully", "entry_id", entry.ID)
	return entry, nil
}

// GetEntry returns one entry with its tags resolved.
func (s *EntryService) GetEntry(id string) (query.EntryView, error) {
	entry, ok := s.store.Entry(id)
	if !ok {
		return query.EntryView{}, fmt.Errorf("get entry %s: %w", id, entities.ErrEntryNotFound)
	}
	return query.EntryView{JournalEntry: entry, Tags: query.ResolveTags(entry, s.store.Tags())}, nil
}

// UpdateEntry merges req into the entry.
func (s *EntryService) UpdateEntry(id string, req ports.UpdateEntryRequest) (entities.JournalEntry, error) {
	if req.Content != nil {
		trimmed := strings.TrimSpace(*req.Content)
		req.Content = &trimmed
	}
	if err := s.store.UpdateEntry(id, req.Patch(s.now())); err != nil {
		return entities.JournalEntry{}, err
	}
	entry, _ := s.store.Entry(id)
	return entry, nil
}

func (s *EntryService) DeleteEntry(id string) error {
	if err := s.store.DeleteEntry(id); err != nil {
		return err
	}
	s.logger.Infow("Entry deleted successfully", "entry_id", id)
	return nil
}

// ToggleHighlight flips the entry's highlight flag.
func (s *EntryService) ToggleHighlight(id string) (entities.JournalEntry, error) {
	now := s.now()
	entry, err := s.store.ModifyEntry(id, func(current entities.JournalEntry) (entities.EntryPatch, error) {
		highlight := !current.IsHighlight
		return entities.EntryPatch{IsHighlight: &highlight, UpdatedAt: &now}, nil
	})
	if err != nil {
		return entities.JournalEntry{}, fmt.Errorf("toggle highlight %s: %w", id, err)
	}
	return entry, nil
}

// ListEntries applies the store's current search filters.
func (s *EntryService) ListEntries() []query.EntryView {
	st := s.store.State()
	return query.ResolveEntries(query.FilteredEntries(st.Entries, st.SearchFilters), st.Tags)
}

// SearchEntries applies the given filters without touching the stored ones.
func (s *EntryService) SearchEntries(filters entities.SearchFilters) []query.EntryView {
	st := s.store.State()
	return query.ResolveEntries(query.FilteredEntries(st.Entries, filters), st.Tags)
}

func (s *EntryService) HighlightedEntries() []query.EntryView {
	st := s.store.State()
	return query.ResolveEntries(query.HighlightedEntries(st.Entries), st.Tags)
}

func (s *EntryService) EntriesByMood(mood entities.Mood) []query.EntryView {
	st := s.store.State()
	return query.ResolveEntries(query.EntriesByMood(st.Entries, mood), st.Tags)
}

func (s *EntryService) EntriesByTag(tagID string) []query.EntryView {
	st := s.store.State()
	return query.ResolveEntries(query.EntriesByTag(st.Entries, tagID), st.Tags)
}

// EntriesForDay returns entries created on the given YYYY-MM-DD date.
func (s *EntryService) EntriesForDay(date string) ([]query.EntryView, error) {
	day, err := query.ParseDay(date, s.location)
	if err != nil {
		return nil, entities.NewValidationError("date", "must be formatted as YYYY-MM-DD")
	}
	st := s.store.State()
	return query.ResolveEntries(query.EntriesForDay(st.Entries, day), st.Tags), nil
}

func (s *EntryService) CalendarDays() []query.DaySummary {
	return query.GroupByDay(s.store.Entries(), s.location)
}

// Stats computes the stats view as of now.
func (s *EntryService) Stats() query.Stats {
	st := s.store.State()
	return query.ComputeStats(st.Entries, st.Tags, s.Now())
}
