package query

import (
	"github.com/journify/core/internal/domain/entities"
)

func HighlightedEntries(entries []entities.JournalEntry) []entities.JournalEntry {
	highlight := true
	return FilteredEntries(entries, entities.SearchFilters{IsHighlight: &highlight})
}

func EntriesByMood(entries []entities.JournalEntry, mood entities.Mood) []entities.JournalEntry {
	return FilteredEntries(entries, entities.SearchFilters{Mood: []entities.Mood{mood}})
}

func EntriesByTag(entries []entities.JournalEntry, tagID string) []entities.JournalEntry {
	return FilteredEntries(entries, entities.SearchFilters{Tags: []string{tagID}})
}

// ResolveTags maps the entry's tag ids onto the registry, in entry order.
// Ids with no registry tag are skipped.
func ResolveTags(entry entities.JournalEntry, registry []entities.Tag) []entities.Tag {
	byID := make(map[string]int, len(registry))
	for i, t := range registry {
		byID[t.ID] = i
	}
	out := make([]entities.Tag, 0, len(entry.TagIDs))
	for _, id := range entry.TagIDs {
		if i, ok := byID[id]; ok {
			out = append(out, registry[i].Clone())
		}
	}
	return out
}

func TagsByType(tags []entities.Tag, typ entities.TagType) []entities.Tag {
	out := make([]entities.Tag, 0)
	for _, t := range tags {
		if t.Type == typ {
			out = append(out, t.Clone())
		}
	}
	return out
}

// ChildTags returns the direct children of parentID. An empty parentID
// selects the root tags.
func ChildTags(tags []entities.Tag, parentID string) []entities.Tag {
	out := make([]entities.Tag, 0)
	for _, t := range tags {
		switch {
		case parentID == "" && t.ParentID == nil:
			out = append(out, t.Clone())
		case parentID != "" && t.ParentID != nil && *t.ParentID == parentID:
			out = append(out, t.Clone())
		}
	}
	return out
}

// WithUsageCounts returns copies of tags with UsageCount recomputed from
// entries.
func WithUsageCounts(tags []entities.Tag, entries []entities.JournalEntry) []entities.Tag {
	counts := tagCounts(entries)
	out := make([]entities.Tag, len(tags))
	for i, t := range tags {
		out[i] = t.Clone()
		n := counts[t.ID]
		out[i].UsageCount = &n
	}
	return out
}

// EntryView is an entry with its tags resolved against the registry.
type EntryView struct {
	entities.JournalEntry
	Tags []entities.Tag `json:"tags"`
}

// ResolveEntries resolves tags for every entry.
func ResolveEntries(entries []entities.JournalEntry, registry []entities.Tag) []EntryView {
	out := make([]EntryView, len(entries))
	for i := range entries {
		out[i] = EntryView{JournalEntry: entries[i].Clone(), Tags: ResolveTags(entries[i], registry)}
	}
	return out
}
