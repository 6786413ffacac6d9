// Package query computes read-only views over journal state. Every function
// here is pure: inputs are never modified and results are fresh copies.
package query

import (
	"strings"

	"github.com/journify/core/internal/domain/entities"
)

// FilteredEntries returns the entries matching every set dimension of f, in
// input order. Within the mood and tag dimensions any member matches.
func FilteredEntries(entries []entities.JournalEntry, f entities.SearchFilters) []entities.JournalEntry {
	term := ""
	if f.SearchTerm != nil {
		term = strings.ToLower(*f.SearchTerm)
	}

	out := make([]entities.JournalEntry, 0, len(entries))
	for i := range entries {
		if matches(&entries[i], &f, term) {
			out = append(out, entries[i].Clone())
		}
	}
	return out
}

// Matches reports whether a single entry passes f.
func Matches(e entities.JournalEntry, f entities.SearchFilters) bool {
	term := ""
	if f.SearchTerm != nil {
		term = strings.ToLower(*f.SearchTerm)
	}
	return matches(&e, &f, term)
}

func matches(e *entities.JournalEntry, f *entities.SearchFilters, term string) bool {
	if term != "" {
		title := ""
		if e.Title != nil {
			title = strings.ToLower(*e.Title)
		}
		if !strings.Contains(title, term) && !strings.Contains(strings.ToLower(e.Content), term) {
			return false
		}
	}

	if len(f.Mood) > 0 {
		if e.Mood == nil || !containsMood(f.Mood, *e.Mood) {
			return false
		}
	}

	if len(f.Tags) > 0 {
		hit := false
		for _, id := range f.Tags {
			if e.HasTag(id) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if f.IsHighlight != nil && e.IsHighlight != *f.IsHighlight {
		return false
	}

	if f.DateRange != nil {
		if !f.DateRange.Start.IsZero() && e.CreatedAt.Before(f.DateRange.Start) {
			return false
		}
		if !f.DateRange.End.IsZero() && e.CreatedAt.After(f.DateRange.End) {
			return false
		}
	}

	return true
}

func containsMood(set []entities.Mood, m entities.Mood) bool {
	for _, v := range set {
		if v == m {
			return true
		}
	}
	return false
}
