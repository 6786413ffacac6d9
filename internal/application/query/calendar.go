package query

import (
	"sort"
	"strings"
	"time"

	"github.com/journify/core/internal/domain/entities"
)

const dayLayout = "2006-01-02"

const previewLength = 80

// DaySummary aggregates the entries of one calendar day.
type DaySummary struct {
	Date         string          `json:"date"`
	Count        int             `json:"count"`
	Preview      string          `json:"preview"`
	HasHighlight bool            `json:"hasHighlight"`
	Moods        []entities.Mood `json:"moods"`
}

// DayKey formats t as a calendar date in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// ParseDay parses a YYYY-MM-DD date at midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayLayout, s, loc)
}

// EntriesForDay returns the entries created on day's calendar date, newest
// first.
func EntriesForDay(entries []entities.JournalEntry, day time.Time) []entities.JournalEntry {
	loc := day.Location()
	key := DayKey(day, loc)

	out := make([]entities.JournalEntry, 0)
	for i := range entries {
		if entries[i].CreatedAt.IsZero() {
			continue
		}
		if DayKey(entries[i].CreatedAt, loc) == key {
			out = append(out, entries[i].Clone())
		}
	}
	return SortNewestFirst(out)
}

// GroupByDay summarizes entries per calendar day in loc, most recent day
// first.
func GroupByDay(entries []entities.JournalEntry, loc *time.Location) []DaySummary {
	sorted := SortNewestFirst(entries)

	index := make(map[string]int)
	out := make([]DaySummary, 0)
	for i := range sorted {
		e := &sorted[i]
		if e.CreatedAt.IsZero() {
			continue
		}
		key := DayKey(e.CreatedAt, loc)
		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			out = append(out, DaySummary{Date: key, Preview: preview(e.Content), Moods: []entities.Mood{}})
		}
		day := &out[pos]
		day.Count++
		if e.IsHighlight {
			day.HasHighlight = true
		}
		if e.Mood != nil && !containsMood(day.Moods, *e.Mood) {
			day.Moods = append(day.Moods, *e.Mood)
		}
	}
	return out
}

// SortNewestFirst returns a copy ordered by createdAt descending. Equal
// timestamps keep their input order.
func SortNewestFirst(entries []entities.JournalEntry) []entities.JournalEntry {
	out := make([]entities.JournalEntry, len(entries))
	for i := range entries {
		out[i] = entries[i].Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func preview(content string) string {
	line := strings.Join(strings.Fields(content), " ")
	runes := []rune(line)
	if len(runes) <= previewLength {
		return line
	}
	return string(runes[:previewLength-3]) + "..."
}
