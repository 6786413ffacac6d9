package query

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/journify/core/internal/domain/entities"
)

const mostUsedTagsLimit = 5

// TagUsage pairs a registry tag with the number of entries referencing it.
type TagUsage struct {
	Tag   entities.Tag `json:"tag"`
	Count int          `json:"count"`
}

// Stats aggregates the journal for the stats view.
type Stats struct {
	TotalEntries         int                   `json:"totalEntries"`
	TotalWords           int                   `json:"totalWords"`
	AverageWordsPerEntry int                   `json:"averageWordsPerEntry"`
	CurrentStreak        int                   `json:"currentStreak"`
	MoodDistribution     map[entities.Mood]int `json:"moodDistribution"`
	MostUsedTags         []TagUsage            `json:"mostUsedTags"`
	HighlightedEntries   int                   `json:"highlightedEntries"`
}

// ComputeStats derives the aggregate statistics. Calendar days are taken in
// now's location.
func ComputeStats(entries []entities.JournalEntry, tags []entities.Tag, now time.Time) Stats {
	stats := Stats{
		TotalEntries:     len(entries),
		MoodDistribution: make(map[entities.Mood]int),
		MostUsedTags:     []TagUsage{},
	}

	for i := range entries {
		stats.TotalWords += WordCount(entries[i].Content)
		if entries[i].Mood != nil {
			stats.MoodDistribution[*entries[i].Mood]++
		}
		if entries[i].IsHighlight {
			stats.HighlightedEntries++
		}
	}

	if stats.TotalEntries > 0 {
		stats.AverageWordsPerEntry = int(math.Round(float64(stats.TotalWords) / float64(stats.TotalEntries)))
	}

	stats.CurrentStreak = CurrentStreak(entries, now)
	stats.MostUsedTags = MostUsedTags(entries, tags, mostUsedTagsLimit)

	return stats
}

// WordCount counts whitespace-separated runs.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// CurrentStreak counts consecutive calendar days with at least one entry,
// walking back from the most recent day. The walk only starts when that day
// is today or yesterday. Entries with a zero timestamp or dated after today
// are ignored.
func CurrentStreak(entries []entities.JournalEntry, now time.Time) int {
	loc := now.Location()
	today := dayNumber(now, loc)

	seen := make(map[int64]bool)
	days := make([]int64, 0, len(entries))
	for i := range entries {
		ts := entries[i].CreatedAt
		if ts.IsZero() {
			continue
		}
		d := dayNumber(ts, loc)
		if d > today || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })

	if today-days[0] > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] != 1 {
			break
		}
		streak++
	}
	return streak
}

// MostUsedTags counts entries per registry tag and returns the top limit in
// descending order. Ties keep registry order; tags nobody references and ids
// missing from the registry are left out.
func MostUsedTags(entries []entities.JournalEntry, tags []entities.Tag, limit int) []TagUsage {
	counts := tagCounts(entries)

	usage := make([]TagUsage, 0, len(tags))
	for _, t := range tags {
		if n := counts[t.ID]; n > 0 {
			usage = append(usage, TagUsage{Tag: t.Clone(), Count: n})
		}
	}

	sort.SliceStable(usage, func(i, j int) bool { return usage[i].Count > usage[j].Count })

	if limit > 0 && len(usage) > limit {
		usage = usage[:limit]
	}
	return usage
}

// tagCounts counts each tag once per referencing entry.
func tagCounts(entries []entities.JournalEntry) map[string]int {
	counts := make(map[string]int)
	for i := range entries {
		seen := make(map[string]bool, len(entries[i].TagIDs))
		for _, id := range entries[i].TagIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			counts[id]++
		}
	}
	return counts
}

// dayNumber maps t to an integer calendar day in loc, so that consecutive
// local dates differ by exactly one regardless of DST.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
