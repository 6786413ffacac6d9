package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journify/core/internal/domain/entities"
)

var (
	d1  = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	day = 24 * time.Hour
)

func ptr[T any](v T) *T { return &v }

func sampleEntries() []entities.JournalEntry {
	return []entities.JournalEntry{
		{ID: "3", Title: ptr("Coffee"), Content: "Met Sarah at the cafe", Mood: ptr(entities.MoodCalm), TagIDs: []string{"t2"}, CreatedAt: d1},
		{ID: "2", Content: "Shipped the release", Mood: ptr(entities.MoodExcited), TagIDs: []string{"t1", "t2"}, IsHighlight: true, CreatedAt: d1.Add(-day)},
		{ID: "1", Content: "hello world", Mood: ptr(entities.MoodHappy), TagIDs: []string{}, CreatedAt: d1.Add(-2 * day)},
		{ID: "0", Content: "no mood here", CreatedAt: d1.Add(-5 * day)},
	}
}

func ids(entries []entities.JournalEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestFilteredEntries_EmptyFiltersIsIdentity(t *testing.T) {
	entries := sampleEntries()
	assert.Equal(t, entries, FilteredEntries(entries, entities.SearchFilters{}))
	assert.Equal(t, entries, FilteredEntries(entries, entities.SearchFilters{SearchTerm: ptr("")}))
}

func TestFilteredEntries_Idempotent(t *testing.T) {
	entries := sampleEntries()
	filters := []entities.SearchFilters{
		{SearchTerm: ptr("the")},
		{Mood: []entities.Mood{entities.MoodCalm, entities.MoodExcited}},
		{Tags: []string{"t2"}, IsHighlight: ptr(false)},
		{DateRange: &entities.DateRange{Start: d1.Add(-day), End: d1}},
	}
	for _, f := range filters {
		once := FilteredEntries(entries, f)
		assert.Equal(t, once, FilteredEntries(once, f))
	}
}

func TestFilteredEntries_SearchTerm(t *testing.T) {
	entries := []entities.JournalEntry{
		{ID: "1", Content: "hello world", Mood: ptr(entities.MoodHappy), TagIDs: []string{}, CreatedAt: d1},
	}

	assert.Equal(t, []string{"1"}, ids(FilteredEntries(entries, entities.SearchFilters{SearchTerm: ptr("world")})))
	assert.Empty(t, FilteredEntries(entries, entities.SearchFilters{SearchTerm: ptr("xyz")}))
}

func TestFilteredEntries_SearchMatchesTitleCaseInsensitive(t *testing.T) {
	got := FilteredEntries(sampleEntries(), entities.SearchFilters{SearchTerm: ptr("COFFEE")})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestFilteredEntries_Mood(t *testing.T) {
	got := FilteredEntries(sampleEntries(), entities.SearchFilters{Mood: []entities.Mood{entities.MoodHappy, entities.MoodCalm}})
	assert.Equal(t, []string{"3", "1"}, ids(got))

	got = FilteredEntries(sampleEntries(), entities.SearchFilters{Mood: []entities.Mood{entities.MoodSad}})
	assert.Empty(t, got)
}

func TestFilteredEntries_Tags(t *testing.T) {
	got := FilteredEntries(sampleEntries(), entities.SearchFilters{Tags: []string{"t1", "missing"}})
	assert.Equal(t, []string{"2"}, ids(got))

	got = FilteredEntries(sampleEntries(), entities.SearchFilters{Tags: []string{"t2"}})
	assert.Equal(t, []string{"3", "2"}, ids(got))
}

func TestFilteredEntries_HighlightAndDateRange(t *testing.T) {
	got := FilteredEntries(sampleEntries(), entities.SearchFilters{IsHighlight: ptr(true)})
	assert.Equal(t, []string{"2"}, ids(got))

	got = FilteredEntries(sampleEntries(), entities.SearchFilters{IsHighlight: ptr(false)})
	assert.Equal(t, []string{"3", "1", "0"}, ids(got))

	got = FilteredEntries(sampleEntries(), entities.SearchFilters{DateRange: &entities.DateRange{Start: d1.Add(-2 * day), End: d1.Add(-day)}})
	assert.Equal(t, []string{"2", "1"}, ids(got))
}

func TestFilteredEntries_DoesNotMutateInput(t *testing.T) {
	entries := sampleEntries()
	got := FilteredEntries(entries, entities.SearchFilters{})
	got[0].TagIDs[0] = "changed"
	got[0].Content = "changed"

	assert.Equal(t, "t2", entries[0].TagIDs[0])
	assert.Equal(t, "Met Sarah at the cafe", entries[0].Content)
}

func TestComputeStats_Words(t *testing.T) {
	stats := ComputeStats([]entities.JournalEntry{{ID: "1", Content: "one two three", CreatedAt: d1}}, nil, d1)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 3, stats.TotalWords)
	assert.Equal(t, 3, stats.AverageWordsPerEntry)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil, nil, d1)
	assert.Equal(t, 0, stats.TotalEntries)
	assert.Equal(t, 0, stats.AverageWordsPerEntry)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Empty(t, stats.MoodDistribution)
	assert.NotNil(t, stats.MostUsedTags)
}

func TestComputeStats_Aggregates(t *testing.T) {
	tags := []entities.Tag{{ID: "t1", Name: "Work"}, {ID: "t2", Name: "Friends"}}
	stats := ComputeStats(sampleEntries(), tags, d1)

	assert.Equal(t, 4, stats.TotalEntries)
	assert.Equal(t, 1, stats.HighlightedEntries)
	assert.Equal(t, map[entities.Mood]int{
		entities.MoodCalm:    1,
		entities.MoodExcited: 1,
		entities.MoodHappy:   1,
	}, stats.MoodDistribution)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 13, stats.TotalWords)
	assert.Equal(t, 3, stats.AverageWordsPerEntry)
}

func TestComputeStats_AverageRounds(t *testing.T) {
	entries := []entities.JournalEntry{
		{ID: "a", Content: "one two", CreatedAt: d1},
		{ID: "b", Content: "one two three", CreatedAt: d1},
	}
	assert.Equal(t, 3, ComputeStats(entries, nil, d1).AverageWordsPerEntry)
}

func TestHighlightToggleRaisesCount(t *testing.T) {
	entries := sampleEntries()
	before := ComputeStats(entries, nil, d1).HighlightedEntries

	entries[0].IsHighlight = true
	assert.Equal(t, before+1, ComputeStats(entries, nil, d1).HighlightedEntries)
}

func TestCurrentStreak(t *testing.T) {
	today := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		created []time.Time
		want    int
	}{
		{"no entries", nil, 0},
		{"today and yesterday", []time.Time{today, today.Add(-day)}, 2},
		{"gap stops the walk", []time.Time{today, today.Add(-day), today.Add(-4 * day)}, 2},
		{"starts yesterday", []time.Time{today.Add(-day), today.Add(-2 * day)}, 2},
		{"latest too old", []time.Time{today.Add(-2 * day), today.Add(-3 * day)}, 0},
		{"same day counted once", []time.Time{today, today.Add(-time.Hour), today.Add(-day)}, 2},
		{"zero time ignored", []time.Time{today, {}}, 1},
		{"future ignored", []time.Time{today.Add(3 * day), today}, 1},
		{"late evening and early morning", []time.Time{
			time.Date(2024, 3, 10, 0, 5, 0, 0, time.UTC),
			time.Date(2024, 3, 9, 23, 55, 0, 0, time.UTC),
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]entities.JournalEntry, len(tt.created))
			for i, c := range tt.created {
				entries[i] = entities.JournalEntry{ID: string(rune('a' + i)), CreatedAt: c}
			}
			assert.Equal(t, tt.want, CurrentStreak(entries, today))
		})
	}
}

func TestCurrentStreak_UsesLocalCalendarDays(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, loc)

	// 23:30 UTC on the 8th is already the 9th in loc.
	entries := []entities.JournalEntry{
		{ID: "a", CreatedAt: now},
		{ID: "b", CreatedAt: time.Date(2024, 3, 8, 23, 30, 0, 0, time.UTC)},
	}
	assert.Equal(t, 2, CurrentStreak(entries, now))
}

func TestMostUsedTags(t *testing.T) {
	tags := []entities.Tag{{ID: "B", Name: "B"}, {ID: "A", Name: "A"}}
	entries := []entities.JournalEntry{
		{ID: "1", TagIDs: []string{"A"}},
		{ID: "2", TagIDs: []string{"A", "B"}},
		{ID: "3", TagIDs: []string{"A", "A"}},
	}

	got := MostUsedTags(entries, tags, 5)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Tag.ID)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, "B", got[1].Tag.ID)
	assert.Equal(t, 1, got[1].Count)
}

func TestMostUsedTags_TiesKeepRegistryOrderAndLimit(t *testing.T) {
	var tags []entities.Tag
	var tagIDs []string
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		tags = append(tags, entities.Tag{ID: id})
		tagIDs = append(tagIDs, id)
	}
	entries := []entities.JournalEntry{{ID: "1", TagIDs: tagIDs}, {ID: "2", TagIDs: []string{"f"}}}

	got := MostUsedTags(entries, tags, 5)
	require.Len(t, got, 5)
	assert.Equal(t, "f", got[0].Tag.ID)
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{got[1].Tag.ID, got[2].Tag.ID, got[3].Tag.ID, got[4].Tag.ID})
}

func TestResolveTags_SkipsDeleted(t *testing.T) {
	registry := []entities.Tag{{ID: "t1", Name: "Work"}, {ID: "t3", Name: "Home"}}
	got := ResolveTags(entities.JournalEntry{TagIDs: []string{"t3", "t2", "t1"}}, registry)

	require.Len(t, got, 2)
	assert.Equal(t, "t3", got[0].ID)
	assert.Equal(t, "t1", got[1].ID)
}

func TestTagSelectors(t *testing.T) {
	tags := []entities.Tag{
		{ID: "root", Type: entities.TagTypeFolder},
		{ID: "child", Type: entities.TagTypeFolder, ParentID: ptr("root")},
		{ID: "p", Type: entities.TagTypePerson},
	}

	assert.Len(t, TagsByType(tags, entities.TagTypeFolder), 2)
	assert.Len(t, ChildTags(tags, ""), 2)
	children := ChildTags(tags, "root")
	require.Len(t, children, 1)
	assert.Equal(t, "child", children[0].ID)

	counted := WithUsageCounts(tags, []entities.JournalEntry{{TagIDs: []string{"p"}}, {TagIDs: []string{"p", "root"}}})
	assert.Equal(t, 1, *counted[0].UsageCount)
	assert.Equal(t, 0, *counted[1].UsageCount)
	assert.Equal(t, 2, *counted[2].UsageCount)
	assert.Nil(t, tags[2].UsageCount)
}

func TestCalendar(t *testing.T) {
	entries := sampleEntries()

	day, err := ParseDay("2024-03-09", time.UTC)
	require.NoError(t, err)
	got := EntriesForDay(entries, day)
	assert.Equal(t, []string{"2"}, ids(got))

	days := GroupByDay(entries, time.UTC)
	require.Len(t, days, 4)
	assert.Equal(t, "2024-03-10", days[0].Date)
	assert.Equal(t, 1, days[0].Count)
	assert.Equal(t, []entities.Mood{entities.MoodCalm}, days[0].Moods)
	assert.True(t, days[1].HasHighlight)
	assert.Equal(t, "2024-03-05", days[3].Date)

	_, err = ParseDay("10/03/2024", time.UTC)
	assert.Error(t, err)
}

func TestSortNewestFirst_Stable(t *testing.T) {
	entries := []entities.JournalEntry{
		{ID: "a", CreatedAt: d1.Add(-day)},
		{ID: "b", CreatedAt: d1},
		{ID: "c", CreatedAt: d1},
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids(SortNewestFirst(entries)))
	assert.Equal(t, "a", entries[0].ID)
}
