package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journify/core/internal/application/query"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(logger.NewNop(), opts...)
}

func entry(id, content string) entities.JournalEntry {
	return entities.JournalEntry{ID: id, UserID: "u1", Content: content, CreatedAt: fixedNow}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestNew_DefaultState(t *testing.T) {
	s := newTestStore(t)
	st := s.State()

	assert.Empty(t, st.Entries)
	assert.Empty(t, st.Tags)
	assert.Nil(t, st.User)
	assert.Nil(t, st.CurrentEntry)
	assert.Equal(t, entities.ViewTimeline, st.CurrentView)
	assert.Equal(t, entities.ThemeSystem, st.Theme)
	assert.Equal(t, entities.DefaultSettings(), st.Settings)
	assert.True(t, st.SearchFilters.IsEmpty())
}

func TestAddEntry_PrependsNewest(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entry("a", "first")))
	require.NoError(t, s.AddEntry(entry("b", "second")))

	got := s.Entries()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.NotNil(t, got[0].TagIDs)
	assert.NotNil(t, got[0].Attachments)
}

func TestAddEntry_Rejects(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entry("a", "first")))

	err := s.AddEntry(entry("a", "again"))
	assert.ErrorIs(t, err, entities.ErrDuplicateID)

	err = s.AddEntry(entry("b", "   "))
	assert.ErrorIs(t, err, entities.ErrValidation)

	err = s.AddEntry(entry("", "content"))
	assert.ErrorIs(t, err, entities.ErrValidation)

	bad := entities.Mood("grumpy")
	e := entry("c", "content")
	e.Mood = &bad
	assert.ErrorIs(t, s.AddEntry(e), entities.ErrValidation)

	assert.Len(t, s.Entries(), 1)
}

func TestAddEntry_StampsTimes(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entities.JournalEntry{ID: "a", Content: "x"}))

	e, ok := s.Entry("a")
	require.True(t, ok)
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.Equal(t, fixedNow, e.UpdatedAt)
}

func TestUpdateEntry_MergesAndMirrorsCurrent(t *testing.T) {
	s := newTestStore(t)
	e := entry("a", "before")
	require.NoError(t, s.AddEntry(e))
	s.SetCurrentEntry(&e)

	mood := entities.MoodCalm
	later := fixedNow.Add(time.Hour)
	require.NoError(t, s.UpdateEntry("a", entities.EntryPatch{
		Content:   strPtr("after"),
		Mood:      &mood,
		UpdatedAt: &later,
	}))

	got, _ := s.Entry("a")
	assert.Equal(t, "after", got.Content)
	require.NotNil(t, got.Mood)
	assert.Equal(t, entities.MoodCalm, *got.Mood)
	assert.Equal(t, later, got.UpdatedAt)
	assert.Equal(t, "u1", got.UserID)

	current := s.CurrentEntry()
	require.NotNil(t, current)
	assert.Equal(t, "after", current.Content)
}

func TestUpdateEntry_UnknownIDLeavesStateUnchanged(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entry("a", "x")))
	before := s.State()

	err := s.UpdateEntry("missing", entities.EntryPatch{Content: strPtr("y")})
	assert.ErrorIs(t, err, entities.ErrNotFound)
	assert.Equal(t, before, s.State())
}

func TestUpdateEntry_RejectsEmptyContent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entry("a", "x")))

	err := s.UpdateEntry("a", entities.EntryPatch{Content: strPtr("  ")})
	assert.ErrorIs(t, err, entities.ErrValidation)

	got, _ := s.Entry("a")
	assert.Equal(t, "x", got.Content)
}

func TestDeleteEntry_ClearsCurrent(t *testing.T) {
	s := newTestStore(t)
	e := entry("a", "x")
	require.NoError(t, s.AddEntry(e))
	require.NoError(t, s.AddEntry(entry("b", "y")))
	s.SetCurrentEntry(&e)

	require.NoError(t, s.DeleteEntry("a"))
	assert.Nil(t, s.CurrentEntry())
	require.Len(t, s.Entries(), 1)
	assert.Equal(t, "b", s.Entries()[0].ID)

	assert.ErrorIs(t, s.DeleteEntry("a"), entities.ErrNotFound)
}

func TestDeleteEntry_KeepsUnrelatedCurrent(t *testing.T) {
	s := newTestStore(t)
	a := entry("a", "x")
	require.NoError(t, s.AddEntry(a))
	require.NoError(t, s.AddEntry(entry("b", "y")))
	s.SetCurrentEntry(&a)

	require.NoError(t, s.DeleteEntry("b"))
	require.NotNil(t, s.CurrentEntry())
	assert.Equal(t, "a", s.CurrentEntry().ID)
}

func TestTags_AddUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTag(entities.Tag{ID: "t1", Name: " Work ", Type: entities.TagTypeFolder}))
	require.NoError(t, s.AddTag(entities.Tag{ID: "t2", Name: "Gratitude", Type: entities.TagTypeHashtag}))

	tags := s.Tags()
	require.Len(t, tags, 2)
	assert.Equal(t, "t1", tags[0].ID)
	assert.Equal(t, "Work", tags[0].Name)
	assert.Equal(t, fixedNow, tags[0].CreatedAt)

	require.NoError(t, s.UpdateTag("t1", entities.TagPatch{Name: strPtr("Office")}))
	tag, _ := s.Tag("t1")
	assert.Equal(t, "Office", tag.Name)
	require.NotNil(t, tag.UpdatedAt)

	e := entry("e1", "x")
	e.TagIDs = []string{"t1", "t2"}
	require.NoError(t, s.AddEntry(e))

	require.NoError(t, s.DeleteTag("t1"))
	_, ok := s.Tag("t1")
	assert.False(t, ok)

	got, _ := s.Entry("e1")
	assert.Equal(t, []string{"t1", "t2"}, got.TagIDs)
}

func TestAddTag_Rejects(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTag(entities.Tag{ID: "t1", Name: "Work", Type: entities.TagTypeFolder}))

	assert.ErrorIs(t, s.AddTag(entities.Tag{ID: "t1", Name: "Dup", Type: entities.TagTypeFolder}), entities.ErrDuplicateID)
	assert.ErrorIs(t, s.AddTag(entities.Tag{ID: "t2", Name: " ", Type: entities.TagTypeFolder}), entities.ErrValidation)
	assert.ErrorIs(t, s.AddTag(entities.Tag{ID: "t3", Name: "X", Type: "colour"}), entities.ErrValidation)
	assert.ErrorIs(t, s.AddTag(entities.Tag{ID: "t4", Name: "X", Type: entities.TagTypeFolder, ParentID: strPtr("nope")}), entities.ErrValidation)
	assert.ErrorIs(t, s.AddTag(entities.Tag{ID: "t5", Name: "X", Type: entities.TagTypePerson, ParentID: strPtr("t1")}), entities.ErrValidation)
	assert.Len(t, s.Tags(), 1)
}

func TestUpdateTag_RejectsCycle(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTag(entities.Tag{ID: "a", Name: "A", Type: entities.TagTypeFolder}))
	require.NoError(t, s.AddTag(entities.Tag{ID: "b", Name: "B", Type: entities.TagTypeFolder, ParentID: strPtr("a")}))

	err := s.UpdateTag("a", entities.TagPatch{ParentID: strPtr("b")})
	assert.ErrorIs(t, err, entities.ErrTagCycle)
	assert.ErrorIs(t, err, entities.ErrValidation)

	a, _ := s.Tag("a")
	assert.Nil(t, a.ParentID)
}

func TestUpdateTag_FolderWithChildrenKeepsType(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTag(entities.Tag{ID: "root", Name: "Root", Type: entities.TagTypeFolder}))
	require.NoError(t, s.AddTag(entities.Tag{ID: "kid", Name: "Kid", Type: entities.TagTypeFolder, ParentID: strPtr("root")}))

	hashtag := entities.TagTypeHashtag
	err := s.UpdateTag("root", entities.TagPatch{Type: &hashtag})
	assert.ErrorIs(t, err, entities.ErrValidation)

	root, _ := s.Tag("root")
	assert.Equal(t, entities.TagTypeFolder, root.Type)
	require.NoError(t, s.UpdateTag("kid", entities.TagPatch{Name: strPtr("Renamed")}))

	// A childless folder may still change type.
	require.NoError(t, s.UpdateTag("kid", entities.TagPatch{ClearParent: true}))
	require.NoError(t, s.UpdateTag("root", entities.TagPatch{Type: &hashtag}))
}

func TestUpdateTag_EmptyParentMovesToRoot(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTag(entities.Tag{ID: "a", Name: "A", Type: entities.TagTypeFolder}))
	require.NoError(t, s.AddTag(entities.Tag{ID: "f", Name: "F", Type: entities.TagTypeFolder, ParentID: strPtr("a")}))

	require.NoError(t, s.UpdateTag("f", entities.TagPatch{ParentID: strPtr("")}))

	f, _ := s.Tag("f")
	assert.Nil(t, f.ParentID)
	assert.Len(t, query.ChildTags(s.Tags(), ""), 2)
	assert.Empty(t, query.ChildTags(s.Tags(), "a"))
}

func TestAddTag_EmptyParentIsRoot(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTag(entities.Tag{ID: "f", Name: "F", Type: entities.TagTypeFolder, ParentID: strPtr("")}))

	f, _ := s.Tag("f")
	assert.Nil(t, f.ParentID)
}

func TestDeleteTag_DetachesChildren(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTag(entities.Tag{ID: "a", Name: "A", Type: entities.TagTypeFolder}))
	require.NoError(t, s.AddTag(entities.Tag{ID: "b", Name: "B", Type: entities.TagTypeFolder, ParentID: strPtr("a")}))

	require.NoError(t, s.DeleteTag("a"))
	b, ok := s.Tag("b")
	require.True(t, ok)
	assert.Nil(t, b.ParentID)
}

func TestSettingsAndTheme(t *testing.T) {
	s := newTestStore(t)

	dark := entities.ThemeDark
	off := false
	require.NoError(t, s.UpdateSettings(entities.SettingsPatch{Theme: &dark, AutoSave: &off}))
	assert.Equal(t, entities.ThemeDark, s.Settings().Theme)
	assert.False(t, s.Settings().AutoSave)
	assert.Equal(t, entities.ThemeDark, s.State().Theme)
	assert.True(t, s.Settings().Notifications)

	require.NoError(t, s.SetTheme(entities.ThemeLight))
	assert.Equal(t, entities.ThemeLight, s.Settings().Theme)
	assert.Equal(t, entities.ThemeLight, s.State().Theme)

	assert.ErrorIs(t, s.SetTheme("neon"), entities.ErrValidation)
	assert.ErrorIs(t, s.SetCurrentView("list"), entities.ErrValidation)
	require.NoError(t, s.SetCurrentView(entities.ViewStats))
	assert.Equal(t, entities.ViewStats, s.CurrentView())
}

func TestSetSearchFilters_ReplacesWholesale(t *testing.T) {
	s := newTestStore(t)
	s.SetSearchFilters(entities.SearchFilters{SearchTerm: strPtr("coffee"), Tags: []string{"t1"}})
	s.SetSearchFilters(entities.SearchFilters{Mood: []entities.Mood{entities.MoodHappy}})

	f := s.SearchFilters()
	assert.Nil(t, f.SearchTerm)
	assert.Nil(t, f.Tags)
	assert.Equal(t, []entities.Mood{entities.MoodHappy}, f.Mood)
}

func TestReads_ReturnCopies(t *testing.T) {
	s := newTestStore(t)
	e := entry("a", "x")
	e.TagIDs = []string{"t1"}
	require.NoError(t, s.AddEntry(e))

	got := s.Entries()
	got[0].TagIDs[0] = "changed"
	got[0].Content = "changed"

	again, _ := s.Entry("a")
	assert.Equal(t, "x", again.Content)
	assert.Equal(t, []string{"t1"}, again.TagIDs)
}

func TestResetState(t *testing.T) {
	s := newTestStore(t)
	s.SetUser(&entities.User{ID: "u1"})
	require.NoError(t, s.AddEntry(entry("a", "x")))
	s.SetSidebarOpen(true)

	s.ResetState()
	assert.Equal(t, DefaultState(), s.State())
}

func TestInitializeSampleData(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entry("old", "x")))
	s.SetUser(&entities.User{ID: "owner"})

	s.InitializeSampleData()

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "2", entries[0].ID)
	assert.Equal(t, "owner", entries[0].UserID)
	assert.Len(t, s.Tags(), 9)
	_, ok := s.Entry("old")
	assert.False(t, ok)
}

func TestSubscribe_NotifiesInOrder(t *testing.T) {
	s := newTestStore(t)

	var changes []Change
	unsubscribe := s.Subscribe(func(st State, c Change) {
		changes = append(changes, c)
	})

	require.NoError(t, s.AddEntry(entry("a", "x")))
	require.NoError(t, s.DeleteEntry("a"))
	_ = s.DeleteEntry("a")
	unsubscribe()
	require.NoError(t, s.AddEntry(entry("b", "y")))

	require.Len(t, changes, 2)
	assert.Equal(t, Change{Op: OpAdd, Kind: KindEntry, ID: "a"}, changes[0])
	assert.Equal(t, Change{Op: OpDelete, Kind: KindEntry, ID: "a"}, changes[1])
}

func TestCommit_ErrorsAreWrapped(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateTag("nope", entities.TagPatch{Name: strPtr("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrTagNotFound))
	assert.Contains(t, err.Error(), "nope")
}

func TestModifyEntry_ConcurrentCallersDoNotLoseUpdates(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entry("e1", "x")))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.ModifyEntry("e1", func(current entities.JournalEntry) (entities.EntryPatch, error) {
				attachments := append(current.Attachments, entities.Attachment{ID: fmt.Sprintf("a%d", i), EntryID: "e1"})
				return entities.EntryPatch{Attachments: &attachments}, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	e, _ := s.Entry("e1")
	assert.Len(t, e.Attachments, n)
}

func TestModifyEntry_ErrorLeavesEntryUntouched(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entry("e1", "x")))

	calls := 0
	s.Subscribe(func(State, Change) { calls++ })

	boom := errors.New("boom")
	_, err := s.ModifyEntry("e1", func(entities.JournalEntry) (entities.EntryPatch, error) {
		return entities.EntryPatch{}, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.ModifyEntry("e1", func(entities.JournalEntry) (entities.EntryPatch, error) {
		return entities.EntryPatch{Content: strPtr(" ")}, nil
	})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = s.ModifyEntry("missing", func(entities.JournalEntry) (entities.EntryPatch, error) {
		return entities.EntryPatch{}, nil
	})
	assert.ErrorIs(t, err, entities.ErrEntryNotFound)
	assert.Zero(t, calls)
}

func TestUpdateEntry_HighlightShowsInStats(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddEntry(entry("a", "one")))
	require.NoError(t, s.AddEntry(entry("b", "two")))

	before := query.ComputeStats(s.Entries(), s.Tags(), fixedNow)
	require.NoError(t, s.UpdateEntry("a", entities.EntryPatch{IsHighlight: boolPtr(true)}))
	after := query.ComputeStats(s.Entries(), s.Tags(), fixedNow)

	assert.Equal(t, before.HighlightedEntries+1, after.HighlightedEntries)
}

func TestDeleteEntry_NoFilterReturnsIt(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTag(entities.Tag{ID: "t1", Name: "Walks", Type: entities.TagTypeHashtag}))
	happy := entities.MoodHappy
	doomed := entry("gone", "evening walk")
	doomed.Mood = &happy
	doomed.TagIDs = []string{"t1"}
	doomed.IsHighlight = true
	require.NoError(t, s.AddEntry(doomed))
	require.NoError(t, s.AddEntry(entry("kept", "morning walk")))

	require.NoError(t, s.DeleteEntry("gone"))

	yes := true
	for _, f := range []entities.SearchFilters{
		{},
		{SearchTerm: strPtr("walk")},
		{Mood: []entities.Mood{entities.MoodHappy}},
		{Tags: []string{"t1"}},
		{IsHighlight: &yes},
		{DateRange: &entities.DateRange{Start: fixedNow.Add(-time.Hour), End: fixedNow.Add(time.Hour)}},
	} {
		for _, e := range query.FilteredEntries(s.Entries(), f) {
			assert.NotEqual(t, "gone", e.ID)
		}
	}
}
