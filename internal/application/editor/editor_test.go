package editor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journify/core/internal/application/store"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newEditor(t *testing.T) (*Editor, *store.Store) {
	t.Helper()
	st := store.New(logger.NewNop(), store.WithClock(func() time.Time { return now }))

	n := 0
	ed := New(st, logger.NewNop(),
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return ed, st
}

func strPtr(s string) *string { return &s }

func TestEditor_StartsViewing(t *testing.T) {
	ed, _ := newEditor(t)
	assert.Equal(t, Viewing, ed.State())
	assert.Nil(t, ed.Draft())

	_, err := ed.Save()
	assert.ErrorIs(t, err, ErrNotEditing)
	_, err = ed.Change(entities.EntryPatch{Content: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotEditing)
	_, err = ed.ToggleHighlight()
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestEditor_NewDraftSave(t *testing.T) {
	ed, st := newEditor(t)

	draft := ed.New("u1")
	assert.Equal(t, "id-1", draft.ID)
	assert.Equal(t, EditingNew, ed.State())
	assert.Empty(t, st.Entries())

	mood := entities.MoodHappy
	_, err := ed.Change(entities.EntryPatch{Title: strPtr("  Morning  "), Content: strPtr("  Coffee first  "), Mood: &mood})
	require.NoError(t, err)
	_, err = ed.ToggleHighlight()
	require.NoError(t, err)

	saved, err := ed.Save()
	require.NoError(t, err)
	assert.Equal(t, "id-1", saved.ID)
	assert.Equal(t, "Coffee first", saved.Content)
	require.NotNil(t, saved.Title)
	assert.Equal(t, "Morning", *saved.Title)
	assert.True(t, saved.IsHighlight)
	assert.Equal(t, Viewing, ed.State())

	entries := st.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "id-1", entries[0].ID)
	assert.Equal(t, "u1", entries[0].UserID)
}

func TestEditor_SaveBlankContentStaysEditing(t *testing.T) {
	ed, st := newEditor(t)
	ed.New("u1")
	_, err := ed.Change(entities.EntryPatch{Content: strPtr("   ")})
	require.NoError(t, err)

	_, err = ed.Save()
	assert.ErrorIs(t, err, entities.ErrValidation)
	assert.Equal(t, EditingNew, ed.State())
	assert.Empty(t, st.Entries())
	require.NotNil(t, ed.Draft())
	assert.Equal(t, "id-1", ed.Draft().ID)
}

func TestEditor_EditExistingSave(t *testing.T) {
	ed, st := newEditor(t)
	require.NoError(t, st.AddEntry(entities.JournalEntry{
		ID: "e1", UserID: "u1", Title: strPtr("Old"), Content: "before", CreatedAt: now.Add(-time.Hour),
	}))

	_, err := ed.Edit("e1")
	require.NoError(t, err)
	assert.Equal(t, EditingExisting, ed.State())

	_, err = ed.Change(entities.EntryPatch{Content: strPtr("after"), ClearTitle: true})
	require.NoError(t, err)

	stored, _ := st.Entry("e1")
	assert.Equal(t, "before", stored.Content)

	saved, err := ed.Save()
	require.NoError(t, err)
	assert.Equal(t, "after", saved.Content)
	assert.Nil(t, saved.Title)
	assert.Equal(t, now, saved.UpdatedAt)
	assert.Equal(t, now.Add(-time.Hour), saved.CreatedAt)
	assert.Equal(t, Viewing, ed.State())
	assert.Len(t, st.Entries(), 1)
}

func TestEditor_EditUnknown(t *testing.T) {
	ed, _ := newEditor(t)
	_, err := ed.Edit("missing")
	assert.ErrorIs(t, err, entities.ErrNotFound)
	assert.Equal(t, Viewing, ed.State())
}

func TestEditor_CancelDiscardsChanges(t *testing.T) {
	ed, st := newEditor(t)
	require.NoError(t, st.AddEntry(entities.JournalEntry{ID: "e1", Content: "keep me"}))

	_, err := ed.Edit("e1")
	require.NoError(t, err)
	_, err = ed.Change(entities.EntryPatch{Content: strPtr("discard me")})
	require.NoError(t, err)

	ed.Cancel()
	assert.Equal(t, Viewing, ed.State())
	stored, _ := st.Entry("e1")
	assert.Equal(t, "keep me", stored.Content)

	ed.New("u1")
	ed.Cancel()
	assert.Len(t, st.Entries(), 1)
}

func TestEditor_ChangeRejectsUnknownMood(t *testing.T) {
	ed, _ := newEditor(t)
	ed.New("u1")
	bad := entities.Mood("meh")
	_, err := ed.Change(entities.EntryPatch{Mood: &bad})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestEditor_AddInlineTag(t *testing.T) {
	ed, st := newEditor(t)
	require.NoError(t, st.AddTag(entities.Tag{ID: "h1", Name: "Gratitude", Type: entities.TagTypeHashtag}))
	ed.New("u1")

	tag, err := ed.AddInlineTag("#gratitude")
	require.NoError(t, err)
	assert.Equal(t, "h1", tag.ID)

	tag, err = ed.AddInlineTag(" #Goals ")
	require.NoError(t, err)
	assert.Equal(t, "Goals", tag.Name)
	assert.Equal(t, entities.TagTypeHashtag, tag.Type)
	assert.Equal(t, "u1", tag.UserID)
	assert.Len(t, st.Tags(), 2)

	_, err = ed.AddInlineTag("goals")
	require.NoError(t, err)
	assert.Len(t, st.Tags(), 2)
	assert.Equal(t, []string{"h1", tag.ID}, ed.Draft().TagIDs)

	_, err = ed.AddInlineTag("#")
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestEditor_DeletingEditedEntryReturnsToViewing(t *testing.T) {
	ed, st := newEditor(t)
	require.NoError(t, st.AddEntry(entities.JournalEntry{ID: "e1", Content: "x"}))
	_, err := ed.Edit("e1")
	require.NoError(t, err)

	require.NoError(t, st.DeleteEntry("e1"))
	assert.Equal(t, Viewing, ed.State())
}
