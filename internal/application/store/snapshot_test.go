package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journify/core/internal/adapters/snapshot"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/logger"
)

var allFields = []string{
	FieldTheme, FieldSettings, FieldSidebarOpen, FieldCurrentView, FieldSearchFilters, FieldEntries, FieldTags,
}

type failingBackend struct {
	mu    sync.Mutex
	saves int
}

func (f *failingBackend) Load(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("disk gone")
}

func (f *failingBackend) Save(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	return errors.New("disk full")
}

func (f *failingBackend) Delete(ctx context.Context, key string) error {
	return errors.New("disk gone")
}

func TestPersister_RoundTrip(t *testing.T) {
	backend := snapshot.NewMemoryStore()
	p := NewPersister(backend, PersisterConfig{Key: "journal", Fields: allFields}, logger.NewNop())

	s := newTestStore(t, WithPersister(p))
	s.SetUser(&entities.User{ID: "u1"})
	mood := entities.MoodHappy
	e := entry("a", "hello")
	e.Mood = &mood
	e.TagIDs = []string{"t1"}
	require.NoError(t, s.AddEntry(e))
	require.NoError(t, s.AddTag(entities.Tag{ID: "t1", Name: "Work", Type: entities.TagTypeFolder}))
	require.NoError(t, s.SetTheme(entities.ThemeDark))
	s.SetSidebarOpen(true)
	s.SetCurrentEntry(&e)

	loaded, err := p.Load(context.Background())
	require.NoError(t, err)

	assert.Nil(t, loaded.User)
	assert.Nil(t, loaded.CurrentEntry)
	assert.Equal(t, entities.ThemeDark, loaded.Theme)
	assert.True(t, loaded.SidebarOpen)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "hello", loaded.Entries[0].Content)
	assert.True(t, loaded.Entries[0].CreatedAt.Equal(fixedNow))
	assert.Equal(t, []string{"t1"}, loaded.Entries[0].TagIDs)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, "Work", loaded.Tags[0].Name)
}

func TestPersister_LoadMissingKeyYieldsDefaults(t *testing.T) {
	p := NewPersister(snapshot.NewMemoryStore(), PersisterConfig{Key: "journal", Fields: allFields}, logger.NewNop())

	st, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultState(), st)
}

func TestPersister_AllowListLimitsFields(t *testing.T) {
	backend := snapshot.NewMemoryStore()
	p := NewPersister(backend, PersisterConfig{Key: "k", Fields: []string{FieldTheme, "user", "isLoading"}}, logger.NewNop())
	assert.Equal(t, []string{FieldTheme}, p.Fields())

	st := DefaultState()
	st.Theme = entities.ThemeLight
	st.SidebarOpen = true
	require.NoError(t, p.Write(context.Background(), st))

	raw, err := backend.Load(context.Background(), "k")
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.JSONEq(t, `1`, string(env["version"]))

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env["state"], &fields))
	assert.Len(t, fields, 1)
	assert.JSONEq(t, `"light"`, string(fields["theme"]))
}

func TestDecodeSnapshot_BadFieldFallsBack(t *testing.T) {
	data := []byte(`{"state":{"theme":"neon","sidebarOpen":true,"entries":"oops","currentView":"grid"},"version":1}`)

	st, err := DecodeSnapshot(data, allFields, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeSystem, st.Theme)
	assert.True(t, st.SidebarOpen)
	assert.Empty(t, st.Entries)
	assert.Equal(t, entities.ViewGrid, st.CurrentView)
}

func TestDecodeSnapshot_BadEnvelope(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`not json`), allFields, logger.NewNop())
	assert.Error(t, err)
}

func TestPersister_FailureKeepsStateAndReports(t *testing.T) {
	backend := &failingBackend{}
	p := NewPersister(backend, PersisterConfig{Key: "k", Fields: allFields}, logger.NewNop())

	var reported []error
	p.OnFailure(func(err error) { reported = append(reported, err) })

	s := newTestStore(t, WithPersister(p))
	require.NoError(t, s.AddEntry(entry("a", "x")))

	assert.Len(t, s.Entries(), 1)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], entities.ErrPersistence)

	_, err := p.Load(context.Background())
	assert.ErrorIs(t, err, entities.ErrPersistence)
}

func TestPersister_DebounceCoalescesWrites(t *testing.T) {
	backend := &failingBackend{}
	p := NewPersister(backend, PersisterConfig{Key: "k", Fields: allFields, Debounce: time.Hour}, logger.NewNop())

	s := newTestStore(t, WithPersister(p))
	require.NoError(t, s.AddEntry(entry("a", "x")))
	require.NoError(t, s.AddEntry(entry("b", "y")))
	assert.Equal(t, 0, backend.saves)

	err := s.Flush(context.Background())
	assert.ErrorIs(t, err, entities.ErrPersistence)
	assert.Equal(t, 1, backend.saves)

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, backend.saves)
}

func TestPersister_StaleDebouncedWriteDoesNotOverwriteNewer(t *testing.T) {
	backend := snapshot.NewMemoryStore()
	p := NewPersister(backend, PersisterConfig{Key: "k", Fields: allFields, Debounce: time.Hour}, logger.NewNop())

	older := DefaultState()
	older.Theme = entities.ThemeLight
	p.Save(older)
	// A timer callback that took the pending state but has not written yet.
	inFlight, seq := p.takePending()
	require.NotNil(t, inFlight)

	newer := DefaultState()
	newer.Theme = entities.ThemeDark
	p.Save(newer)
	require.NoError(t, p.Flush(context.Background()))

	require.NoError(t, p.write(context.Background(), *inFlight, seq))

	loaded, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeDark, loaded.Theme)

	require.NoError(t, p.Write(context.Background(), older))
	loaded, err = p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.ThemeLight, loaded.Theme)
}

func TestPersister_Clear(t *testing.T) {
	backend := snapshot.NewMemoryStore()
	p := NewPersister(backend, PersisterConfig{Key: "k", Fields: allFields}, logger.NewNop())
	require.NoError(t, p.Write(context.Background(), DefaultState()))

	require.NoError(t, p.Clear(context.Background()))
	_, err := backend.Load(context.Background(), "k")
	assert.ErrorIs(t, err, entities.ErrNotFound)
	require.NoError(t, p.Clear(context.Background()))
}
