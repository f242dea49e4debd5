package gallery

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "sub", "gallery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"mem":    NewMemStore(),
		"sqlite": db,
	}
}

func project(id, name string, at time.Time) Project {
	return Project{ID: id, Name: name, Timestamp: at, PNG: []byte("png-" + id)}
}

func TestNewProject(t *testing.T) {
	before := time.Now()
	p := NewProject("house-edited", []byte{1, 2, 3})
	assert.Len(t, p.ID, 36)
	assert.Equal(t, "house-edited", p.Name)
	assert.False(t, p.Timestamp.Before(before))
	assert.NotEqual(t, p.ID, NewProject("x", nil).ID)
}

func TestStoreAddListGet(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Add(project("a", "first", base)))
			require.NoError(t, s.Add(project("b", "second", base.Add(time.Minute))))
			require.NoError(t, s.Add(project("c", "third", base.Add(-time.Minute))))

			list, err := s.List()
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "b", list[0].ID)
			assert.Equal(t, "a", list[1].ID)
			assert.Equal(t, "c", list[2].ID)

			got, err := s.Get("a")
			require.NoError(t, err)
			assert.Equal(t, "first", got.Name)
			assert.Equal(t, []byte("png-a"), got.PNG)
			assert.True(t, got.Timestamp.Equal(base))
		})
	}
}

func TestStoreReplace(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Add(project("a", "old", at)))
			require.NoError(t, s.Add(project("a", "new", at)))
			list, err := s.List()
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "new", list[0].Name)
		})
	}
}

func TestStoreRemove(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Add(project("a", "x", at)))
			require.NoError(t, s.Remove("a"))
			assert.ErrorIs(t, s.Remove("a"), ErrNotFound)
			_, err := s.Get("a")
			assert.ErrorIs(t, err, ErrNotFound)

			list, err := s.List()
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStoreRejectsEmptyID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Add(Project{Name: "x"}))
		})
	}
}

func TestSQLitePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gallery.db")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Add(project("a", "kept", at)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Name)
}

func TestSQLiteMemory(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Add(NewProject("x", []byte{1})))
	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
