// Package gallery keeps exported facade projects: a rendered PNG with a name
// and the time it was saved.
package gallery

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a project id is not in the store.
var ErrNotFound = errors.New("gallery: project not found")

// Project is one saved composition.
type Project struct {
	ID        string
	Name      string
	Timestamp time.Time
	PNG       []byte
}

// NewProject creates a project with a fresh id stamped with the current time.
func NewProject(name string, png []byte) Project {
	return Project{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		PNG:       png,
	}
}

// Store persists projects.
type Store interface {
	Add(p Project) error
	// List returns every project, newest first.
	List() ([]Project, error)
	Get(id string) (Project, error)
	Remove(id string) error
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu       sync.Mutex
	projects map[string]Project
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{projects: make(map[string]Project)}
}

func (s *MemStore) Add(p Project) error {
	if p.ID == "" {
		return errors.New("gallery: project has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return nil
}

func (s *MemStore) List() ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemStore) Get(id string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

func (s *MemStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// sortNewestFirst orders by timestamp descending, then by id for ties.
func sortNewestFirst(ps []Project) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].Timestamp.Equal(ps[j].Timestamp) {
			return ps[i].Timestamp.After(ps[j].Timestamp)
		}
		return ps[i].ID < ps[j].ID
	})
}
