package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	domainproject "github.com/alanyang/project-registry/internal/domain/project"
	portproject "github.com/alanyang/project-registry/internal/port/project"
)

var _ portproject.Repository = (*Store)(nil)

// Store is an in-process project table. Records are cloned on the way in and
// out so callers never share slices with the stored copy.
type Store struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]domainproject.Project
}

func NewStore() *Store {
	return &Store{
		projects: make(map[uuid.UUID]domainproject.Project),
	}
}

func (s *Store) Create(_ context.Context, p domainproject.Project) (domainproject.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; ok {
		return domainproject.Project{}, fmt.Errorf("insert project %s: %w", p.ID, domainproject.ErrDuplicateID)
	}
	s.projects[p.ID] = p.Clone()
	return p.Clone(), nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (domainproject.Project, error) {
	s.mu.RLock()
	p, ok := s.projects[id]
	s.mu.RUnlock()

	if !ok {
		return domainproject.Project{}, fmt.Errorf("get project %s: %w", id, domainproject.ErrNotFound)
	}
	return p.Clone(), nil
}

func (s *Store) Update(_ context.Context, p domainproject.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; !ok {
		return fmt.Errorf("update project %s: %w", p.ID, domainproject.ErrNotFound)
	}
	s.projects[p.ID] = p.Clone()
	return nil
}

// List orders by the canonical id string, the same order Postgres and Redis use.
func (s *Store) List(_ context.Context) ([]domainproject.Project, error) {
	s.mu.RLock()
	out := make([]domainproject.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domainproject.Project) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}
