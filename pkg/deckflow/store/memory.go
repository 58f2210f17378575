package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and ephemeral runs.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]string // external ID -> internal ID
	projects map[string]*Project
	closed   bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]string),
		projects: make(map[string]*Project),
	}
}

// CreateUser registers a user for an external authentication ID and
// returns the internal ID. Idempotent per external ID.
func (s *MemoryStore) CreateUser(_ context.Context, externalID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStoreClosed
	}
	if id, ok := s.users[externalID]; ok {
		return id, nil
	}
	id := uuid.New().String()
	s.users[externalID] = id
	return id, nil
}

// FindUserByExternalID implements Store.
func (s *MemoryStore) FindUserByExternalID(_ context.Context, externalID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}
	id, ok := s.users[externalID]
	if !ok {
		return "", ErrUserNotFound
	}
	return id, nil
}

// CreateProject implements Store.
func (s *MemoryStore) CreateProject(_ context.Context, ownerID, title, theme string) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     title,
		Theme:     theme,
		Outlines:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.projects[p.ID] = p

	cp := *p
	return &cp, nil
}

// UpdateProject implements Store.
func (s *MemoryStore) UpdateProject(_ context.Context, projectID string, update ProjectUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	p, ok := s.projects[projectID]
	if !ok {
		return ErrNotFound
	}
	p.Outlines = append([]string(nil), update.Outlines...)
	p.Slides = append([]byte(nil), update.Slides...)
	p.Thumbnail = update.Thumbnail
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// FindProjectOwner implements Store.
func (s *MemoryStore) FindProjectOwner(_ context.Context, projectID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}
	p, ok := s.projects[projectID]
	if !ok {
		return "", ErrNotFound
	}
	return p.OwnerID, nil
}

// GetProject implements Store.
func (s *MemoryStore) GetProject(_ context.Context, projectID string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	p, ok := s.projects[projectID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Outlines = append([]string(nil), p.Outlines...)
	cp.Slides = append([]byte(nil), p.Slides...)
	return &cp, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
