package store

import (
	"context"
	"sync"
	"time"

	"makelaardij/server/internal/models"
)

// MemoryStore keeps listings in process memory, in insertion order
type MemoryStore struct {
	mu         sync.RWMutex
	properties []models.Property
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) List(ctx context.Context) ([]models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Property, len(s.properties))
	for i, p := range s.properties {
		out[i] = p.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := s.properties[i].Clone()
	return &p, nil
}

func (s *MemoryStore) Create(ctx context.Context, p models.Property) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepared, err := prepareNew(p, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if s.indexOf(prepared.ID) >= 0 {
		return nil, ErrConflict
	}

	s.properties = append(s.properties, prepared)
	out := prepared.Clone()
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch models.PropertyPatch) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}

	updated, err := applyPatch(s.properties[i], patch, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.properties[i] = updated

	out := updated.Clone()
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.properties = append(s.properties[:i], s.properties[i+1:]...)
	return nil
}

func (s *MemoryStore) indexOf(id string) int {
	for i := range s.properties {
		if s.properties[i].ID == id {
			return i
		}
	}
	return -1
}
