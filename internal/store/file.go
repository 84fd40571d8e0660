package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"makelaardij/server/internal/models"
)

// FileStore keeps listings in a JSON array on disk. Every write rewrites the whole
// file through a temporary file and a rename.
type FileStore struct {
	mu   sync.RWMutex
	path string
	now  func() time.Time
}

// NewFileStore returns a store backed by path. A missing file is an empty collection.
func NewFileStore(path string) (*FileStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}
	return &FileStore{path: absPath, now: time.Now}, nil
}

func (s *FileStore) List(ctx context.Context) ([]models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

func (s *FileStore) Get(ctx context.Context, id string) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	props, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range props {
		if props[i].ID == id {
			return &props[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) Create(ctx context.Context, p models.Property) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepared, err := prepareNew(p, s.now().UTC())
	if err != nil {
		return nil, err
	}

	props, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range props {
		if props[i].ID == prepared.ID {
			return nil, ErrConflict
		}
	}

	if err := s.save(append(props, prepared)); err != nil {
		return nil, err
	}
	return &prepared, nil
}

func (s *FileStore) Update(ctx context.Context, id string, patch models.PropertyPatch) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	props, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range props {
		if props[i].ID != id {
			continue
		}
		updated, err := applyPatch(props[i], patch, s.now().UTC())
		if err != nil {
			return nil, err
		}
		props[i] = updated
		if err := s.save(props); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, ErrNotFound
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	props, err := s.load()
	if err != nil {
		return err
	}
	for i := range props {
		if props[i].ID == id {
			return s.save(append(props[:i], props[i+1:]...))
		}
	}
	return ErrNotFound
}

func (s *FileStore) load() ([]models.Property, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Property{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read property file: %v", err)
	}

	var props []models.Property
	if len(data) == 0 {
		return []models.Property{}, nil
	}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to parse property file: %v", err)
	}
	return props, nil
}

func (s *FileStore) save(props []models.Property) error {
	data, err := json.MarshalIndent(props, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal properties: %v", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write property file: %v", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace property file: %v", err)
	}
	return nil
}
