package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"makelaardij/server/internal/database"
	"makelaardij/server/internal/models"
)

// GormStore keeps listings in the properties table
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) List(ctx context.Context) ([]models.Property, error) {
	var props []models.Property
	if err := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&props).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return props, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property %s: %w", id, err)
	}
	return &p, nil
}

func (s *GormStore) Create(ctx context.Context, p models.Property) (*models.Property, error) {
	prepared, err := prepareNew(p, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&prepared).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	return &prepared, nil
}

func (s *GormStore) Update(ctx context.Context, id string, patch models.PropertyPatch) (*models.Property, error) {
	var updated models.Property
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Property
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		p, err := applyPatch(existing, patch, s.now().UTC())
		if err != nil {
			return err
		}
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		var verr *ValidationError
		if errors.Is(err, ErrNotFound) || errors.As(err, &verr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update property %s: %w", id, err)
	}
	return &updated, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Property{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete property %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
