package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"makelaardij/server/internal/models"
)

type SavedPropertyRepo struct {
	db *gorm.DB
}

func NewSavedPropertyRepo(db *gorm.DB) *SavedPropertyRepo {
	return &SavedPropertyRepo{db: db}
}

func (r *SavedPropertyRepo) List(ctx context.Context, userID uint) ([]models.SavedProperty, error) {
	saved := []models.SavedProperty{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("list saved properties: %w", err)
	}
	return saved, nil
}

// Create returns ErrDuplicate when the user already saved the property
func (r *SavedPropertyRepo) Create(ctx context.Context, s *models.SavedProperty) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("save property: %w", err)
	}
	return nil
}

// Delete reports whether a saved property was removed
func (r *SavedPropertyRepo) Delete(ctx context.Context, userID uint, propertyID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&models.SavedProperty{})
	if res.Error != nil {
		return false, fmt.Errorf("delete saved property: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

type SavedSearchRepo struct {
	db *gorm.DB
}

func NewSavedSearchRepo(db *gorm.DB) *SavedSearchRepo {
	return &SavedSearchRepo{db: db}
}

func (r *SavedSearchRepo) List(ctx context.Context, userID uint) ([]models.SavedSearch, error) {
	searches := []models.SavedSearch{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&searches).Error
	if err != nil {
		return nil, fmt.Errorf("list saved searches: %w", err)
	}
	return searches, nil
}

// Get returns the search only when it belongs to userID
func (r *SavedSearchRepo) Get(ctx context.Context, userID, id uint) (*models.SavedSearch, error) {
	var s models.SavedSearch
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get saved search: %w", err)
	}
	return &s, nil
}

func (r *SavedSearchRepo) Create(ctx context.Context, s *models.SavedSearch) error {
	if s.AlertFrequency == "" {
		s.AlertFrequency = models.AlertDaily
	}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create saved search: %w", err)
	}
	return nil
}

func (r *SavedSearchRepo) Update(ctx context.Context, s *models.SavedSearch) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("update saved search: %w", err)
	}
	return nil
}

// Delete reports whether a saved search was removed
func (r *SavedSearchRepo) Delete(ctx context.Context, userID, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.SavedSearch{})
	if res.Error != nil {
		return false, fmt.Errorf("delete saved search: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListDue returns searches whose alert frequency has elapsed at now
func (r *SavedSearchRepo) ListDue(ctx context.Context, now time.Time) ([]models.SavedSearch, error) {
	var searches []models.SavedSearch
	err := r.db.WithContext(ctx).
		Where("alert_frequency IN ?", []string{models.AlertInstant, models.AlertDaily, models.AlertWeekly}).
		Order("id ASC").
		Find(&searches).Error
	if err != nil {
		return nil, fmt.Errorf("list due saved searches: %w", err)
	}

	due := searches[:0]
	for _, s := range searches {
		if AlertDue(s, now) {
			due = append(due, s)
		}
	}
	return due, nil
}

// AlertDue reports whether s should be checked for new listings at now
func AlertDue(s models.SavedSearch, now time.Time) bool {
	var interval time.Duration
	switch s.AlertFrequency {
	case models.AlertInstant:
		return true
	case models.AlertDaily:
		interval = 24 * time.Hour
	case models.AlertWeekly:
		interval = 7 * 24 * time.Hour
	default:
		return false
	}

	last := s.CreatedAt
	if s.LastAlertedAt != nil {
		last = *s.LastAlertedAt
	}
	return !now.Before(last.Add(interval))
}

func (r *SavedSearchRepo) MarkAlerted(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.SavedSearch{}).
		Where("id = ?", id).
		UpdateColumn("last_alerted_at", at).Error
	if err != nil {
		return fmt.Errorf("mark saved search alerted: %w", err)
	}
	return nil
}
