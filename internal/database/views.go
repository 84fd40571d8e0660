package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"makelaardij/server/internal/models"
)

type ViewRepo struct {
	db *gorm.DB
}

func NewViewRepo(db *gorm.DB) *ViewRepo {
	return &ViewRepo{db: db}
}

// InsertViews stores a batch of views in a single transaction
func (r *ViewRepo) InsertViews(ctx context.Context, views []*models.PropertyView) error {
	if len(views) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(views, 100).Error; err != nil {
			return fmt.Errorf("insert property views: %w", err)
		}
		return nil
	})
}

// Counts aggregates views per property. Properties without views are absent.
func (r *ViewRepo) Counts(ctx context.Context) ([]models.PropertyViewCounts, error) {
	counts := []models.PropertyViewCounts{}
	err := r.db.WithContext(ctx).Model(&models.PropertyView{}).
		Select(`property_id,
			COUNT(*) AS view_count,
			COUNT(DISTINCT user_id) AS unique_user_views,
			COUNT(DISTINCT NULLIF(session_id, '')) AS unique_session_views`).
		Group("property_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count property views: %w", err)
	}
	return counts, nil
}
