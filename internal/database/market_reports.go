package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"makelaardij/server/internal/models"
)

// Market report orderings
const (
	ReportsNewest    = "newest"
	ReportsOldest    = "oldest"
	ReportsDownloads = "downloads"
	ReportsTitle     = "title"
)

// MarketReportFilter narrows a report listing. Empty fields do not constrain.
type MarketReportFilter struct {
	Location     string
	ReportType   string
	Year         *int
	Quarter      string
	FeaturedOnly bool
	LatestOnly   bool
	SortBy       string
}

type MarketReportRepo struct {
	db *gorm.DB
}

func NewMarketReportRepo(db *gorm.DB) *MarketReportRepo {
	return &MarketReportRepo{db: db}
}

func (r *MarketReportRepo) List(ctx context.Context, f MarketReportFilter) ([]models.MarketReport, error) {
	q := r.db.WithContext(ctx)
	if f.Location != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(f.Location)+"%")
	}
	if f.ReportType != "" {
		q = q.Where("LOWER(report_type) LIKE ?", "%"+strings.ToLower(f.ReportType)+"%")
	}
	if f.Year != nil {
		q = q.Where("year = ?", *f.Year)
	}
	if f.Quarter != "" {
		q = q.Where("quarter = ?", f.Quarter)
	}
	if f.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	if f.LatestOnly {
		q = q.Where("is_latest = ?", true)
	}

	switch f.SortBy {
	case ReportsOldest:
		q = q.Order("published_at ASC")
	case ReportsDownloads:
		q = q.Order("download_count DESC").Order("published_at DESC")
	case ReportsTitle:
		q = q.Order("title ASC")
	default:
		q = q.Order("published_at DESC")
	}

	reports := []models.MarketReport{}
	if err := q.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list market reports: %w", err)
	}
	return reports, nil
}

// Get returns nil when no report has the id
func (r *MarketReportRepo) Get(ctx context.Context, id string) (*models.MarketReport, error) {
	var report models.MarketReport
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get market report: %w", err)
	}
	return &report, nil
}

// Create stores a new report. At most one report is marked latest.
func (r *MarketReportRepo) Create(ctx context.Context, report *models.MarketReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if report.IsLatest {
			if err := unmarkLatest(tx, report.ID); err != nil {
				return err
			}
		}
		if err := tx.Create(report).Error; err != nil {
			if IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("create market report: %w", err)
		}
		return nil
	})
}

func (r *MarketReportRepo) Update(ctx context.Context, report *models.MarketReport) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if report.IsLatest {
			if err := unmarkLatest(tx, report.ID); err != nil {
				return err
			}
		}
		if err := tx.Save(report).Error; err != nil {
			return fmt.Errorf("update market report: %w", err)
		}
		return nil
	})
}

func unmarkLatest(tx *gorm.DB, keepID string) error {
	err := tx.Model(&models.MarketReport{}).
		Where("is_latest = ? AND id <> ?", true, keepID).
		Update("is_latest", false).Error
	if err != nil {
		return fmt.Errorf("unmark latest market report: %w", err)
	}
	return nil
}

// Delete reports whether a report was removed
func (r *MarketReportRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MarketReport{})
	if res.Error != nil {
		return false, fmt.Errorf("delete market report: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IncrementDownloads bumps the download counter and returns the new count. The
// returned report is nil when the id is unknown.
func (r *MarketReportRepo) IncrementDownloads(ctx context.Context, id string) (*models.MarketReport, error) {
	res := r.db.WithContext(ctx).Model(&models.MarketReport{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if res.Error != nil {
		return nil, fmt.Errorf("increment market report downloads: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.Get(ctx, id)
}
