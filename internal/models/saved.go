package models

import "time"

type SavedProperty struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_saved_user_property"`
	PropertyID string    `json:"property_id" gorm:"size:191;not null;uniqueIndex:idx_saved_user_property"`
	Notes      string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Alert frequencies for saved searches
const (
	AlertInstant = "instant"
	AlertDaily   = "daily"
	AlertWeekly  = "weekly"
	AlertNever   = "never"
)

// ValidAlertFrequency reports whether f is a known alert frequency
func ValidAlertFrequency(f string) bool {
	switch f {
	case AlertInstant, AlertDaily, AlertWeekly, AlertNever:
		return true
	}
	return false
}

type SavedSearch struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         uint           `json:"user_id" gorm:"not null;index"`
	Name           string         `json:"name" gorm:"size:255;not null"`
	SearchCriteria SearchCriteria `json:"search_criteria" gorm:"serializer:json"`
	AlertFrequency string         `json:"alert_frequency" gorm:"size:20;not null;default:daily"`
	LastAlertedAt  *time.Time     `json:"last_alerted_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// SavedSearchPatch lists the fields of a saved search a user may change
type SavedSearchPatch struct {
	Name           *string         `json:"name"`
	SearchCriteria *SearchCriteria `json:"search_criteria"`
	AlertFrequency *string         `json:"alert_frequency"`
}

func (p SavedSearchPatch) IsEmpty() bool {
	return p.Name == nil && p.SearchCriteria == nil && p.AlertFrequency == nil
}

func (p SavedSearchPatch) Apply(s *SavedSearch) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.SearchCriteria != nil {
		s.SearchCriteria = *p.SearchCriteria
	}
	if p.AlertFrequency != nil {
		s.AlertFrequency = *p.AlertFrequency
	}
}

type PropertyView struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     *uint     `json:"user_id,omitempty" gorm:"index"`
	PropertyID string    `json:"property_id" gorm:"size:191;not null;index"`
	SessionID  string    `json:"session_id,omitempty" gorm:"size:100"`
	Source     string    `json:"source,omitempty" gorm:"size:100"`
	ViewedAt   time.Time `json:"viewed_at" gorm:"index"`
}

// PropertyViewCounts is the raw aggregate of views for one property
type PropertyViewCounts struct {
	PropertyID         string `json:"property_id"`
	ViewCount          int64  `json:"view_count"`
	UniqueUserViews    int64  `json:"unique_user_views"`
	UniqueSessionViews int64  `json:"unique_session_views"`
}

// PropertyViewStats is the per-property analytics row returned to clients
type PropertyViewStats struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	ViewCount          int64  `json:"view_count"`
	UniqueUserViews    int64  `json:"unique_user_views"`
	UniqueSessionViews int64  `json:"unique_session_views"`
}
