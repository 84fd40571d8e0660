package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPublishedAt is returned for a publication date that does not parse
var ErrInvalidPublishedAt = errors.New("invalid publishedAt date")

// MarketReport is a downloadable market analysis published by the office
type MarketReport struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	Title         string    `json:"title" gorm:"size:255;not null"`
	Description   string    `json:"description,omitempty" gorm:"type:text"`
	Quarter       string    `json:"quarter,omitempty" gorm:"size:10;index"`
	Year          int       `json:"year" gorm:"not null;index"`
	Location      string    `json:"location" gorm:"size:255;not null"`
	ReportType    string    `json:"reportType" gorm:"size:100;not null"`
	PdfURL        string    `json:"pdfUrl" gorm:"size:500;not null"`
	CoverImageURL string    `json:"coverImageUrl,omitempty" gorm:"size:500"`
	IsLatest      bool      `json:"isLatest" gorm:"not null;index"`
	IsFeatured    bool      `json:"isFeatured" gorm:"not null"`
	DownloadCount int64     `json:"downloadCount" gorm:"not null"`
	FileSize      string    `json:"fileSize,omitempty" gorm:"size:50"`
	Tags          []string  `json:"tags" gorm:"serializer:json"`
	Summary       string    `json:"summary,omitempty" gorm:"type:text"`
	PublishedAt   time.Time `json:"publishedAt" gorm:"index"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MarketReportInput is the body of a report create or update. On update only the
// fields present are changed.
type MarketReportInput struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Quarter       *string  `json:"quarter"`
	Year          any      `json:"year"`
	Location      *string  `json:"location"`
	ReportType    *string  `json:"reportType"`
	PdfURL        *string  `json:"pdfUrl"`
	CoverImageURL *string  `json:"coverImageUrl"`
	IsLatest      *bool    `json:"isLatest"`
	IsFeatured    *bool    `json:"isFeatured"`
	FileSize      *string  `json:"fileSize"`
	Tags          []string `json:"tags"`
	Summary       *string  `json:"summary"`
	PublishedAt   *string  `json:"publishedAt"`
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// MissingField returns the first required field that is empty or absent, or "".
// A year that is not a positive number counts as missing.
func (in MarketReportInput) MissingField() string {
	switch {
	case trimmed(in.Title) == "":
		return "title"
	case looseInt(in.Year) == nil || *looseInt(in.Year) <= 0:
		return "year"
	case trimmed(in.Location) == "":
		return "location"
	case trimmed(in.ReportType) == "":
		return "reportType"
	case trimmed(in.PdfURL) == "":
		return "pdfUrl"
	}
	return ""
}

// EmptiedField returns the first required field an update would blank out, or ""
func (in MarketReportInput) EmptiedField() string {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"title", in.Title},
		{"location", in.Location},
		{"reportType", in.ReportType},
		{"pdfUrl", in.PdfURL},
	} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return f.name
		}
	}
	if in.Year != nil {
		if y := looseInt(in.Year); y == nil || *y <= 0 {
			return "year"
		}
	}
	return ""
}

// NewReport builds a report from a complete input. Publication defaults to now.
func (in MarketReportInput) NewReport(now time.Time) (MarketReport, error) {
	r := MarketReport{
		Tags:        []string{},
		PublishedAt: now,
	}
	if err := in.Apply(&r); err != nil {
		return MarketReport{}, err
	}
	return r, nil
}

// Apply copies every present field onto r
func (in MarketReportInput) Apply(r *MarketReport) error {
	if in.PublishedAt != nil && strings.TrimSpace(*in.PublishedAt) != "" {
		t, err := parsePublishedAt(*in.PublishedAt)
		if err != nil {
			return err
		}
		r.PublishedAt = t
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&r.Title, in.Title)
	setString(&r.Description, in.Description)
	setString(&r.Quarter, in.Quarter)
	setString(&r.Location, in.Location)
	setString(&r.ReportType, in.ReportType)
	setString(&r.PdfURL, in.PdfURL)
	setString(&r.CoverImageURL, in.CoverImageURL)
	setString(&r.FileSize, in.FileSize)
	setString(&r.Summary, in.Summary)

	if y := looseInt(in.Year); y != nil {
		r.Year = *y
	}
	if in.IsLatest != nil {
		r.IsLatest = *in.IsLatest
	}
	if in.IsFeatured != nil {
		r.IsFeatured = *in.IsFeatured
	}
	if in.Tags != nil {
		r.Tags = append([]string{}, in.Tags...)
	}
	return nil
}

func parsePublishedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPublishedAt, s)
}
