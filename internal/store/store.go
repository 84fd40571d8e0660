// Package store persists property listings behind a single interface so the search
// engine never depends on a concrete storage mechanism.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"makelaardij/server/internal/models"
	"makelaardij/server/internal/pricing"
)

var (
	ErrNotFound = errors.New("property not found")
	ErrConflict = errors.New("property with this ID already exists")
)

// ValidationError reports a property that cannot be written
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Missing required field: %s", e.Field)
}

// PropertyStore is implemented by every listing backend
type PropertyStore interface {
	List(ctx context.Context) ([]models.Property, error)
	Get(ctx context.Context, id string) (*models.Property, error)
	Create(ctx context.Context, p models.Property) (*models.Property, error)
	Update(ctx context.Context, id string, patch models.PropertyPatch) (*models.Property, error)
	Delete(ctx context.Context, id string) error
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugHyphens = regexp.MustCompile(`-+`)
)

// Slugify turns a title into a URL-safe identifier: lowercase, punctuation
// stripped, whitespace runs replaced by a single hyphen.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// prepareNew validates a new property, assigns its identifier and fills defaults
func prepareNew(p models.Property, now time.Time) (models.Property, error) {
	p = p.Clone()

	required := []struct {
		field string
		value string
	}{
		{"title", p.Title},
		{"location", p.Location},
		{"price", p.Price},
		{"description", p.Description},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return p, &ValidationError{Field: r.field}
		}
	}

	if err := validateValues(&p); err != nil {
		return p, err
	}

	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = Slugify(p.Title)
	}
	if p.ID == "" {
		return p, &ValidationError{Field: "id", Message: "Could not derive an ID from the title"}
	}
	if p.ID != Slugify(p.ID) {
		return p, &ValidationError{Field: "id", Message: "ID must be lowercase letters, digits and hyphens"}
	}

	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Status == "" {
		p.Status = "available"
	}
	if p.EnergyLabel == "" {
		p.EnergyLabel = "A"
	}
	if p.Rating == 0 {
		p.Rating = 5
	}
	if p.YearBuilt == 0 {
		p.YearBuilt = now.Year()
	}

	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

// applyPatch validates a patch against an existing property and returns the result
func applyPatch(existing models.Property, patch models.PropertyPatch, now time.Time) (models.Property, error) {
	p := existing.Clone()
	patch.Apply(&p)

	if strings.TrimSpace(p.Title) == "" {
		return existing, &ValidationError{Field: "title", Message: "Title cannot be empty"}
	}
	if strings.TrimSpace(p.Location) == "" {
		return existing, &ValidationError{Field: "location", Message: "Location cannot be empty"}
	}
	if err := validateValues(&p); err != nil {
		return existing, err
	}

	p.UpdatedAt = now
	return p, nil
}

func validateValues(p *models.Property) error {
	// The read path treats unparseable prices as zero, so reject them here
	if !pricing.Valid(p.Price) {
		return &ValidationError{Field: "price", Message: fmt.Sprintf("Price %q is not a valid amount", p.Price)}
	}
	if p.Bedrooms < 0 {
		return &ValidationError{Field: "bedrooms", Message: "Bedrooms cannot be negative"}
	}
	if p.Bathrooms < 0 {
		return &ValidationError{Field: "bathrooms", Message: "Bathrooms cannot be negative"}
	}
	if p.Area < 0 {
		return &ValidationError{Field: "area", Message: "Area cannot be negative"}
	}
	return nil
}

// Seed creates the given properties when s is empty. It returns the number created.
func Seed(ctx context.Context, s PropertyStore, props []models.Property) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list properties: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for _, p := range props {
		if _, err := s.Create(ctx, p); err != nil {
			return created, fmt.Errorf("failed to seed property %q: %w", p.Title, err)
		}
		created++
	}
	return created, nil
}
