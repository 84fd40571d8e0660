// Package search filters and orders property collections.
package search

import (
	"sort"
	"strings"

	"github.com/paulmach/orb"

	"makelaardij/server/internal/models"
	"makelaardij/server/internal/pricing"
)

// SortOrder names an ordering of search results
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortAreaAsc   SortOrder = "area_asc"
	SortAreaDesc  SortOrder = "area_desc"
)

// Criteria configures a search. Zero values and nil pointers mean "no constraint".
type Criteria struct {
	LocationContains string
	MinPrice         *int64
	MaxPrice         *int64
	MinBedrooms      *int
	MinBathrooms     *int
	Status           string
	EnergyLabel      string
	Query            string
	Bounds           *orb.Bound
	SortBy           SortOrder
}

// Result is the filtered, ordered subset of a collection
type Result struct {
	Properties []models.Property `json:"properties"`
	Total      int               `json:"total"`
}

// Apply returns the properties matching every active predicate of c, ordered by
// c.SortBy. The input slice is not modified.
func Apply(props []models.Property, c Criteria) Result {
	matched := make([]models.Property, 0, len(props))
	for i := range props {
		if c.Matches(&props[i]) {
			matched = append(matched, props[i])
		}
	}

	Sort(matched, c.SortBy)

	return Result{Properties: matched, Total: len(matched)}
}

// Matches reports whether p passes every active predicate
func (c Criteria) Matches(p *models.Property) bool {
	if c.LocationContains != "" && !containsFold(p.Location, c.LocationContains) {
		return false
	}

	if c.MinPrice != nil || c.MaxPrice != nil {
		price := pricing.Parse(p.Price)
		if c.MinPrice != nil && price < *c.MinPrice {
			return false
		}
		if c.MaxPrice != nil && price > *c.MaxPrice {
			return false
		}
	}

	if c.MinBedrooms != nil && p.Bedrooms < *c.MinBedrooms {
		return false
	}
	if c.MinBathrooms != nil && p.Bathrooms < *c.MinBathrooms {
		return false
	}

	if c.Status != "" && !strings.EqualFold(p.Status, c.Status) {
		return false
	}

	// Labels are single uppercase grades, compared exactly
	if c.EnergyLabel != "" && p.EnergyLabel != c.EnergyLabel {
		return false
	}

	if c.Query != "" && !matchesQuery(p, c.Query) {
		return false
	}

	if c.Bounds != nil {
		if !p.HasCoordinates() {
			return false
		}
		if !c.Bounds.Contains(orb.Point{*p.Longitude, *p.Latitude}) {
			return false
		}
	}

	return true
}

// matchesQuery is an OR across the free-text fields
func matchesQuery(p *models.Property, query string) bool {
	if containsFold(p.Title, query) || containsFold(p.Location, query) || containsFold(p.Description, query) {
		return true
	}
	for _, feature := range p.Features {
		if containsFold(feature, query) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Sort orders props in place by the given order. The sort is stable; unknown orders
// leave props untouched and an empty order means newest first.
func Sort(props []models.Property, order SortOrder) {
	var less func(a, b *models.Property) bool

	switch order {
	case "", SortNewest:
		less = func(a, b *models.Property) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortPriceAsc:
		less = func(a, b *models.Property) bool { return pricing.Parse(a.Price) < pricing.Parse(b.Price) }
	case SortPriceDesc:
		less = func(a, b *models.Property) bool { return pricing.Parse(a.Price) > pricing.Parse(b.Price) }
	case SortAreaAsc:
		less = func(a, b *models.Property) bool { return a.Area < b.Area }
	case SortAreaDesc:
		less = func(a, b *models.Property) bool { return a.Area > b.Area }
	default:
		return
	}

	sort.SliceStable(props, func(i, j int) bool {
		return less(&props[i], &props[j])
	})
}

// FromFilters builds criteria from a free-text query and a filter object, as sent
// to the search endpoint or stored with a saved search.
func FromFilters(query string, f models.SearchFilters) Criteria {
	c := Criteria{
		LocationContains: f.Location,
		MinPrice:         f.MinPrice,
		MaxPrice:         f.MaxPrice,
		MinBedrooms:      f.Bedrooms,
		MinBathrooms:     f.Bathrooms,
		Status:           f.Status,
		EnergyLabel:      f.EnergyLabel,
		Query:            strings.TrimSpace(query),
		SortBy:           SortOrder(f.SortBy),
	}

	if len(f.Bounds) == 4 {
		b := orb.Bound{
			Min: orb.Point{f.Bounds[0], f.Bounds[1]},
			Max: orb.Point{f.Bounds[2], f.Bounds[3]},
		}
		// Accept corners in either order
		b = orb.MultiPoint{b.Min, b.Max}.Bound()
		c.Bounds = &b
	}

	return c
}
