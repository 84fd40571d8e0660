package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SearchFilters is the nested filter object of a property search. It is also the
// persisted form of a saved search.
type SearchFilters struct {
	Location    string    `json:"location,omitempty"`
	MinPrice    *int64    `json:"min_price,omitempty"`
	MaxPrice    *int64    `json:"max_price,omitempty"`
	Bedrooms    *int      `json:"bedrooms,omitempty"`
	Bathrooms   *int      `json:"bathrooms,omitempty"`
	EnergyLabel string    `json:"energy_label,omitempty"`
	Status      string    `json:"status,omitempty"`
	Bounds      []float64 `json:"bounds,omitempty"` // min_lng, min_lat, max_lng, max_lat
	SortBy      string    `json:"sort_by,omitempty"`
}

// SearchCriteria is a free-text query combined with filters
type SearchCriteria struct {
	Query   string        `json:"query"`
	Filters SearchFilters `json:"filters"`
}

// UnmarshalJSON decodes filters leniently: numbers may arrive as JSON numbers or
// numeric strings, and anything that does not parse leaves the filter unset instead
// of failing the request.
func (f *SearchFilters) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not an object at all: treat as no filters
		*f = SearchFilters{}
		return nil
	}

	*f = SearchFilters{
		Location:    looseString(raw["location"]),
		MinPrice:    looseInt64(raw["min_price"]),
		MaxPrice:    looseInt64(raw["max_price"]),
		Bedrooms:    looseInt(raw["bedrooms"]),
		Bathrooms:   looseInt(raw["bathrooms"]),
		EnergyLabel: looseString(raw["energy_label"]),
		Status:      looseString(raw["status"]),
		SortBy:      looseString(raw["sort_by"]),
	}

	if b, ok := raw["bounds"].([]any); ok && len(b) == 4 {
		bounds := make([]float64, 0, 4)
		for _, v := range b {
			n, ok := looseFloat(v)
			if !ok {
				bounds = nil
				break
			}
			bounds = append(bounds, n)
		}
		f.Bounds = bounds
	}
	return nil
}

func looseString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func looseFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// looseInt64 treats zero like a missing filter
func looseInt64(v any) *int64 {
	f, ok := looseFloat(v)
	if !ok || !FloatFitsInt64(f) {
		return nil
	}
	n := int64(f)
	if n == 0 {
		return nil
	}
	return &n
}

// FloatFitsInt64 reports whether f truncates to an int64 without overflow.
// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
func FloatFitsInt64(f float64) bool {
	return !math.IsNaN(f) && f >= math.MinInt64 && f < math.MaxInt64
}

func looseInt(v any) *int {
	n := looseInt64(v)
	if n == nil || *n > math.MaxInt32 || *n < math.MinInt32 {
		return nil
	}
	i := int(*n)
	return &i
}
