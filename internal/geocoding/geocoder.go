package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"makelaardij/server/internal/models"
	"makelaardij/server/internal/store"
)

var ErrNoResults = errors.New("no results found")

type Geocoder struct {
	logger    *logrus.Logger
	cacheDir  string
	cache     map[string][]float64
	cacheLock sync.RWMutex
	client    *resty.Client
	delay     time.Duration
	mu        sync.Mutex // Serializes requests so the politeness delay holds
}

// NewGeocoder creates a Nominatim client. An empty cacheDir keeps the cache in memory only.
func NewGeocoder(baseURL, userAgent, cacheDir string, logger *logrus.Logger) *Geocoder {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Language", "nl-NL,nl;q=0.9,en-US;q=0.8,en;q=0.7")

	g := &Geocoder{
		logger:   logger,
		cacheDir: cacheDir,
		cache:    make(map[string][]float64),
		client:   client,
		// Respect Nominatim's usage policy of one request per second
		delay: time.Second,
	}

	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logger.WithError(err).Warn("Could not create geocode cache directory")
		}
		g.loadCache()
	}

	return g
}

func (g *Geocoder) cacheFile() string {
	return filepath.Join(g.cacheDir, "geocode_cache.json")
}

func (g *Geocoder) loadCache() {
	data, err := os.ReadFile(g.cacheFile())
	if err != nil {
		g.logger.Warnf("Could not load geocode cache: %v", err)
		return
	}

	if err := json.Unmarshal(data, &g.cache); err != nil {
		g.logger.Errorf("Failed to parse geocode cache: %v", err)
		return
	}

	g.logger.Infof("Loaded %d cached addresses", len(g.cache))
}

func (g *Geocoder) saveCache() {
	if g.cacheDir == "" {
		return
	}

	g.cacheLock.RLock()
	data, err := json.Marshal(g.cache)
	g.cacheLock.RUnlock()
	if err != nil {
		g.logger.Errorf("Failed to marshal geocode cache: %v", err)
		return
	}

	if err := os.WriteFile(g.cacheFile(), data, 0644); err != nil {
		g.logger.Errorf("Failed to save geocode cache: %v", err)
	}
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Address builds the search query for a listing: its street address plus the city,
// which is the part of the location before the first comma.
func Address(p models.Property) string {
	city := p.Location
	if i := strings.Index(city, ","); i >= 0 {
		city = city[:i]
	}
	return fmt.Sprintf("%s, %s, Netherlands", strings.TrimSpace(p.Title), strings.TrimSpace(city))
}

// GeocodeAddress returns the latitude and longitude of address
func (g *Geocoder) GeocodeAddress(ctx context.Context, address string) (float64, float64, error) {
	cacheKey := strings.ToLower(address)

	g.cacheLock.RLock()
	if coords, ok := g.cache[cacheKey]; ok {
		g.cacheLock.RUnlock()
		if len(coords) == 2 {
			g.logger.WithFields(logrus.Fields{
				"address": address,
				"source":  "cache",
			}).Debug("Found coordinates in cache")
			return coords[0], coords[1], nil
		}
		return 0, 0, fmt.Errorf("invalid cached coordinates")
	}
	g.cacheLock.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.WithField("address", address).Info("Geocoding address with Nominatim")

	var result nominatimResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":            address,
			"format":       "json",
			"limit":        "1",
			"countrycodes": "nl",
		}).
		SetResult(&result).
		Get("/search")

	if g.delay > 0 {
		time.Sleep(g.delay)
	}

	if err != nil {
		g.logger.WithError(err).WithField("address", address).Error("Geocoding request failed")
		return 0, 0, fmt.Errorf("geocoding request failed: %w", err)
	}
	if resp.IsError() {
		return 0, 0, fmt.Errorf("geocoding service error (status %d)", resp.StatusCode())
	}

	if len(result) == 0 {
		g.logger.WithField("address", address).Warn("No results found")
		return 0, 0, fmt.Errorf("%w for address: %s", ErrNoResults, address)
	}

	lat, err := strconv.ParseFloat(result[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", result[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(result[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", result[0].Lon, err)
	}

	g.logger.WithFields(logrus.Fields{
		"address":   address,
		"latitude":  lat,
		"longitude": lon,
		"source":    "nominatim",
	}).Info("Successfully geocoded address")

	g.cacheLock.Lock()
	g.cache[cacheKey] = []float64{lat, lon}
	g.cacheLock.Unlock()
	g.saveCache()

	return lat, lon, nil
}

// UpdateResult summarizes a coordinate backfill
type UpdateResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// UpdateMissingCoordinates geocodes every property without coordinates and stores the result
func (g *Geocoder) UpdateMissingCoordinates(ctx context.Context, s store.PropertyStore) (UpdateResult, error) {
	var res UpdateResult

	props, err := s.List(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list properties: %w", err)
	}

	for _, p := range props {
		if p.HasCoordinates() {
			res.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		lat, lng, err := g.GeocodeAddress(ctx, Address(p))
		if err != nil {
			g.logger.WithError(err).WithField("property_id", p.ID).Warn("Failed to geocode property")
			res.Failed++
			continue
		}

		if _, err := s.Update(ctx, p.ID, models.PropertyPatch{Latitude: &lat, Longitude: &lng}); err != nil {
			g.logger.WithError(err).WithField("property_id", p.ID).Error("Failed to store coordinates")
			res.Failed++
			continue
		}
		res.Updated++
	}

	g.logger.WithFields(logrus.Fields{
		"updated": res.Updated,
		"failed":  res.Failed,
		"skipped": res.Skipped,
	}).Info("Coordinate update completed")

	return res, nil
}
