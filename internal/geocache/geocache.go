// Package geocache stores neighborhood analyses keyed by approximate
// location. A lookup matches any unexpired analysis whose centre lies inside
// a rectangular window of ±Tolerance degrees on both axes.
//
// The window is rectangular, not a great-circle radius, and 0.002° of
// longitude shrinks towards the poles. Both are accepted approximations.
package geocache

import (
	"context"
	"math"
	"time"

	"reuse-atlas/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Tolerance is the half-width of the match window in degrees (~200 m at
	// mid-latitudes). Matching is strictly less-than.
	Tolerance = 0.002

	// TTL is how long an analysis stays authoritative after it is stored
	TTL = 30 * 24 * time.Hour
)

// AnalysisStore persists analyses. FindActiveNear returns nil, nil on a miss.
type AnalysisStore interface {
	FindActiveNear(ctx context.Context, lat, lng, tolerance float64, now time.Time) (*models.NeighborhoodAnalysis, error)
	CreateAnalysis(ctx context.Context, a *models.NeighborhoodAnalysis) error
}

// Cache answers "is there a still-valid analysis near this point?"
type Cache struct {
	store  AnalysisStore
	logger *zap.Logger
	now    func() time.Time
}

// New creates a cache over store
func New(store AnalysisStore, logger *zap.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.Named("geocache"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock, for tests
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Lookup returns a fresh analysis near (lat, lng), or nil on a miss. When
// several overlap, whichever the store yields first wins.
func (c *Cache) Lookup(ctx context.Context, lat, lng float64) (*models.NeighborhoodAnalysis, error) {
	a, err := c.store.FindActiveNear(ctx, lat, lng, Tolerance, c.now())
	if err != nil {
		return nil, err
	}
	if a == nil {
		c.logger.Debug("cache miss", zap.Float64("lat", lat), zap.Float64("lng", lng))
		return nil, nil
	}
	c.logger.Debug("cache hit",
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
		zap.String("analysis_id", a.ID.String()))
	return a, nil
}

// Store stamps a as computed now, sets its expiry and inserts it. Nothing
// prevents overlapping entries for nearby points.
func (c *Cache) Store(ctx context.Context, a *models.NeighborhoodAnalysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := c.now()
	a.ComputedAt = now
	a.ExpiresAt = now.Add(TTL)
	return c.store.CreateAnalysis(ctx, a)
}

// Matches applies the lookup rule to a single analysis. Stores that filter
// in memory use it so the rule lives in one place.
func Matches(a *models.NeighborhoodAnalysis, lat, lng, tolerance float64, now time.Time) bool {
	return math.Abs(a.CenterLatitude-lat) < tolerance &&
		math.Abs(a.CenterLongitude-lng) < tolerance &&
		a.IsFresh(now)
}
