package neighborhood

import (
	"context"
	"fmt"
	"math"

	"reuse-atlas/internal/apperrors"
	"reuse-atlas/internal/models"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	missingCoordinates = "Missing required fields: latitude, longitude."

	// radii are stored in a 32-bit column
	maxRadiusMeters = math.MaxInt32
)

// Cache is the subset of geocache.Cache the analyzer needs
type Cache interface {
	Lookup(ctx context.Context, lat, lng float64) (*models.NeighborhoodAnalysis, error)
	Store(ctx context.Context, a *models.NeighborhoodAnalysis) error
}

// AnalyzeRequest carries raw client values. Coordinates and radius may be
// JSON numbers or numeric strings.
type AnalyzeRequest struct {
	Latitude     any `json:"latitude"`
	Longitude    any `json:"longitude"`
	RadiusMeters any `json:"radiusMeters"`
}

// Result is an analysis tagged with whether it came from the cache
type Result struct {
	Analysis  *models.NeighborhoodAnalysis
	FromCache bool
}

// Analyzer does cache-aside management of neighborhood analyses. It never
// computes the analysis itself; a miss stores a placeholder that the
// enrichment pipeline fills in later.
type Analyzer struct {
	cache  Cache
	logger *zap.Logger
}

func NewAnalyzer(cache Cache, logger *zap.Logger) *Analyzer {
	return &Analyzer{cache: cache, logger: logger.Named("neighborhood")}
}

// Analyze returns the cached analysis near the requested point, or stores
// and returns a pending placeholder. A hit is returned untouched; its expiry
// is not extended.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*Result, error) {
	lat, lng, radius, err := parseRequest(req)
	if err != nil {
		return nil, err
	}

	cached, err := a.cache.Lookup(ctx, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("neighborhood cache lookup: %w", err)
	}
	if cached != nil {
		return &Result{Analysis: cached, FromCache: true}, nil
	}

	diagnosis := models.PendingDiagnosis
	analysis := &models.NeighborhoodAnalysis{
		CenterLatitude:   lat,
		CenterLongitude:  lng,
		RadiusMeters:     radius,
		DiagnosisText:    &diagnosis,
		MissingAmenities: datatypes.JSONSlice[string]{},
	}
	if err := a.cache.Store(ctx, analysis); err != nil {
		return nil, fmt.Errorf("store placeholder analysis: %w", err)
	}

	a.logger.Info("created pending analysis",
		zap.String("analysis_id", analysis.ID.String()),
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
		zap.Int("radius_m", radius))

	return &Result{Analysis: analysis, FromCache: false}, nil
}

func parseRequest(req AnalyzeRequest) (lat, lng float64, radius int, err error) {
	if isAbsent(req.Latitude) || isAbsent(req.Longitude) {
		return 0, 0, 0, apperrors.NewValidation(missingCoordinates)
	}

	lat, err = toFinite("latitude", req.Latitude)
	if err != nil {
		return 0, 0, 0, err
	}
	lng, err = toFinite("longitude", req.Longitude)
	if err != nil {
		return 0, 0, 0, err
	}

	radius = models.DefaultRadiusMeters
	if !isAbsent(req.RadiusMeters) {
		r, err := toFinite("radiusMeters", req.RadiusMeters)
		if err != nil {
			return 0, 0, 0, err
		}
		if r < 1 || r > maxRadiusMeters {
			return 0, 0, 0, apperrors.NewValidation("Invalid radiusMeters: expected a positive number up to %d.", maxRadiusMeters)
		}
		radius = int(r)
	}

	return lat, lng, radius, nil
}

// isAbsent treats nil and blank strings as missing
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// toFinite coerces v to a finite float; NaN and infinities are rejected so
// they never reach the proximity comparison
func toFinite(field string, v any) (float64, error) {
	if _, isBool := v.(bool); isBool {
		return 0, apperrors.NewValidation("Invalid %s: expected a number.", field)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperrors.NewValidation("Invalid %s: expected a number.", field)
	}
	return f, nil
}
