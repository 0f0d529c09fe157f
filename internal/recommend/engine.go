// Package recommend turns a ghost site, any cached neighborhood analysis near
// it and the strongest archive precedents into a persisted reuse
// recommendation.
package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reuse-atlas/internal/apperrors"
	"reuse-atlas/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PrecedentLimit is how many top conversions feed one recommendation
	PrecedentLimit = 3

	ConfidenceWithPrecedents    = 0.65
	ConfidenceWithoutPrecedents = 0.30

	DefaultFunction = "Community space conversion"

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)

// SiteStore reads ghost sites. GetGhostSite returns nil, nil when absent.
type SiteStore interface {
	GetGhostSite(ctx context.Context, id uuid.UUID) (*models.GhostSite, error)
}

// AnalysisLookup finds a fresh analysis near a point without computing one
type AnalysisLookup interface {
	Lookup(ctx context.Context, lat, lng float64) (*models.NeighborhoodAnalysis, error)
}

// PrecedentSource ranks archive conversions
type PrecedentSource interface {
	TopConversions(ctx context.Context, limit int) ([]models.ArchiveEntry, error)
}

// RecommendationStore appends and lists recommendations
type RecommendationStore interface {
	CreateRecommendation(ctx context.Context, r *models.ReuseRecommendation) error
	ListRecommendations(ctx context.Context, ghostSiteID uuid.UUID, limit int) ([]models.ReuseRecommendation, error)
}

// Result is a new recommendation with everything used to produce it
type Result struct {
	Recommendation       *models.ReuseRecommendation  `json:"recommendation"`
	CaseStudies          []models.ArchiveEntry        `json:"caseStudies"`
	NeighborhoodAnalysis *models.NeighborhoodAnalysis `json:"neighborhoodAnalysis"`
}

// Engine synthesizes recommendations
type Engine struct {
	sites           SiteStore
	analyses        AnalysisLookup
	precedents      PrecedentSource
	recommendations RecommendationStore
	logger          *zap.Logger
	now             func() time.Time
}

// NewEngine creates an Engine
func NewEngine(sites SiteStore, analyses AnalysisLookup, precedents PrecedentSource, recommendations RecommendationStore, logger *zap.Logger) *Engine {
	return &Engine{
		sites:           sites,
		analyses:        analyses,
		precedents:      precedents,
		recommendations: recommendations,
		logger:          logger.Named("recommend"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock used for CreatedAt, for tests
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Recommend generates and stores a recommendation for the given ghost site.
// An analysis is only reused from the cache, never computed here.
func (e *Engine) Recommend(ctx context.Context, ghostSiteID string) (*Result, error) {
	site, err := e.loadSite(ctx, ghostSiteID, "Missing required field: ghostSiteId")
	if err != nil {
		return nil, err
	}

	analysis, err := e.analyses.Lookup(ctx, site.Latitude, site.Longitude)
	if err != nil {
		return nil, fmt.Errorf("lookup neighborhood analysis: %w", err)
	}

	precedents, err := e.precedents.TopConversions(ctx, PrecedentLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch precedents: %w", err)
	}
	if precedents == nil {
		precedents = []models.ArchiveEntry{}
	}

	caseStudyIDs := make([]string, len(precedents))
	for i, p := range precedents {
		caseStudyIDs[i] = p.ID.String()
	}

	rec := &models.ReuseRecommendation{
		ID:                uuid.New(),
		GhostSiteID:       site.ID,
		SuggestedFunction: SuggestFunction(site),
		ConfidenceScore:   Confidence(len(precedents)),
		Rationale:         Rationale(analysis, len(precedents)),
		CaseStudyIDs:      caseStudyIDs,
		CreatedAt:         e.now(),
	}
	if analysis != nil {
		id := analysis.ID
		rec.AnalysisID = &id
	}

	if err := e.recommendations.CreateRecommendation(ctx, rec); err != nil {
		return nil, fmt.Errorf("store recommendation: %w", err)
	}

	e.logger.Info("recommendation created",
		zap.String("ghost_site_id", site.ID.String()),
		zap.String("recommendation_id", rec.ID.String()),
		zap.Int("precedents", len(precedents)),
		zap.Bool("with_analysis", analysis != nil))

	return &Result{
		Recommendation:       rec,
		CaseStudies:          precedents,
		NeighborhoodAnalysis: analysis,
	}, nil
}

// History lists earlier recommendations for a ghost site, newest first
func (e *Engine) History(ctx context.Context, ghostSiteID string, limit int) ([]models.ReuseRecommendation, error) {
	site, err := e.loadSite(ctx, ghostSiteID, "Missing required parameter: id")
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	recs, err := e.recommendations.ListRecommendations(ctx, site.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}

func (e *Engine) loadSite(ctx context.Context, rawID, missingMsg string) (*models.GhostSite, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, apperrors.NewValidation("%s", missingMsg)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperrors.NewValidation("Invalid ghostSiteId: %s", rawID)
	}

	site, err := e.sites.GetGhostSite(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ghost site: %w", err)
	}
	if site == nil {
		return nil, apperrors.NewNotFound("Ghost site", rawID)
	}
	return site, nil
}

// SuggestFunction derives the suggested reuse from the site's last known
// function
func SuggestFunction(site *models.GhostSite) string {
	if fn := strings.TrimSpace(site.KnownFunction()); fn != "" {
		return "Adaptive reuse of former " + fn
	}
	return DefaultFunction
}

// Confidence is a two-tier step on whether any precedent matched
func Confidence(precedents int) float64 {
	if precedents > 0 {
		return ConfidenceWithPrecedents
	}
	return ConfidenceWithoutPrecedents
}

// Rationale explains the recommendation in one or two sentences
func Rationale(analysis *models.NeighborhoodAnalysis, precedents int) string {
	if analysis != nil && analysis.HasDiagnosis() {
		return fmt.Sprintf("Based on neighborhood analysis: %s Matched %d global precedent(s).", *analysis.DiagnosisText, precedents)
	}
	return fmt.Sprintf("%d global case studies matched for adaptive reuse. Run neighborhood analysis for a more specific recommendation.", precedents)
}
