// Package testhelpers provides an in-memory implementation of every store
// interface in the service so packages can be tested without a database.
package testhelpers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"reuse-atlas/internal/geocache"
	"reuse-atlas/internal/models"

	"github.com/google/uuid"
)

// MemStore is a goroutine-safe in-memory record store. Rows are kept in
// insertion order, which is also the order FindActiveNear scans them.
type MemStore struct {
	mu sync.Mutex

	analyses        []models.NeighborhoodAnalysis
	ghostSites      []models.GhostSite
	archive         []models.ArchiveEntry
	recommendations []models.ReuseRecommendation
	purgeLogs       []models.AnalysisPurgeLog

	// Err, when set, is returned by every operation
	Err error
	// Writes counts successful inserts and deletes
	Writes int
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

// AddGhostSite seeds a ghost site, assigning an ID when missing
func (m *MemStore) AddGhostSite(s models.GhostSite) models.GhostSite {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.ghostSites = append(m.ghostSites, s)
	return s
}

// AddArchiveEntry seeds an archive entry, assigning an ID when missing
func (m *MemStore) AddArchiveEntry(e models.ArchiveEntry) models.ArchiveEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.archive = append(m.archive, e)
	return e
}

// AddAnalysis seeds an analysis as-is
func (m *MemStore) AddAnalysis(a models.NeighborhoodAnalysis) models.NeighborhoodAnalysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.analyses = append(m.analyses, a)
	return a
}

// Analyses returns a copy of the stored analyses
func (m *MemStore) Analyses() []models.NeighborhoodAnalysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.NeighborhoodAnalysis(nil), m.analyses...)
}

// Recommendations returns a copy of the stored recommendations
func (m *MemStore) Recommendations() []models.ReuseRecommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ReuseRecommendation(nil), m.recommendations...)
}

// ArchiveSnapshot returns a copy of the archive table
func (m *MemStore) ArchiveSnapshot() []models.ArchiveEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ArchiveEntry(nil), m.archive...)
}

func (m *MemStore) FindActiveNear(_ context.Context, lat, lng, tolerance float64, now time.Time) (*models.NeighborhoodAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.analyses {
		a := m.analyses[i]
		if geocache.Matches(&a, lat, lng, tolerance, now) {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *MemStore) CreateAnalysis(_ context.Context, a *models.NeighborhoodAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.analyses = append(m.analyses, *a)
	m.Writes++
	return nil
}

func (m *MemStore) CountAnalyses(_ context.Context, now time.Time) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, 0, m.Err
	}
	var fresh, expired int64
	for _, a := range m.analyses {
		if a.ExpiresAt.After(now) {
			fresh++
		} else {
			expired++
		}
	}
	return fresh, expired, nil
}

func (m *MemStore) referenced(id uuid.UUID) bool {
	for _, r := range m.recommendations {
		if r.AnalysisID != nil && *r.AnalysisID == id {
			return true
		}
	}
	return false
}

func (m *MemStore) FindPurgeableAnalyses(_ context.Context, cutoff time.Time, limit int) ([]models.NeighborhoodAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.NeighborhoodAnalysis
	for _, a := range m.analyses {
		if a.ExpiresAt.Before(cutoff) && !m.referenced(a.ID) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) PurgeAnalysis(_ context.Context, a *models.NeighborhoodAnalysis, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i := range m.analyses {
		if m.analyses[i].ID == a.ID && !m.referenced(a.ID) {
			m.analyses = append(m.analyses[:i], m.analyses[i+1:]...)
			m.purgeLogs = append(m.purgeLogs, models.AnalysisPurgeLog{
				ID:              uint(len(m.purgeLogs) + 1),
				AnalysisID:      a.ID,
				CenterLatitude:  a.CenterLatitude,
				CenterLongitude: a.CenterLongitude,
				ExpiredAt:       a.ExpiresAt,
				PurgedAt:        time.Now(),
				Reason:          reason,
			})
			m.Writes++
			return nil
		}
	}
	return errNotPurgeable
}

func (m *MemStore) RecentPurgeLogs(_ context.Context, limit int) ([]models.AnalysisPurgeLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.AnalysisPurgeLog, 0, len(m.purgeLogs))
	for i := len(m.purgeLogs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.purgeLogs[i])
	}
	return out, nil
}

func (m *MemStore) PurgeLogCounts(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	counts := make(map[string]int64)
	for _, l := range m.purgeLogs {
		counts[l.Reason]++
	}
	return counts, nil
}

func (m *MemStore) GetGhostSite(_ context.Context, id uuid.UUID) (*models.GhostSite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.ghostSites {
		if m.ghostSites[i].ID == id {
			s := m.ghostSites[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MemStore) ListGhostSites(_ context.Context, f models.GhostSiteFilters) ([]models.GhostSite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.GhostSite, 0)
	for _, s := range m.ghostSites {
		if f.City != "" && !containsFold(s.City, f.City) {
			continue
		}
		if f.Country != "" && !containsFold(s.Country, f.Country) {
			continue
		}
		if f.MinProbability != nil && s.AbandonmentProbability < *f.MinProbability {
			continue
		}
		if f.MinLotSize != nil && (s.LotSizeSqm == nil || *s.LotSizeSqm < *f.MinLotSize) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AbandonmentProbability > out[j].AbandonmentProbability
	})
	return page(out, f.Offset, f.Limit), nil
}

func (m *MemStore) CountGhostSites(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.ghostSites)), nil
}

func (m *MemStore) TopConversions(_ context.Context, limit int) ([]models.ArchiveEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.ArchiveEntry, 0)
	for _, e := range m.archive {
		if e.IsConversion {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ActivationScore, out[j].ActivationScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return page(out, 0, limit), nil
}

func (m *MemStore) SearchArchive(_ context.Context, f models.ArchiveFilters) ([]models.ArchiveEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.ArchiveEntry, 0)
	for _, e := range m.archive {
		if f.City != "" && !containsFold(e.City, f.City) {
			continue
		}
		if f.Country != "" && !containsFold(e.Country, f.Country) {
			continue
		}
		if f.Function != "" && !containsFoldPtr(e.OriginalFunction, f.Function) && !containsFoldPtr(e.CurrentFunction, f.Function) {
			continue
		}
		if f.ConversionOnly && !e.IsConversion {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Offset, f.Limit), nil
}

func (m *MemStore) ArchivePage(_ context.Context, offset, limit int) ([]models.ArchiveEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return page(append([]models.ArchiveEntry(nil), m.archive...), offset, limit), nil
}

func (m *MemStore) CountArchive(_ context.Context) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, 0, m.Err
	}
	var conversions int64
	for _, e := range m.archive {
		if e.IsConversion {
			conversions++
		}
	}
	return int64(len(m.archive)), conversions, nil
}

func (m *MemStore) CreateRecommendation(_ context.Context, r *models.ReuseRecommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.recommendations = append(m.recommendations, *r)
	m.Writes++
	return nil
}

func (m *MemStore) ListRecommendations(_ context.Context, ghostSiteID uuid.UUID, limit int) ([]models.ReuseRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.ReuseRecommendation, 0)
	for i := len(m.recommendations) - 1; i >= 0; i-- {
		if m.recommendations[i].GhostSiteID == ghostSiteID {
			out = append(out, m.recommendations[i])
		}
	}
	return page(out, 0, limit), nil
}

func (m *MemStore) CountRecommendations(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.recommendations)), nil
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return rows[:0]
	}
	rows = rows[offset:]
	if limit >= 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func containsFoldPtr(s *string, sub string) bool {
	return s != nil && containsFold(*s, sub)
}

var errNotPurgeable = errors.New("analysis is referenced or already gone")
