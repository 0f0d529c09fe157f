//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"reuse-atlas/internal/config"
	"reuse-atlas/internal/models"
	"reuse-atlas/internal/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

// openTestDB connects to the shared container, migrates, and empties every
// table so each test starts clean
func openTestDB(t *testing.T) *GormDB {
	t.Helper()

	gdb, err := Open(config.DatabaseConfig{
		Type:     "postgres",
		Postgres: testhelpers.GetPostgres(t),
	}, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gdb.Close() })

	require.NoError(t, gdb.InitSchema())
	require.NoError(t, gdb.db.Exec(`TRUNCATE neighborhood_analyses, ghost_sites, archive_entries,
		reuse_recommendations, analysis_purge_logs`).Error)
	return gdb
}

func insertAnalysis(t *testing.T, gdb *GormDB, lat, lng float64, expiresAt time.Time) models.NeighborhoodAnalysis {
	t.Helper()
	a := models.NeighborhoodAnalysis{
		ID:              uuid.New(),
		CenterLatitude:  lat,
		CenterLongitude: lng,
		RadiusMeters:    800,
		ComputedAt:      expiresAt.Add(-30 * 24 * time.Hour),
		ExpiresAt:       expiresAt,
	}
	require.NoError(t, gdb.CreateAnalysis(context.Background(), &a))
	return a
}

func insertEntry(t *testing.T, gdb *GormDB, e models.ArchiveEntry) models.ArchiveEntry {
	t.Helper()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Country == "" {
		e.Country = "Netherlands"
	}
	require.NoError(t, gdb.db.Create(&e).Error)
	return e
}

func TestFindActiveNear(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()

	fresh := insertAnalysis(t, gdb, -32.0569, 115.7439, testNow.Add(time.Hour))
	insertAnalysis(t, gdb, 51.5000, -0.1000, testNow.Add(-time.Minute))

	tests := []struct {
		name     string
		lat, lng float64
		wantHit  bool
	}{
		{name: "exact centre", lat: -32.0569, lng: 115.7439, wantHit: true},
		{name: "inside on both axes", lat: -32.0569 + 0.0019, lng: 115.7439 - 0.0019, wantHit: true},
		{name: "outside on latitude", lat: -32.0569 + 0.0025, lng: 115.7439},
		{name: "outside on longitude", lat: -32.0569, lng: 115.7439 - 0.003},
		{name: "expired row is ignored", lat: 51.5000, lng: -0.1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gdb.FindActiveNear(ctx, tt.lat, tt.lng, 0.002, testNow)
			require.NoError(t, err)
			if !tt.wantHit {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, fresh.ID, got.ID)
		})
	}
}

func TestFindActiveNear_ExpiryIsExclusive(t *testing.T) {
	gdb := openTestDB(t)
	a := insertAnalysis(t, gdb, 10, 10, testNow)

	got, err := gdb.FindActiveNear(context.Background(), 10, 10, 0.002, a.ExpiresAt)
	require.NoError(t, err)
	assert.Nil(t, got, "an analysis expiring exactly now is stale")
}

func TestTopConversions_NullsLastConversionsOnly(t *testing.T) {
	gdb := openTestDB(t)

	unscored := insertEntry(t, gdb, models.ArchiveEntry{Name: "Unscored", City: "Delft", IsConversion: true})
	low := insertEntry(t, gdb, models.ArchiveEntry{Name: "Low", City: "Delft", IsConversion: true, ActivationScore: intPtr(40)})
	high := insertEntry(t, gdb, models.ArchiveEntry{Name: "High", City: "Delft", IsConversion: true, ActivationScore: intPtr(90)})
	insertEntry(t, gdb, models.ArchiveEntry{Name: "Not a conversion", City: "Delft", ActivationScore: intPtr(99)})

	got, err := gdb.TopConversions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []uuid.UUID{high.ID, low.ID, unscored.ID}, []uuid.UUID{got[0].ID, got[1].ID, got[2].ID})

	top, err := gdb.TopConversions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, high.ID, top[0].ID)
}

func TestSearchArchive_CaseInsensitiveFilters(t *testing.T) {
	gdb := openTestDB(t)

	silo := insertEntry(t, gdb, models.ArchiveEntry{
		Name:             "Grain Silo",
		City:             "Rotterdam",
		OriginalFunction: strPtr("Grain Silo"),
		CurrentFunction:  strPtr("Housing"),
		IsConversion:     true,
	})
	hall := insertEntry(t, gdb, models.ArchiveEntry{
		Name:             "Town Hall",
		City:             "Utrecht",
		OriginalFunction: strPtr("Civic"),
	})

	tests := []struct {
		name    string
		filters models.ArchiveFilters
		wantIDs []uuid.UUID
	}{
		{name: "city mixed case", filters: models.ArchiveFilters{City: "rOTTER"}, wantIDs: []uuid.UUID{silo.ID}},
		{name: "country substring", filters: models.ArchiveFilters{Country: "NETHER"}, wantIDs: []uuid.UUID{silo.ID, hall.ID}},
		{name: "current function", filters: models.ArchiveFilters{Function: "HOUSING"}, wantIDs: []uuid.UUID{silo.ID}},
		{name: "original function", filters: models.ArchiveFilters{Function: "silo"}, wantIDs: []uuid.UUID{silo.ID}},
		{name: "conversions only", filters: models.ArchiveFilters{ConversionOnly: true}, wantIDs: []uuid.UUID{silo.ID}},
		{name: "no match", filters: models.ArchiveFilters{City: "Paris"}, wantIDs: []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filters.Limit = 50
			got, err := gdb.SearchArchive(context.Background(), tt.filters)
			require.NoError(t, err)
			ids := make([]uuid.UUID, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func TestPurgeAnalysis_KeepsReferencedRows(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	cutoff := testNow.AddDate(0, 0, -90)

	orphan := insertAnalysis(t, gdb, 1, 1, cutoff.Add(-24*time.Hour))
	cited := insertAnalysis(t, gdb, 2, 2, cutoff.Add(-48*time.Hour))
	insertAnalysis(t, gdb, 3, 3, cutoff.Add(24*time.Hour))

	require.NoError(t, gdb.CreateRecommendation(ctx, &models.ReuseRecommendation{
		ID:                uuid.New(),
		GhostSiteID:       uuid.New(),
		AnalysisID:        &cited.ID,
		SuggestedFunction: "Community space conversion",
		ConfidenceScore:   0.30,
		Rationale:         "0 global case studies matched for adaptive reuse.",
		CreatedAt:         testNow,
	}))

	purgeable, err := gdb.FindPurgeableAnalyses(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, purgeable, 1)
	assert.Equal(t, orphan.ID, purgeable[0].ID)

	require.NoError(t, gdb.PurgeAnalysis(ctx, &purgeable[0], models.PurgeReasonRetention))

	err = gdb.PurgeAnalysis(ctx, &cited, models.PurgeReasonManual)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "referenced or already gone")

	fresh, expired, err := gdb.CountAnalyses(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh)
	assert.Equal(t, int64(2), expired, "the cited and retained analyses survive")

	logs, err := gdb.RecentPurgeLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, orphan.ID, logs[0].AnalysisID)

	counts, err := gdb.PurgeLogCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{models.PurgeReasonRetention: 1}, counts)
}
