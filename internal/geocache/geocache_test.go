package geocache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reuse-atlas/internal/geocache"
	"reuse-atlas/internal/models"
	"reuse-atlas/internal/testhelpers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newCache(store geocache.AnalysisStore) *geocache.Cache {
	return geocache.New(store, zap.NewNop()).WithClock(func() time.Time { return fixedNow })
}

func freshAt(lat, lng float64) models.NeighborhoodAnalysis {
	return models.NeighborhoodAnalysis{
		ID:              uuid.New(),
		CenterLatitude:  lat,
		CenterLongitude: lng,
		RadiusMeters:    800,
		ComputedAt:      fixedNow.Add(-time.Hour),
		ExpiresAt:       fixedNow.Add(geocache.TTL - time.Hour),
	}
}

func TestLookup_FuzzyMatchWithinTolerance(t *testing.T) {
	store := testhelpers.NewMemStore()
	stored := store.AddAnalysis(freshAt(-32.0569, 115.7439))
	cache := newCache(store)

	offsets := []struct{ dLat, dLng float64 }{
		{0, 0},
		{0.0019, 0},
		{0, -0.0019},
		{-0.0015, 0.0015},
		{0.001, -0.0019},
	}
	for _, o := range offsets {
		got, err := cache.Lookup(context.Background(), stored.CenterLatitude+o.dLat, stored.CenterLongitude+o.dLng)
		require.NoError(t, err)
		require.NotNil(t, got, "offset %+v should hit", o)
		assert.Equal(t, stored.ID, got.ID)
	}
}

func TestLookup_MissOutsideTolerance(t *testing.T) {
	store := testhelpers.NewMemStore()
	stored := store.AddAnalysis(freshAt(42.8864, -78.8784))
	cache := newCache(store)

	offsets := []struct{ dLat, dLng float64 }{
		{0.003, 0},
		{-0.003, 0},
		{0, 0.003},
		{0, -0.01},
		{0.003, 0.003},
		{0.0005, 0.0031},
	}
	for _, o := range offsets {
		got, err := cache.Lookup(context.Background(), stored.CenterLatitude+o.dLat, stored.CenterLongitude+o.dLng)
		require.NoError(t, err)
		assert.Nil(t, got, "offset %+v should miss", o)
	}
}

func TestLookup_ExpiredNeverReturned(t *testing.T) {
	store := testhelpers.NewMemStore()
	expired := freshAt(-37.8676, 144.9801)
	expired.ExpiresAt = fixedNow.Add(-time.Minute)
	store.AddAnalysis(expired)

	got, err := newCache(store).Lookup(context.Background(), expired.CenterLatitude, expired.CenterLongitude)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLookup_ExpiryInstantIsStale(t *testing.T) {
	store := testhelpers.NewMemStore()
	a := freshAt(10, 10)
	a.ExpiresAt = fixedNow
	store.AddAnalysis(a)

	got, err := newCache(store).Lookup(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLookup_OverlappingEntriesReturnOne(t *testing.T) {
	store := testhelpers.NewMemStore()
	first := store.AddAnalysis(freshAt(51.5, -0.12))
	second := store.AddAnalysis(freshAt(51.5005, -0.1205))

	got, err := newCache(store).Lookup(context.Background(), 51.5002, -0.1202)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Contains(t, []uuid.UUID{first.ID, second.ID}, got.ID)
}

func TestLookup_StoreError(t *testing.T) {
	store := testhelpers.NewMemStore()
	store.Err = errors.New("connection reset")

	got, err := newCache(store).Lookup(context.Background(), 0, 0)
	assert.Nil(t, got)
	assert.EqualError(t, err, "connection reset")
}

func TestStore_SetsThirtyDayExpiry(t *testing.T) {
	store := testhelpers.NewMemStore()
	cache := newCache(store)

	a := &models.NeighborhoodAnalysis{CenterLatitude: 1, CenterLongitude: 2, RadiusMeters: 800}
	require.NoError(t, cache.Store(context.Background(), a))

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, fixedNow, a.ComputedAt)
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), a.ExpiresAt)

	rows := store.Analyses()
	require.Len(t, rows, 1)
	assert.Equal(t, a.ID, rows[0].ID)
}

func TestStore_AllowsOverlappingEntries(t *testing.T) {
	store := testhelpers.NewMemStore()
	cache := newCache(store)

	require.NoError(t, cache.Store(context.Background(), &models.NeighborhoodAnalysis{CenterLatitude: 5, CenterLongitude: 5}))
	require.NoError(t, cache.Store(context.Background(), &models.NeighborhoodAnalysis{CenterLatitude: 5.0001, CenterLongitude: 5}))

	assert.Len(t, store.Analyses(), 2)
}

func TestMatches(t *testing.T) {
	a := freshAt(0, 0)

	assert.True(t, geocache.Matches(&a, 0.0019, -0.0019, geocache.Tolerance, fixedNow))
	assert.False(t, geocache.Matches(&a, 0.003, 0, geocache.Tolerance, fixedNow))
	assert.False(t, geocache.Matches(&a, 0, 0, geocache.Tolerance, a.ExpiresAt))
}

func TestStore_DefaultClockIsUTC(t *testing.T) {
	store := testhelpers.NewMemStore()
	cache := geocache.New(store, zap.NewNop())

	a := &models.NeighborhoodAnalysis{CenterLatitude: 1, CenterLongitude: 1, RadiusMeters: 800}
	require.NoError(t, cache.Store(context.Background(), a))

	assert.Equal(t, time.UTC, a.ComputedAt.Location())
	assert.Equal(t, time.UTC, a.ExpiresAt.Location())
}
