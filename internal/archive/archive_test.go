package archive_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"reuse-atlas/internal/apperrors"
	"reuse-atlas/internal/archive"
	"reuse-atlas/internal/models"
	"reuse-atlas/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// mockIndex records indexed batches and serves canned search results
type mockIndex struct {
	batches  [][]models.ArchiveEntry
	results  []models.ArchiveEntry
	indexErr error
	lastQ    string
	lastN    int64
}

func (m *mockIndex) IndexEntries(entries []models.ArchiveEntry) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.batches = append(m.batches, entries)
	return nil
}

func (m *mockIndex) SearchEntries(query string, limit int64) ([]models.ArchiveEntry, error) {
	m.lastQ, m.lastN = query, limit
	return m.results, nil
}

func seedArchive(store *testhelpers.MemStore) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.AddArchiveEntry(models.ArchiveEntry{Name: "Unscored", City: "Buffalo", Country: "USA", IsConversion: true, CreatedAt: base})
	store.AddArchiveEntry(models.ArchiveEntry{Name: "Low", City: "Fremantle", Country: "Australia", IsConversion: true, ActivationScore: intPtr(40), OriginalFunction: strPtr("Wool Store"), CreatedAt: base.Add(time.Hour)})
	store.AddArchiveEntry(models.ArchiveEntry{Name: "High", City: "St Kilda", Country: "Australia", IsConversion: true, ActivationScore: intPtr(95), CurrentFunction: strPtr("Community Hall"), CreatedAt: base.Add(2 * time.Hour)})
	store.AddArchiveEntry(models.ArchiveEntry{Name: "Not a conversion", City: "Buffalo", Country: "USA", IsConversion: false, ActivationScore: intPtr(99), CreatedAt: base.Add(3 * time.Hour)})
	store.AddArchiveEntry(models.ArchiveEntry{Name: "Mid", City: "Rotterdam", Country: "Netherlands", IsConversion: true, ActivationScore: intPtr(70), OriginalFunction: strPtr("Grain Silo"), CreatedAt: base.Add(4 * time.Hour)})
}

func names(entries []models.ArchiveEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestTopConversions_OrderedWithNullsLast(t *testing.T) {
	store := testhelpers.NewMemStore()
	seedArchive(store)
	a := archive.New(store, nil, zap.NewNop())

	all, err := a.TopConversions(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"High", "Mid", "Low", "Unscored"}, names(all))

	top, err := a.TopConversions(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"High", "Mid", "Low"}, names(top))
}

func TestTopConversions_EmptyArchiveAndZeroLimit(t *testing.T) {
	a := archive.New(testhelpers.NewMemStore(), nil, zap.NewNop())

	got, err := a.TopConversions(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = a.TopConversions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_Filters(t *testing.T) {
	store := testhelpers.NewMemStore()
	seedArchive(store)
	a := archive.New(store, nil, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name    string
		filters models.ArchiveFilters
		want    []string
	}{
		{name: "no filters newest first", want: []string{"Mid", "Not a conversion", "High", "Low", "Unscored"}},
		{name: "city substring case-insensitive", filters: models.ArchiveFilters{City: "buff"}, want: []string{"Not a conversion", "Unscored"}},
		{name: "country", filters: models.ArchiveFilters{Country: "AUSTRAL"}, want: []string{"High", "Low"}},
		{name: "original function", filters: models.ArchiveFilters{Function: "wool"}, want: []string{"Low"}},
		{name: "current function", filters: models.ArchiveFilters{Function: "hall"}, want: []string{"High"}},
		{name: "conversion only", filters: models.ArchiveFilters{ConversionOnly: true, City: "buffalo"}, want: []string{"Unscored"}},
		{name: "paged", filters: models.ArchiveFilters{Limit: 2, Offset: 1}, want: []string{"Not a conversion", "High"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Search(ctx, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSearch_RepeatableAndReadOnly(t *testing.T) {
	store := testhelpers.NewMemStore()
	seedArchive(store)
	a := archive.New(store, nil, zap.NewNop())
	before := store.ArchiveSnapshot()

	f := models.ArchiveFilters{Country: "australia"}
	first, err := a.Search(context.Background(), f)
	require.NoError(t, err)
	second, err := a.Search(context.Background(), f)
	require.NoError(t, err)
	top1, err := a.TopConversions(context.Background(), 3)
	require.NoError(t, err)
	top2, err := a.TopConversions(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, top1, top2)
	assert.Equal(t, before, store.ArchiveSnapshot())
	assert.Zero(t, store.Writes)
}

func TestNormalizeFilters(t *testing.T) {
	assert.Equal(t, 50, archive.NormalizeFilters(models.ArchiveFilters{}).Limit)
	assert.Equal(t, 200, archive.NormalizeFilters(models.ArchiveFilters{Limit: 5000}).Limit)
	assert.Equal(t, 25, archive.NormalizeFilters(models.ArchiveFilters{Limit: 25}).Limit)
	assert.Equal(t, 0, archive.NormalizeFilters(models.ArchiveFilters{Offset: -3}).Offset)
}

func TestFullText(t *testing.T) {
	idx := &mockIndex{results: []models.ArchiveEntry{{Name: "Silo Hotel"}}}
	a := archive.New(testhelpers.NewMemStore(), idx, zap.NewNop())

	got, err := a.FullText(context.Background(), "silo", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Silo Hotel"}, names(got))
	assert.Equal(t, "silo", idx.lastQ)
	assert.Equal(t, int64(50), idx.lastN)

	_, err = a.FullText(context.Background(), "", 10)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestFullText_WithoutIndex(t *testing.T) {
	a := archive.New(testhelpers.NewMemStore(), nil, zap.NewNop())

	_, err := a.FullText(context.Background(), "silo", 10)
	assert.ErrorIs(t, err, apperrors.ErrSearchUnavailable)

	_, err = a.Reindex(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSearchUnavailable)
}

func TestReindex_PagesThroughArchive(t *testing.T) {
	store := testhelpers.NewMemStore()
	for i := 0; i < 1203; i++ {
		store.AddArchiveEntry(models.ArchiveEntry{Name: fmt.Sprintf("entry-%d", i), City: "X", Country: "Y"})
	}
	idx := &mockIndex{}
	a := archive.New(store, idx, zap.NewNop())

	n, err := a.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1203, n)
	require.Len(t, idx.batches, 3)
	assert.Len(t, idx.batches[0], 500)
	assert.Len(t, idx.batches[2], 203)
}

func TestReindex_IndexFailure(t *testing.T) {
	store := testhelpers.NewMemStore()
	seedArchive(store)
	a := archive.New(store, &mockIndex{indexErr: errors.New("meilisearch down")}, zap.NewNop())

	_, err := a.Reindex(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "meilisearch down")
}
