package archive

import (
	"context"
	"fmt"

	"reuse-atlas/internal/apperrors"
	"reuse-atlas/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
	reindexBatchSize   = 500
)

// Store is read access to the archive_entries table
type Store interface {
	TopConversions(ctx context.Context, limit int) ([]models.ArchiveEntry, error)
	SearchArchive(ctx context.Context, f models.ArchiveFilters) ([]models.ArchiveEntry, error)
	ArchivePage(ctx context.Context, offset, limit int) ([]models.ArchiveEntry, error)
}

// Index is a full-text index over archive entries
type Index interface {
	IndexEntries(entries []models.ArchiveEntry) error
	SearchEntries(query string, limit int64) ([]models.ArchiveEntry, error)
}

// Archive answers queries over verified adaptive-reuse precedents. It never
// writes to the archive table.
type Archive struct {
	store  Store
	index  Index
	logger *zap.Logger
}

// New creates an Archive. index may be nil, which disables FullText and
// Reindex.
func New(store Store, index Index, logger *zap.Logger) *Archive {
	return &Archive{store: store, index: index, logger: logger.Named("archive")}
}

// TopConversions returns up to limit conversion precedents ordered by
// activation score, unscored entries last
func (a *Archive) TopConversions(ctx context.Context, limit int) ([]models.ArchiveEntry, error) {
	if limit <= 0 {
		return []models.ArchiveEntry{}, nil
	}
	entries, err := a.store.TopConversions(ctx, limit)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Search browses the archive with substring filters, newest first
func (a *Archive) Search(ctx context.Context, f models.ArchiveFilters) ([]models.ArchiveEntry, error) {
	return a.store.SearchArchive(ctx, NormalizeFilters(f))
}

// NormalizeFilters applies the default page size, the page size cap and a
// non-negative offset
func NormalizeFilters(f models.ArchiveFilters) models.ArchiveFilters {
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// FullText runs a free-text query through the search index
func (a *Archive) FullText(ctx context.Context, query string, limit int) ([]models.ArchiveEntry, error) {
	if a.index == nil {
		return nil, apperrors.ErrSearchUnavailable
	}
	if query == "" {
		return nil, apperrors.NewValidation("Missing required query parameter: q")
	}
	limit = NormalizeFilters(models.ArchiveFilters{Limit: limit}).Limit

	entries, err := a.index.SearchEntries(query, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("archive full-text search: %w", err)
	}
	return entries, nil
}

// Reindex pushes every archive entry into the search index and returns the
// number of entries sent
func (a *Archive) Reindex(ctx context.Context) (int, error) {
	if a.index == nil {
		return 0, apperrors.ErrSearchUnavailable
	}

	total := 0
	for offset := 0; ; offset += reindexBatchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		batch, err := a.store.ArchivePage(ctx, offset, reindexBatchSize)
		if err != nil {
			return total, err
		}
		if err := a.index.IndexEntries(batch); err != nil {
			return total, fmt.Errorf("index archive batch at offset %d: %w", offset, err)
		}
		total += len(batch)
		if len(batch) < reindexBatchSize {
			break
		}
	}

	a.logger.Info("archive reindexed", zap.Int("entries", total))
	return total, nil
}
