package handlers

import (
	"context"
	"net/http"

	"reuse-atlas/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PrecedentArchive is the read side of the precedent archive
type PrecedentArchive interface {
	TopConversions(ctx context.Context, limit int) ([]models.ArchiveEntry, error)
	Search(ctx context.Context, f models.ArchiveFilters) ([]models.ArchiveEntry, error)
	FullText(ctx context.Context, query string, limit int) ([]models.ArchiveEntry, error)
}

// ArchiveHandler serves archive browse and search requests
type ArchiveHandler struct {
	archive PrecedentArchive
	logger  *zap.Logger
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(archive PrecedentArchive, logger *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{archive: archive, logger: logger}
}

// ListEntries browses the archive with substring filters, newest first
func (h *ArchiveHandler) ListEntries(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filters := models.ArchiveFilters{
		City:           c.Query("city"),
		Country:        c.Query("country"),
		Function:       c.Query("function"),
		ConversionOnly: c.Query("conversion") == "true",
		Limit:          limit,
		Offset:         offset,
	}

	entries, err := h.archive.Search(c.Request.Context(), filters)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// TopConversions returns the highest-activation conversion precedents
func (h *ArchiveHandler) TopConversions(c *gin.Context) {
	limit, err := queryInt(c, "limit", 3)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	entries, err := h.archive.TopConversions(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// SearchEntries runs a free-text query against the search index
func (h *ArchiveHandler) SearchEntries(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageLimit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	entries, err := h.archive.FullText(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   c.Query("q"),
		"entries": entries,
		"count":   len(entries),
	})
}
