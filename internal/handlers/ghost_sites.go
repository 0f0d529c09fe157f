package handlers

import (
	"context"
	"net/http"

	"reuse-atlas/internal/apperrors"
	"reuse-atlas/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GhostSiteStore reads ghost sites. GetGhostSite returns nil, nil when absent.
type GhostSiteStore interface {
	GetGhostSite(ctx context.Context, id uuid.UUID) (*models.GhostSite, error)
	ListGhostSites(ctx context.Context, f models.GhostSiteFilters) ([]models.GhostSite, error)
}

// GhostSiteHandler serves read-only ghost site requests
type GhostSiteHandler struct {
	store  GhostSiteStore
	logger *zap.Logger
}

// NewGhostSiteHandler creates a new ghost site handler
func NewGhostSiteHandler(store GhostSiteStore, logger *zap.Logger) *GhostSiteHandler {
	return &GhostSiteHandler{store: store, logger: logger}
}

// ListGhostSites returns ghost sites, most likely abandoned first
func (h *GhostSiteHandler) ListGhostSites(c *gin.Context) {
	limit, offset, err := pageParams(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	minProbability, err := queryFloat(c, "minProbability")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	minLotSize, err := queryFloat(c, "minLotSize")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sites, err := h.store.ListGhostSites(c.Request.Context(), models.GhostSiteFilters{
		City:           c.Query("city"),
		Country:        c.Query("country"),
		MinProbability: minProbability,
		MinLotSize:     minLotSize,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, sites)
}

// GetGhostSite returns a single ghost site
func (h *GhostSiteHandler) GetGhostSite(c *gin.Context) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, h.logger, apperrors.NewValidation("Invalid ghost site id: %s", raw))
		return
	}

	site, err := h.store.GetGhostSite(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if site == nil {
		respondError(c, h.logger, apperrors.NewNotFound("Ghost site", raw))
		return
	}

	c.JSON(http.StatusOK, site)
}
