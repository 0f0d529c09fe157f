package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"reuse-atlas/internal/models"
	"reuse-atlas/internal/recommend"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recommender generates and lists reuse recommendations
type Recommender interface {
	Recommend(ctx context.Context, ghostSiteID string) (*recommend.Result, error)
	History(ctx context.Context, ghostSiteID string, limit int) ([]models.ReuseRecommendation, error)
}

// RecommendHandler serves recommendation requests
type RecommendHandler struct {
	engine Recommender
	logger *zap.Logger
}

// NewRecommendHandler creates a new recommendation handler
func NewRecommendHandler(engine Recommender, logger *zap.Logger) *RecommendHandler {
	return &RecommendHandler{engine: engine, logger: logger}
}

// Recommend creates a recommendation for the ghost site in the body
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req struct {
		GhostSiteID string `json:"ghostSiteId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	result, err := h.engine.Recommend(c.Request.Context(), req.GhostSiteID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetHistory returns past recommendations for a ghost site, newest first
func (h *RecommendHandler) GetHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit", recommend.DefaultHistoryLimit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	recs, err := h.engine.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ghostSiteId":     c.Param("id"),
		"recommendations": recs,
		"count":           len(recs),
	})
}
