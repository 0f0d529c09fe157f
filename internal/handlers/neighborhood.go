package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"reuse-atlas/internal/models"
	"reuse-atlas/internal/neighborhood"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Analyzer runs cache-aside neighborhood analysis
type Analyzer interface {
	Analyze(ctx context.Context, req neighborhood.AnalyzeRequest) (*neighborhood.Result, error)
}

// NeighborhoodHandler serves neighborhood analysis requests
type NeighborhoodHandler struct {
	analyzer Analyzer
	logger   *zap.Logger
}

// NewNeighborhoodHandler creates a new neighborhood handler
func NewNeighborhoodHandler(analyzer Analyzer, logger *zap.Logger) *NeighborhoodHandler {
	return &NeighborhoodHandler{analyzer: analyzer, logger: logger}
}

// analysisResponse flattens the analysis and adds fromCache
type analysisResponse struct {
	*models.NeighborhoodAnalysis
	FromCache bool `json:"fromCache"`
}

// AnalyzeNeighborhood returns a cached analysis near the point (200) or
// stores and returns a new placeholder (201)
func (h *NeighborhoodHandler) AnalyzeNeighborhood(c *gin.Context) {
	var req neighborhood.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.FromCache {
		status = http.StatusOK
	}
	c.JSON(status, analysisResponse{
		NeighborhoodAnalysis: result.Analysis,
		FromCache:            result.FromCache,
	})
}
