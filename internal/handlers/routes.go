package handlers

import "github.com/gin-gonic/gin"

// Set bundles the API handlers
type Set struct {
	Neighborhood *NeighborhoodHandler
	Recommend    *RecommendHandler
	Archive      *ArchiveHandler
	GhostSites   *GhostSiteHandler
	Admin        *AdminHandler
}

// Register mounts the API routes on r. writeLimit guards the endpoints that
// insert rows.
func (s Set) Register(r gin.IRouter, writeLimit gin.HandlerFunc) {
	api := r.Group("/api")

	api.POST("/analyze-neighborhood", writeLimit, s.Neighborhood.AnalyzeNeighborhood)
	api.POST("/recommend", writeLimit, s.Recommend.Recommend)

	api.GET("/archive", s.Archive.ListEntries)
	api.GET("/archive/top", s.Archive.TopConversions)
	api.GET("/archive/search", s.Archive.SearchEntries)

	api.GET("/ghost-sites", s.GhostSites.ListGhostSites)
	api.GET("/ghost-sites/:id", s.GhostSites.GetGhostSite)
	api.GET("/ghost-sites/:id/recommendations", s.Recommend.GetHistory)

	// Admin API routes (requires authentication in production)
	admin := api.Group("/admin")
	{
		admin.GET("/stats", s.Admin.GetStats)
		admin.POST("/cleanup/run", s.Admin.RunCleanup)
		admin.GET("/cleanup/logs", s.Admin.GetCleanupLogs)
		admin.POST("/archive/reindex", s.Admin.ReindexArchive)
	}
}
