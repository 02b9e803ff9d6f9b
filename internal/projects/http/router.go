package http

import "github.com/gin-gonic/gin"

// Register wires the persistence endpoints onto the given group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.POST("/import", h.importProject)
	g.POST("/backup", h.backup)
	g.POST("/restore", h.restore)
	g.GET("/:id", h.load)
	g.PUT("/:id", h.save)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/duplicate", h.duplicate)
	g.POST("/:id/publish", h.publish)
	g.GET("/:id/export", h.export)
	g.POST("/:id/autosave/start", h.autosaveStart)
	g.POST("/autosave/stop", h.autosaveStop)
	g.GET("/autosave/status", h.autosaveStatus)
}
