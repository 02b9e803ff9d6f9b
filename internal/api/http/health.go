package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	LocalDB   string    `json:"local_db,omitempty"`
	RemoteDB  string    `json:"remote_db,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	localDB     *sql.DB
	remoteDB    *sql.DB
}

func NewHealthHandler(serviceName, version string, localDB, remoteDB *sql.DB) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		localDB:     localDB,
		remoteDB:    remoteDB,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		LocalDB:   pingStatus(c.Request.Context(), h.localDB),
		RemoteDB:  pingStatus(c.Request.Context(), h.remoteDB),
	})
}

func pingStatus(ctx context.Context, db *sql.DB) string {
	if db == nil {
		return "disabled"
	}

	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
