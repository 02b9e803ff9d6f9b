package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type autosaveStartReq struct {
	IntervalSeconds int `json:"interval_seconds"`
	MaxRetries      int `json:"max_retries"`
}

func (h *Handler) autosaveStart(c *gin.Context) {
	id := c.Param("id")

	var req autosaveStartReq
	_ = c.ShouldBindJSON(&req)
	interval := h.defaults.Interval
	if req.IntervalSeconds > 0 {
		interval = time.Duration(req.IntervalSeconds) * time.Second
	}
	maxRetries := h.defaults.MaxRetries
	if req.MaxRetries > 0 {
		maxRetries = req.MaxRetries
	}

	p, err := h.svc.Load(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}

	h.autosaver.Start(id, interval, maxRetries, func(err error) {
		log.Printf("[autosave] terminal failure for %s: %v", id, err)
	})

	c.JSON(http.StatusOK, gin.H{"ok": true, "state": h.autosaver.State()})
}

func (h *Handler) autosaveStop(c *gin.Context) {
	h.autosaver.Stop()
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": h.autosaver.State()})
}

func (h *Handler) autosaveStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": h.autosaver.State()})
}
