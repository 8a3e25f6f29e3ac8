package handlers

import (
	"net/http"
	"time"

	"energy-server/cache"
	"energy-server/ws"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	service string
	alerts  *cache.AlertCache
	mgr     *ws.Manager
	started time.Time
}

func NewSystemHandler(service string, alerts *cache.AlertCache, mgr *ws.Manager) *SystemHandler {
	return &SystemHandler{
		service: service,
		alerts:  alerts,
		mgr:     mgr,
		started: time.Now(),
	}
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Stats handles GET /api/system/stats
func (h *SystemHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "success",
		"alert_cache":     h.alerts.Stats(),
		"connections":     h.mgr.Count(),
		"connected_users": len(h.mgr.List()),
	})
}

// PruneCache handles POST /api/system/cache/prune
func (h *SystemHandler) PruneCache(c *gin.Context) {
	removed := h.alerts.Prune(time.Now())
	c.JSON(http.StatusOK, gin.H{"status": "pruned", "removed": removed})
}
