package handlers

import (
	"net/http"

	"shopfloor_dashboard/internal/models"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	never          = "never"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// sourceHealth is the human-readable freshness of one snapshot collection.
type sourceHealth struct {
	LastSuccess string `json:"last_success"`
	LastError   string `json:"last_error,omitempty"`
}

// @Summary      Health check
// @Description  Stream connectivity and per-collection snapshot freshness. Status is "degraded" while the stream is down.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	v := h.services.View()

	status := statusOK
	if !v.Stream.Connected {
		status = statusDegraded
	}

	sources := make(map[string]sourceHealth, len(v.Sources))
	for name, src := range v.Sources {
		sh := sourceHealth{LastSuccess: never, LastError: src.LastError}
		if !src.LastSuccess.IsZero() {
			sh.LastSuccess = humanize.Time(src.LastSuccess)
		}
		sources[name] = sh
	}

	stream := gin.H{
		"connected":  v.Stream.Connected,
		"reconnects": v.Stream.Reconnects,
	}
	if v.Stream.Connected {
		stream["since"] = humanize.Time(v.Stream.ConnectedSince)
	}
	if v.Stream.LastError != "" {
		stream["last_error"] = v.Stream.LastError
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"stream":  stream,
		"sources": sources,
		"version": v.Version,
	})
}

// @Summary      Dashboard view
// @Description  Every collection plus sync status and triage summary.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.DashboardView
// @Router       /api/v1/dashboard [get]
func (h *Handler) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.View())
}

// @Summary      Machines
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, machines"
// @Router       /api/v1/machines [get]
func (h *Handler) getMachines(c *gin.Context) {
	v := h.services.View()
	respondCollection(c, "machines", len(v.Machines), v.Machines, v.Version)
}

// @Summary      Orders
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, orders"
// @Router       /api/v1/orders [get]
func (h *Handler) getOrders(c *gin.Context) {
	v := h.services.View()
	respondCollection(c, "orders", len(v.Orders), v.Orders, v.Version)
}

// @Summary      Safety incidents
// @Tags         dashboard
// @Produce      json
// @Param        status  query  string  false  "Only incidents with this status"  Enums(unresolved,resolved)
// @Success      200  {object}  map[string]interface{}  "count, incidents"
// @Router       /api/v1/safety [get]
func (h *Handler) getSafety(c *gin.Context) {
	v := h.services.View()
	incidents := v.SafetyIncidents
	if status := c.Query("status"); status != "" {
		filtered := make([]models.SafetyIncident, 0, len(incidents))
		for _, inc := range incidents {
			if inc.Status == status {
				filtered = append(filtered, inc)
			}
		}
		incidents = filtered
	}
	respondCollection(c, "incidents", len(incidents), incidents, v.Version)
}

// @Summary      Triage workflows
// @Description  Most recent first.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, workflows"
// @Router       /api/v1/workflows [get]
func (h *Handler) getWorkflows(c *gin.Context) {
	v := h.services.View()
	respondCollection(c, "workflows", len(v.Workflows), v.Workflows, v.Version)
}

// @Summary      Action log
// @Description  Most recent first.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, logs"
// @Router       /api/v1/logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	v := h.services.View()
	respondCollection(c, "logs", len(v.Logs), v.Logs, v.Version)
}

// @Summary      Triage summary
// @Description  Workflow counts by severity and category.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.TriageSummary
// @Router       /api/v1/triage/summary [get]
func (h *Handler) getTriageSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.View().Triage)
}

func respondCollection(c *gin.Context, key string, n int, items any, version uint64) {
	c.JSON(http.StatusOK, gin.H{
		"count":   n,
		key:       items,
		"version": version,
	})
}
