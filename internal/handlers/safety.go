package handlers

import (
	"errors"
	"net/http"
	"strings"

	"shopfloor_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errResolve   = "failed to resolve safety incident"
	errMissingID = "missing incident id"
	statusQueued = "reload_requested"
)

// @Summary      Resolve safety incident
// @Description  Publishes a safety_resolve event and triggers an immediate reload. The incident shows as resolved once the backend confirms it over the stream or in the next snapshot.
// @Tags         safety
// @Produce      json
// @Param        id   path  string  true  "Incident id"
// @Success      200  {object}  map[string]interface{}  "status, action"
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/safety/{id}/resolve [post]
// @Security     BearerAuth
func (h *Handler) resolveSafety(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingID})
		return
	}
	userID, ok := operatorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errMissingAuth})
		return
	}

	action, err := h.services.Resolve(c.Request.Context(), id, userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": action.Outcome, "action": action})
	case errors.Is(err, service.ErrIncidentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPublishFailed):
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), "safety_resolve_failed", err, "incident_id", id)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errResolve, "safety_resolve_failed", err, "incident_id", id)
	}
}

// @Summary      Reload snapshots
// @Description  Refreshes every snapshot-backed collection now, bypassing the timer.
// @Tags         dashboard
// @Produce      json
// @Success      202  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/reload [post]
// @Security     BearerAuth
func (h *Handler) reload(c *gin.Context) {
	h.services.Reload()
	c.JSON(http.StatusAccepted, gin.H{"status": statusQueued})
}
