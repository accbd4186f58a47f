package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"shopfloor_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List operator actions
// @Description  Audit trail of manual resolutions, newest first. Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         actions
// @Produce      json
// @Param        from     query   string  false  "Start of range"  example(2025-08-01)
// @Param        to       query   string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        outcome  query   string  false  "Action outcome"  Enums(published,failed)
// @Success      200   {object}  map[string]interface{}  "count, actions"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/actions [get]
// @Security     BearerAuth
func (h *Handler) getActions(c *gin.Context) {
	var (
		from    time.Time
		to      time.Time
		outcome = strings.ToLower(strings.TrimSpace(c.Query("outcome")))
		err     error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}

	actions, err := h.services.ActionLog.List(c.Request.Context(), service.ActionFilter{
		From:    from,
		To:      to,
		Outcome: outcome,
	})
	if err != nil {
		if service.IsFilterError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load actions", "actions_list_failed", err,
			"from", from, "to", to, "outcome", outcome)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(actions),
		"actions": actions,
	})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
