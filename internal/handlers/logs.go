package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"homedash/internal/service"

	"github.com/gin-gonic/gin"
)

var errBadLogTime = errors.New("use RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'")

// Accepted layouts for the logs range; anything without an offset is read
// in the display timezone.
var logTimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// parseLogBound reads a from/to query value. A date-only upper bound covers
// the whole day.
func parseLogBound(s string, loc *time.Location, upper bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range logTimeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if upper && !strings.ContainsAny(s, "T ") {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, nil
	}
	return time.Time{}, errBadLogTime
}

// @Summary      List home events
// @Description  Audit trail of the caller's home, oldest first. `from`/`to` accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD' in `tz` (default: display timezone); a date-only `to` covers the whole day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range"    example(2025-08-31)
// @Param        tz    query   string  false  "IANA timezone"   example(Europe/Paris)
// @Param        type  query   string  false  "Event type"  Enums(LAMP,SETTINGS,HOME_BOUND)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	loc, ok := h.location(c)
	if !ok {
		return
	}

	filter := service.LogFilter{Type: c.Query("type")}
	for _, b := range []struct {
		key   string
		dst   *time.Time
		upper bool
	}{
		{"from", &filter.From, false},
		{"to", &filter.To, true},
	} {
		qs := strings.TrimSpace(c.Query(b.key))
		if qs == "" {
			continue
		}
		t, err := parseLogBound(qs, loc, b.upper)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + b.key + "' time; " + err.Error()})
			return
		}
		*b.dst = t
	}

	homeID := c.GetString(ctxHomeID)
	events, err := h.services.EventLog.List(c.Request.Context(), homeID, filter)
	if err != nil {
		h.respondServiceError(c, "failed to load logs", "logs_list_failed", err,
			"home_id", homeID, "from", filter.From, "to", filter.To, "type", filter.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}
