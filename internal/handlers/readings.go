package handlers

import (
	"net/http"
	"strconv"
	"time"

	"homedash/internal/service"

	"github.com/gin-gonic/gin"
)

const errLoadReadings = "failed to load readings"

// queryInt reads a positive integer parameter; anything else yields 0.
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// location resolves ?tz= or falls back to the configured display zone.
func (h *Handler) location(c *gin.Context) (*time.Location, bool) {
	tz := c.Query("tz")
	if tz == "" {
		return h.opts.Location, true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timezone " + strconv.Quote(tz)})
		return nil, false
	}
	return loc, true
}

// @Summary      Latest measurement
// @Tags         readings
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "found, reading"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/readings/latest [get]
// @Security     BearerAuth
func (h *Handler) getLatest(c *gin.Context) {
	homeID := c.GetString(ctxHomeID)
	p, found, err := h.services.Latest(c.Request.Context(), homeID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadReadings, "readings_latest_failed", err, "home_id", homeID)
		return
	}
	resp := gin.H{"found": found}
	if found {
		resp["reading"] = p
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Recent history
// @Description  Last `limit` measurements downsampled to at most `points`.
// @Tags         readings
// @Produce      json
// @Param        limit   query  int  false  "Measurements to fetch"  example(200)
// @Param        points  query  int  false  "Downsampling budget"    example(200)
// @Success      200  {object}  map[string]interface{}  "count, points"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/readings/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	homeID := c.GetString(ctxHomeID)
	pts, err := h.services.History(c.Request.Context(), homeID, queryInt(c, "limit"), queryInt(c, "points"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadReadings, "readings_history_failed", err, "home_id", homeID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(pts), "points": pts})
}

// @Summary      Measurement at a point in time
// @Description  Last measurement at or before the given minute. `t` accepts YYYY-MM-DDTHH:MM, YYYY-MM-DD HH:MM or RFC3339 and is read in `tz` (default: display timezone).
// @Tags         readings
// @Produce      json
// @Param        t   query  string  true   "Date and time"  example(2024-01-01T11:30)
// @Param        tz  query  string  false  "IANA timezone"  example(Europe/Paris)
// @Success      200  {object}  service.LookupResult
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/readings/at [get]
// @Security     BearerAuth
func (h *Handler) getReadingAt(c *gin.Context) {
	loc, ok := h.location(c)
	if !ok {
		return
	}
	release, ok := h.claim(c, service.ControlLookup)
	if !ok {
		return
	}
	defer release()

	homeID := c.GetString(ctxHomeID)
	res, err := h.services.LookupAt(c.Request.Context(), homeID, c.Query("t"), loc)
	if err != nil {
		h.respondServiceError(c, errLoadReadings, "readings_lookup_failed", err, "home_id", homeID)
		return
	}
	c.JSON(http.StatusOK, res)
}
