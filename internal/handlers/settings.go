package handlers

import (
	"encoding/json"
	"net/http"

	"homedash/internal/service"

	"github.com/gin-gonic/gin"
)

// logPeriodRequest accepts the interval as a JSON number or string; the
// service parses and clamps it.
type logPeriodRequest struct {
	LogPeriodSec json.RawMessage `json:"log_period_sec" binding:"required" swaggertype:"string" example:"30"`
}

func (r logPeriodRequest) raw() string {
	var s string
	if err := json.Unmarshal(r.LogPeriodSec, &s); err == nil {
		return s
	}
	return string(r.LogPeriodSec)
}

// @Summary      Logging interval
// @Tags         settings
// @Produce      json
// @Success      200  {object}  map[string]int  "log_period_sec"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/settings/log-period [get]
// @Security     BearerAuth
func (h *Handler) getLogPeriod(c *gin.Context) {
	homeID := c.GetString(ctxHomeID)
	sec, err := h.services.LogPeriod(c.Request.Context(), homeID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load settings", "settings_load_failed", err, "home_id", homeID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log_period_sec": sec})
}

// @Summary      Set the logging interval
// @Description  Rounded to whole seconds and clamped to 1..3600.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body  logPeriodRequest  true  "Interval in seconds"
// @Success      200   {object}  map[string]int  "log_period_sec"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/settings/log-period [put]
// @Security     BearerAuth
func (h *Handler) putLogPeriod(c *gin.Context) {
	var req logPeriodRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	release, ok := h.claim(c, service.ControlSettings)
	if !ok {
		return
	}
	defer release()

	homeID := c.GetString(ctxHomeID)
	sec, err := h.services.SetLogPeriod(c.Request.Context(), homeID, req.raw())
	if err != nil {
		h.respondServiceError(c, "failed to save settings", "settings_save_failed", err, "home_id", homeID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log_period_sec": sec})
}
