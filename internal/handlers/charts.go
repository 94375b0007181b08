package handlers

import (
	"net/http"

	"homedash/internal/chart"
	"homedash/internal/models"

	"github.com/gin-gonic/gin"
)

const svgContentType = "image/svg+xml"

type chartBuilder func(pts []models.GraphPoint, width, height float64) chart.Chart

// @Summary      Temperature chart
// @Tags         charts
// @Produce      image/svg+xml
// @Param        limit   query  int  false  "Measurements to fetch"
// @Param        points  query  int  false  "Downsampling budget"
// @Success      200
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/charts/temperature.svg [get]
// @Security     BearerAuth
func (h *Handler) temperatureChart(c *gin.Context) {
	h.renderChart(c, chart.TemperatureChart)
}

// @Summary      Humidity chart
// @Tags         charts
// @Produce      image/svg+xml
// @Param        limit   query  int  false  "Measurements to fetch"
// @Param        points  query  int  false  "Downsampling budget"
// @Success      200
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/charts/humidity.svg [get]
// @Security     BearerAuth
func (h *Handler) humidityChart(c *gin.Context) {
	h.renderChart(c, chart.HumidityChart)
}

func (h *Handler) renderChart(c *gin.Context, build chartBuilder) {
	homeID := c.GetString(ctxHomeID)
	pts, err := h.services.History(c.Request.Context(), homeID, queryInt(c, "limit"), queryInt(c, "points"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadReadings, "chart_history_failed", err, "home_id", homeID)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, svgContentType, chart.RenderSVG(build(pts, h.opts.ChartWidth, h.opts.ChartHeight)))
}
