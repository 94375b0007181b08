package handlers

import (
	"net/http"

	"homedash/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Lamp state
// @Tags         lamp
// @Produce      json
// @Success      200  {object}  models.LampCommand
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/lamp [get]
// @Security     BearerAuth
func (h *Handler) getLamp(c *gin.Context) {
	homeID := c.GetString(ctxHomeID)
	cmd, err := h.services.State(c.Request.Context(), homeID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load lamp", "lamp_state_failed", err, "home_id", homeID)
		return
	}
	c.JSON(http.StatusOK, cmd)
}

// @Summary      Toggle the lamp
// @Tags         lamp
// @Produce      json
// @Success      200  {object}  models.LampCommand
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/lamp/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleLamp(c *gin.Context) {
	release, ok := h.claim(c, service.ControlLamp)
	if !ok {
		return
	}
	defer release()

	homeID := c.GetString(ctxHomeID)
	cmd, err := h.services.Toggle(c.Request.Context(), homeID)
	if err != nil {
		h.respondServiceError(c, "failed to toggle lamp", "lamp_toggle_failed", err, "home_id", homeID)
		return
	}
	c.JSON(http.StatusOK, cmd)
}
