package handlers

import (
	"net/http"

	"homedash/internal/service"

	"github.com/gin-gonic/gin"
)

type homeRequest struct {
	HomeID string `json:"home_id" binding:"required" example:"homeA"`
}

// claim takes the busy slot for control, or answers 409.
func (h *Handler) claim(c *gin.Context, control string) (func(), bool) {
	if h.services.Busy == nil {
		return func() {}, true
	}
	release, err := h.services.Busy.Try(c.GetString(ctxUserID), control)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return nil, false
	}
	return release, true
}

// @Summary      Current user
// @Tags         home
// @Produce      json
// @Success      200  {object}  map[string]string  "uid, home_id"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/me [get]
// @Security     BearerAuth
func (h *Handler) getMe(c *gin.Context) {
	uid := c.GetString(ctxUserID)
	homeID, err := h.services.Resolve(c.Request.Context(), uid)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to resolve home", "home_resolve_failed", err, "uid", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": uid, "home_id": homeID})
}

// @Summary      Bound home
// @Tags         home
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "home_id, bound"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/home [get]
// @Security     BearerAuth
func (h *Handler) getHome(c *gin.Context) {
	uid := c.GetString(ctxUserID)
	homeID, err := h.services.Resolve(c.Request.Context(), uid)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to resolve home", "home_resolve_failed", err, "uid", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"home_id": homeID, "bound": homeID != ""})
}

// @Summary      Bind the account to a home
// @Description  The id must match ^[A-Za-z0-9_-]{3,32}$. A binding cannot be changed afterwards.
// @Tags         home
// @Accept       json
// @Produce      json
// @Param        body  body  homeRequest  true  "Home id"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/home [put]
// @Security     BearerAuth
func (h *Handler) putHome(c *gin.Context) {
	var req homeRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	release, ok := h.claim(c, service.ControlHome)
	if !ok {
		return
	}
	defer release()

	uid := c.GetString(ctxUserID)
	homeID, err := h.services.Associate(c.Request.Context(), uid, req.HomeID)
	if err != nil {
		h.respondServiceError(c, "failed to bind home", "home_bind_failed", err, "uid", uid)
		return
	}
	c.JSON(http.StatusOK, gin.H{"home_id": homeID})
}
