package handlers

import (
	"errors"
	"net/http"
	"strings"

	"homedash/internal/repository"
	"homedash/internal/service"

	"github.com/gin-gonic/gin"
)

// Gin context keys.
const (
	ctxUserID = "userId"
	ctxHomeID = "homeId"
	ctxToken  = "token"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	userId, err := h.services.ParseToken(c.Request.Context(), parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUserID, userId)
	c.Set(ctxToken, parts[1])
	c.Next()
}

// homeMiddleware resolves the caller's home; unbound accounts get 400.
func (h *Handler) homeMiddleware(c *gin.Context) {
	homeID, err := h.services.Resolve(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to resolve home", "home_resolve_failed", err)
		c.Abort()
		return
	}
	if homeID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": service.ErrHomeNotBound.Error()})
		return
	}
	c.Set(ctxHomeID, homeID)
	c.Next()
}

// viewGuard protects the HTML pages: without a valid session cookie the
// browser is sent to the login page.
func (h *Handler) viewGuard(c *gin.Context) {
	token, err := c.Cookie(h.opts.CookieName)
	if err != nil || token == "" {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	userId, err := h.services.ParseToken(c.Request.Context(), token)
	if err != nil {
		h.clearSessionCookie(c)
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	c.Set(ctxUserID, userId)
	c.Set(ctxToken, token)
	c.Next()
}

// requestToken finds a session token in the Authorization header, the
// token query parameter or the session cookie, in that order.
func (h *Handler) requestToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return token
		}
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if token, err := c.Cookie(h.opts.CookieName); err == nil {
		return token
	}
	return ""
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, token, int(h.opts.TokenTTL.Seconds()), "/", "", h.opts.SecureCookie, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, "", -1, "/", "", h.opts.SecureCookie, true)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrBusy),
		errors.Is(err, service.ErrHomeAlreadyBound),
		errors.Is(err, repository.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidHomeID),
		errors.Is(err, service.ErrInvalidLogPeriod),
		errors.Is(err, service.ErrEmptySearch),
		errors.Is(err, service.ErrInvalidSearch),
		errors.Is(err, service.ErrHomeNotBound),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidReset),
		errors.Is(err, service.ErrInvalidTimeRange),
		errors.Is(err, service.ErrUnknownEventType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
