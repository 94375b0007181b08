package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Single, shared credentials payload for both sign-up and sign-in.
type authCredentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  authCredentials  true  "Email and password (6+ chars)"
// @Success      200   {object}  map[string]string  "id"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	id, err := h.services.SignUp(input.Email, input.Password)
	if err != nil {
		h.respondServiceError(c, "failed to create account", "auth_sign_up_failed", err, "email", input.Email)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  authCredentials  true  "Credentials"
// @Success      200   {object}  map[string]string  "token"
// @Failure      401   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input authCredentials
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.GenerateToken(input.Email, input.Password)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "email", input.Email, "err", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// @Summary      Sign out
// @Description  Revokes the bearer token.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/sign-out [post]
// @Security     BearerAuth
func (h *Handler) signOut(c *gin.Context) {
	token := h.requestToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
		return
	}
	if err := h.services.SignOut(c.Request.Context(), token); err != nil {
		if h.log != nil {
			h.log.Infow("auth_sign_out_failed", "err", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Request a password reset
// @Description  Always answers 200 for well-formed emails so accounts cannot be probed.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  resetRequest  true  "Account email"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *Handler) resetPassword(c *gin.Context) {
	var input resetRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	if err := h.services.ResetPassword(c.Request.Context(), input.Email); err != nil {
		h.respondServiceError(c, "failed to request reset", "auth_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Set a new password with a reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  resetConfirmRequest  true  "Token and new password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /auth/reset-password/confirm [post]
func (h *Handler) confirmReset(c *gin.Context) {
	var input resetConfirmRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	if err := h.services.ConfirmReset(c.Request.Context(), input.Token, input.Password); err != nil {
		h.respondServiceError(c, "failed to reset password", "auth_reset_confirm_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
