package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/jwt"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/middleware"
)

type AuthHandler struct {
	tokens     jwt.TokenManager
	revocation bool
	log        *logger.Logger
}

// NewAuthHandler creates the handler for session endpoints. revocation
// reports whether tokens has a Redis backend to revoke into.
func NewAuthHandler(tokens jwt.TokenManager, revocation bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, revocation: revocation, log: log}
}

// Logout handles POST /v1/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	if !h.revocation {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "token revocation not configured"})
		return
	}
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
		return
	}
	if err := h.tokens.RevokeToken(c.Request.Context(), token); err != nil {
		h.log.Err(err, "failed to revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.SetCookie("access_token", "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// Me handles GET /v1/auth/me and echoes the operator the token belongs to.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    c.GetHeader("X-Operator-Id"),
		"name":  c.GetHeader("X-Operator-Name"),
		"email": c.GetHeader("X-Operator-Email"),
	})
}
