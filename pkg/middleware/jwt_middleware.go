package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/jwt"
)

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// AccessToken returns the bearer token, or else the access_token cookie
// the login flow sets for browser clients.
func AccessToken(c *gin.Context) (string, bool) {
	if token, ok := BearerToken(c); ok {
		return token, true
	}
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, true
	}
	return "", false
}

// AuthMiddleware returns a Gin middleware that validates operator tokens and injects claims as headers.
func AuthMiddleware(tokenManager jwt.TokenManager) gin.HandlerFunc {
	return authenticate(tokenManager, BearerToken)
}

// CookieAuthMiddleware is AuthMiddleware for browser routes: it also
// accepts the token from the access_token cookie.
func CookieAuthMiddleware(tokenManager jwt.TokenManager) gin.HandlerFunc {
	return authenticate(tokenManager, AccessToken)
}

func authenticate(tokenManager jwt.TokenManager, extract func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extract(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		claims, err := tokenManager.ValidateAccessToken(c.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token expired"})
			case errors.Is(err, jwt.ErrTokenRevoked):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token revoked"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			}
			return
		}
		// Inject claims into headers for downstream services
		c.Request.Header.Set("X-Operator-Id", claims.OperatorID)
		c.Request.Header.Set("X-Operator-Name", claims.Name)
		c.Request.Header.Set("X-Operator-Email", claims.Email)
		c.Next()
	}
}
