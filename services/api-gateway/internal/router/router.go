package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/jwt"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/middleware"
	"github.com/admVeloHub/Console-v2-gcp/services/api-gateway/internal/config"
	"github.com/admVeloHub/Console-v2-gcp/services/api-gateway/internal/handler"
	internalmw "github.com/admVeloHub/Console-v2-gcp/services/api-gateway/internal/middleware"
	"github.com/admVeloHub/Console-v2-gcp/services/api-gateway/internal/proxy"
)

// New builds the gateway routes.
func New(conf *config.GatewayConfig, tokens jwt.TokenManager, revocation bool, log *logger.Logger) *gin.Engine {
	content := strings.TrimRight(conf.ContentServiceURL, "/")
	uploads := strings.TrimRight(conf.UploadServiceURL, "/")
	p := proxy.New(log)
	authMw := middleware.AuthMiddleware(tokens)
	authH := handler.NewAuthHandler(tokens, revocation, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), internalmw.StripIdentity())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/v1/auth/logout", authH.Logout)
	r.GET("/v1/auth/me", authMw, authH.Me)

	// Content Service proxy
	r.GET("/v1/articles", p.To(content+"/articles"))
	r.GET("/v1/articles/:id", p.To(content+"/articles/:id"))
	r.GET("/v1/articles/:id/render", p.To(content+"/articles/:id/render"))
	r.POST("/v1/articles", authMw, p.To(content+"/articles"))
	r.PUT("/v1/articles/:id", authMw, p.To(content+"/articles/:id"))
	r.DELETE("/v1/articles/:id", authMw, p.To(content+"/articles/:id"))

	// Upload Service proxy
	r.POST("/v1/uploads/generate-upload-url", authMw, p.To(uploads+"/uploads/generate-upload-url"))
	r.DELETE("/v1/uploads/image", authMw, p.To(uploads+"/uploads/image"))

	return r
}
