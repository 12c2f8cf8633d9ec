package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/config"
)

type PageHandler interface {
	Health(c *gin.Context)
	Monitor(c *gin.Context)
	SPA(c *gin.Context)
}

type pageHandler struct {
	cfg *config.WebConfig
	now func() time.Time
}

func NewPageHandler(cfg *config.WebConfig) PageHandler {
	return &pageHandler{cfg: cfg, now: time.Now}
}

func (h *pageHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"timestamp":   h.now().UTC().Format(time.RFC3339),
		"environment": h.cfg.Environment,
		"port":        h.cfg.ServerPort,
	})
}

func (h *pageHandler) Monitor(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "console-web",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// SPA serves files of the build directory and falls back to index.html so
// client-side routes resolve. Unknown API paths stay 404.
func (h *pageHandler) SPA(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}
	rel := path.Clean("/" + c.Request.URL.Path)
	if rel != "/" {
		file := filepath.Join(h.cfg.StaticDir, filepath.FromSlash(rel))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.Header("Cache-Control", "public, max-age=31536000")
			c.File(file)
			return
		}
	}
	c.Header("Cache-Control", "no-cache")
	c.File(filepath.Join(h.cfg.StaticDir, "index.html"))
}
