package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/admVeloHub/Console-v2-gcp/pkg/config"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/config"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>console</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static", "js"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "js", "main.js"), []byte("console.log(1)"), 0o644))

	cfg := &config.WebConfig{
		GlobalConfig: pkgconfig.GlobalConfig{ServerPort: "8080"},
		StaticDir:    dir,
		Environment:  "test",
	}
	gin.SetMode(gin.TestMode)
	h := NewPageHandler(cfg)
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/monitor.html", h.Monitor)
	r.NoRoute(h.SPA)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndMonitor(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "test", health["environment"])
	assert.Equal(t, "8080", health["port"])

	w = get(r, "/monitor.html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"console-web"`)
}

func TestSPAFallback(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/artigos/editar/3")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>console</html>", w.Body.String())

	w = get(r, "/static/js/main.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = get(r, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
