package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/editor"
	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/markdown"
	"github.com/admVeloHub/Console-v2-gcp/pkg/middleware"
	"github.com/admVeloHub/Console-v2-gcp/pkg/util"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/adapter"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/session"
)

// Processor resolves the staged images of a document.
type Processor interface {
	Process(ctx context.Context, text, pageID string, onProgress func(current, total int)) (*imageupload.Output, error)
}

// EditorHandler serves the editor API: sessions, conversion, staged
// images and page submission.
type EditorHandler struct {
	sessions  *session.Registry
	conv      *markdown.Converter
	store     *imagestore.Store
	processor Processor
	articles  adapter.ArticleAdapter
	log       *logger.Logger
}

func NewEditorHandler(sessions *session.Registry, conv *markdown.Converter, store *imagestore.Store, processor Processor, articles adapter.ArticleAdapter, log *logger.Logger) *EditorHandler {
	return &EditorHandler{
		sessions:  sessions,
		conv:      conv,
		store:     store,
		processor: processor,
		articles:  articles,
		log:       log,
	}
}

// Register mounts the editor routes. Sessions, staged images and
// submission require auth, which identifies the operator owning them.
// Image staging and submission also go through limiter.
func (h *EditorHandler) Register(api *gin.RouterGroup, limiter *middleware.RateLimiter, auth gin.HandlerFunc) {
	limited := middleware.IPRateLimit(limiter)

	s := api.Group("/editor/sessions", auth)
	s.POST("", h.OpenSession)
	s.GET("/:id", h.GetSession)
	s.PUT("/:id/html", h.EditSession)
	s.PUT("/:id/value", h.SetSessionValue)
	s.DELETE("/:id", h.CloseSession)
	s.POST("/:id/images", limited, h.InsertImage)
	s.PUT("/:id/images/natural", h.SetNaturalSize)
	s.GET("/:id/images/menu", h.ResizeMenu)
	s.PUT("/:id/images/size", h.ResizeImage)

	c := api.Group("/convert")
	c.POST("/to-markdown", h.ToMarkdown)
	c.POST("/to-html", h.ToHTML)
	c.POST("/render", h.Render)

	p := api.Group("/pages/:pageId", auth)
	p.GET("/temp-images", h.ListTempImages)
	p.POST("/temp-images/check", h.CheckTempImages)
	p.POST("/temp-images/sweep", h.SweepTempImages)
	p.GET("/temp-images/:uuid", h.GetTempImage)
	p.DELETE("/temp-images/:uuid", h.RemoveTempImage)
	p.DELETE("/temp-images", h.ClearTempImages)
	p.POST("/submit", limited, h.Submit)
}

type openSessionRequest struct {
	PageID string `json:"pageId" binding:"required"`
	Value  string `json:"value"`
}

type sessionView struct {
	ID         string     `json:"id"`
	PageID     string     `json:"pageId"`
	HTML       string     `json:"html"`
	Value      string     `json:"value"`
	Phase      string     `json:"phase"`
	LastEditAt *time.Time `json:"lastEditAt,omitempty"`
	Propagated string     `json:"propagated"`
	Revision   int        `json:"revision"`
}

func viewOf(e *session.Entry) sessionView {
	md, rev := e.Propagated()
	v := sessionView{
		ID:         e.ID,
		PageID:     e.Session.PageID(),
		HTML:       e.Session.HTML(),
		Value:      e.Session.Value(),
		Phase:      e.Session.Phase().String(),
		Propagated: md,
		Revision:   rev,
	}
	if t := e.Session.LastEditAt(); !t.IsZero() {
		v.LastEditAt = &t
	}
	return v
}

// OpenSession handles POST /editor/sessions.
func (h *EditorHandler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e := h.sessions.Open(operatorID(c), req.PageID, req.Value)
	c.JSON(http.StatusCreated, viewOf(e))
}

// GetSession handles GET /editor/sessions/:id.
func (h *EditorHandler) GetSession(c *gin.Context) {
	e, ok := h.entry(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(e))
}

// EditSession handles PUT /editor/sessions/:id/html, a change typed by the user.
func (h *EditorHandler) EditSession(c *gin.Context) {
	e, ok := h.entry(c)
	if !ok {
		return
	}
	var req struct {
		HTML string `json:"html"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := e.Session.Edit(req.HTML); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, viewOf(e))
}

// SetSessionValue handles PUT /editor/sessions/:id/value, a value pushed by the page.
func (h *EditorHandler) SetSessionValue(c *gin.Context) {
	e, ok := h.entry(c)
	if !ok {
		return
	}
	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	applied := e.Session.SetValue(req.Value)
	c.JSON(http.StatusOK, gin.H{"applied": applied, "session": viewOf(e)})
}

// CloseSession handles DELETE /editor/sessions/:id.
func (h *EditorHandler) CloseSession(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id"), operatorID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetNaturalSize handles PUT /editor/sessions/:id/images/natural.
func (h *EditorHandler) SetNaturalSize(c *gin.Context) {
	e, ok := h.entry(c)
	if !ok {
		return
	}
	var req struct {
		Src    string `json:"src" binding:"required"`
		Width  int    `json:"width" binding:"min=1"`
		Height int    `json:"height" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e.Session.SetNaturalSize(req.Src, editor.Size{Width: req.Width, Height: req.Height})
	c.Status(http.StatusNoContent)
}

// ResizeMenu handles GET /editor/sessions/:id/images/menu?src=&displayedWidth=.
func (h *EditorHandler) ResizeMenu(c *gin.Context) {
	e, ok := h.entry(c)
	if !ok {
		return
	}
	displayed, err := strconv.Atoi(c.Query("displayedWidth"))
	if err != nil || displayed <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid displayedWidth"})
		return
	}
	menu, err := e.Session.ResizeMenu(c.Query("src"), displayed)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// ResizeImage handles PUT /editor/sessions/:id/images/size.
func (h *EditorHandler) ResizeImage(c *gin.Context) {
	e, ok := h.entry(c)
	if !ok {
		return
	}
	var req struct {
		Src     string `json:"src" binding:"required"`
		Percent int    `json:"percent" binding:"oneof=25 50 100 150"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch, err := e.Session.ResizeImage(req.Src, req.Percent)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, patch)
}

func (h *EditorHandler) entry(c *gin.Context) (*session.Entry, bool) {
	e, err := h.sessions.Get(c.Param("id"), operatorID(c))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return e, true
}

func operatorID(c *gin.Context) string {
	id, _ := util.GetOperatorID(c)
	return id
}

// scoped returns the request context with staged images scoped to the
// calling operator.
func scoped(c *gin.Context) context.Context {
	return imagestore.WithOwner(c.Request.Context(), operatorID(c))
}

func (h *EditorHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Err(err, "editor request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var gwErr *adapter.GatewayError
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, editor.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrClosed):
		return http.StatusGone
	case errors.Is(err, editor.ErrInvalidSize):
		return http.StatusBadRequest
	case errors.Is(err, imageupload.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, imageupload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, imagestore.ErrQuotaExceeded):
		return http.StatusConflict
	case errors.As(err, &gwErr):
		return gwErr.Status
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
