package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/pkg/util"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/domain"
	"github.com/admVeloHub/Console-v2-gcp/services/content-service/internal/model"
)

// ArticleHandler handles HTTP requests for articles.
type ArticleHandler struct {
	Service domain.ArticleService
	log     *logger.Logger
}

// NewArticleHandler creates a new ArticleHandler.
func NewArticleHandler(service domain.ArticleService, log *logger.Logger) *ArticleHandler {
	return &ArticleHandler{Service: service, log: log}
}

// Register mounts the article routes on r.
func (h *ArticleHandler) Register(r gin.IRoutes) {
	r.GET("/articles", h.ListArticles)
	r.GET("/articles/:id", h.GetArticle)
	r.GET("/articles/:id/render", h.RenderArticle)
	r.POST("/articles", h.CreateArticle)
	r.PUT("/articles/:id", h.UpdateArticle)
	r.DELETE("/articles/:id", h.DeleteArticle)
}

// CreateArticle handles POST /articles.
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	var req domain.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// passed the gateway, the operator identity is in the headers
	op, ok := util.GetOperator(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	article, err := h.Service.CreateArticle(c.Request.Context(), req, domain.Author{ID: op.ID, Name: op.Name})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// GetArticle handles GET /articles/:id.
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	article, err := h.Service.GetArticle(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// ListArticles handles GET /articles?page=&published=&search=&limit=&offset=.
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	var q model.ArticleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	articles, err := h.Service.ListArticles(c.Request.Context(), q.Filter())
	if err != nil {
		h.fail(c, err)
		return
	}
	if articles == nil {
		articles = []*domain.Article{}
	}
	c.JSON(http.StatusOK, model.ListArticlesResponse{Articles: articles, Count: len(articles)})
}

// RenderArticle handles GET /articles/:id/render.
func (h *ArticleHandler) RenderArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	rendered, err := h.Service.RenderArticle(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rendered)
}

// UpdateArticle handles PUT /articles/:id.
func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	var req domain.UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := util.GetOperatorID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	article, err := h.Service.UpdateArticle(c.Request.Context(), id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// DeleteArticle handles DELETE /articles/:id.
func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}
	if _, ok := util.GetOperatorID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.Service.DeleteArticle(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func articleID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (h *ArticleHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Err(err, "article request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrArticleNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnresolvedPlaceholder):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidPage), errors.Is(err, domain.ErrInvalidVideo):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
