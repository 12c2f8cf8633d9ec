package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/middleware"
	"github.com/admVeloHub/Console-v2-gcp/services/console-web/internal/adapter"
)

type submitRequest struct {
	ArticleID string   `json:"articleId"`
	Title     string   `json:"title" binding:"required,min=1,max=200"`
	Content   string   `json:"content" binding:"required"`
	Videos    []string `json:"videos"`
	Published bool     `json:"published"`
}

// Submit handles POST /pages/:pageId/submit. Staged images are uploaded
// first; the article is saved only when every upload succeeded.
func (h *EditorHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, ok := middleware.AccessToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "need to login"})
		return
	}
	pageID := c.Param("pageId")
	log := h.log.With("page", pageID)

	ctx := imageupload.WithAccessToken(scoped(c), token)
	out, err := h.processor.Process(ctx, req.Content, pageID, func(current, total int) {
		log.Debug(fmt.Sprintf("uploading image %d of %d", current, total))
	})
	if err != nil {
		var upErr *imageupload.UploadError
		if errors.As(err, &upErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "failed": upErr.UUIDs()})
			return
		}
		h.fail(c, err)
		return
	}

	videos := make([]string, 0, len(req.Videos))
	for _, v := range req.Videos {
		if v = strings.TrimSpace(v); v != "" {
			videos = append(videos, v)
		}
	}
	saved, err := h.articles.Save(c.Request.Context(), token, req.ArticleID, adapter.ArticlePayload{
		PageID:    pageID,
		Title:     req.Title,
		Content:   out.Markdown,
		Media:     adapter.Media{Images: out.ImageFileNames, Videos: videos},
		Published: req.Published,
	})
	if err != nil {
		// uploaded images are already consumed; the caller resubmits the
		// rewritten content
		log.Err(err, "article save failed after uploads")
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "content": out.Markdown, "images": out.ImageFileNames})
		return
	}

	status := http.StatusCreated
	if req.ArticleID != "" {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"article": saved, "content": out.Markdown, "images": out.ImageFileNames})
}
