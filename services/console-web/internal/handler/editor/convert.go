package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type convertRequest struct {
	HTML     string `json:"html"`
	Markdown string `json:"markdown"`
}

// ToMarkdown handles POST /convert/to-markdown.
func (h *EditorHandler) ToMarkdown(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"markdown": h.conv.ToMarkdown(req.HTML)})
}

// ToHTML handles POST /convert/to-html.
func (h *EditorHandler) ToHTML(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": h.conv.ToHTML(req.Markdown)})
}

// Render handles POST /convert/render, the sanitized preview.
func (h *EditorHandler) Render(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": h.conv.Render(req.Markdown)})
}
