package handler

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/editor"
	"github.com/admVeloHub/Console-v2-gcp/pkg/imagestore"
	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
)

// tempImage is a staged record without its payload.
type tempImage struct {
	UUID      string `json:"uuid"`
	BlobURL   string `json:"blobUrl"`
	FileName  string `json:"fileName"`
	FileType  string `json:"fileType"`
	FileSize  int64  `json:"fileSize"`
	Timestamp int64  `json:"timestamp"`
}

// InsertImage handles POST /editor/sessions/:id/images (multipart "file",
// with optional "naturalWidth" and "naturalHeight").
func (h *EditorHandler) InsertImage(c *gin.Context) {
	e, ok := h.entry(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	mimeType := fh.Header.Get("Content-Type")
	if err := imageupload.Validate(mimeType, fh.Size); err != nil {
		h.fail(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image data"})
		return
	}

	natural := editor.Size{}
	natural.Width, _ = strconv.Atoi(c.PostForm("naturalWidth"))
	natural.Height, _ = strconv.Atoi(c.PostForm("naturalHeight"))

	file := imagestore.File{Name: fh.Filename, Type: mimeType, Data: data}
	id, blobURL, err := e.Session.InsertImage(scoped(c), file, natural)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"uuid": id, "blobUrl": blobURL, "html": e.Session.HTML()})
}

// ListTempImages handles GET /pages/:pageId/temp-images, oldest first.
func (h *EditorHandler) ListTempImages(c *gin.Context) {
	records := h.store.GetAll(scoped(c), c.Param("pageId"))
	out := make([]tempImage, 0, len(records))
	for _, r := range records {
		out = append(out, tempImage{
			UUID:      r.UUID,
			BlobURL:   r.BlobURL,
			FileName:  r.FileName,
			FileType:  r.FileType,
			FileSize:  r.FileSize,
			Timestamp: r.Timestamp,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].UUID < out[j].UUID
	})
	c.JSON(http.StatusOK, gin.H{"images": out, "count": len(out)})
}

// GetTempImage handles GET /pages/:pageId/temp-images/:uuid and serves the
// staged bytes so the editor can preview them.
func (h *EditorHandler) GetTempImage(c *gin.Context) {
	file, ok := h.store.GetAsFile(scoped(c), c.Param("uuid"), c.Param("pageId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "temporary image not found"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.Type, file.Data)
}

// RemoveTempImage handles DELETE /pages/:pageId/temp-images/:uuid.
func (h *EditorHandler) RemoveTempImage(c *gin.Context) {
	if err := h.store.Remove(scoped(c), c.Param("uuid"), c.Param("pageId")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearTempImages handles DELETE /pages/:pageId/temp-images. Only the
// calling operator's records are cleared.
func (h *EditorHandler) ClearTempImages(c *gin.Context) {
	if err := h.store.ClearAll(scoped(c), c.Param("pageId")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SweepTempImages handles POST /pages/:pageId/temp-images/sweep?maxAgeHours=.
func (h *EditorHandler) SweepTempImages(c *gin.Context) {
	maxAge := imagestore.DefaultMaxAge
	if v := c.Query("maxAgeHours"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maxAgeHours"})
			return
		}
		maxAge = time.Duration(hours) * time.Hour
	}
	removed := h.store.SweepOlderThan(scoped(c), c.Param("pageId"), maxAge)
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// CheckTempImages handles POST /pages/:pageId/temp-images/check. It reports
// the placeholders of a document and which of them have no staged record.
func (h *EditorHandler) CheckTempImages(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pageID := c.Param("pageId")
	ctx := scoped(c)
	placeholders := imageupload.FindPlaceholders(req.Content)
	uuids := make([]string, 0, len(placeholders))
	missing := []string{}
	for _, ph := range placeholders {
		uuids = append(uuids, ph.UUID)
		if _, ok := h.store.Get(ctx, ph.UUID, pageID); !ok {
			missing = append(missing, ph.UUID)
		}
	}
	if len(missing) > 0 {
		h.log.With("page", pageID).Warn(fmt.Sprintf("%d placeholders without staged image", len(missing)))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(uuids), "uuids": uuids, "missing": missing})
}
