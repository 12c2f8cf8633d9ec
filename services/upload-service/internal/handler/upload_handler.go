package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admVeloHub/Console-v2-gcp/pkg/imageupload"
	"github.com/admVeloHub/Console-v2-gcp/pkg/logger"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/domain"
	"github.com/admVeloHub/Console-v2-gcp/services/upload-service/internal/model"
)

type uploadHandler struct {
	service domain.UploadService
	log     *logger.Logger
}

func NewUploadHandler(service domain.UploadService, log *logger.Logger) *uploadHandler {
	return &uploadHandler{service: service, log: log}
}

// GenerateUploadURLHandler handles POST /uploads/generate-upload-url.
func (h *uploadHandler) GenerateUploadURLHandler(c *gin.Context) {
	var req model.GenerateUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.UploadURLResponse{Error: "Invalid request"})
		return
	}
	signed, err := h.service.GenerateUploadURL(c.Request.Context(), domain.UploadRequest{
		FileName: req.FileName,
		MimeType: req.MimeType,
		FileSize: req.FileSize,
		Folder:   req.Folder,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Err(err, "generate upload url failed")
		}
		c.JSON(status, model.UploadURLResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.UploadURLResponse{
		Success: true,
		Data: &model.UploadURLData{
			UploadURL: signed.UploadURL,
			FileName:  signed.FileName,
			Bucket:    signed.Bucket,
			ExpiresIn: signed.ExpiresIn,
			Headers:   signed.Headers,
			PublicURL: signed.PublicURL,
		},
	})
}

// DeleteImageHandler handles DELETE /uploads/image.
func (h *uploadHandler) DeleteImageHandler(c *gin.Context) {
	var req model.DeleteImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.service.DeleteImage(c.Request.Context(), req.FileName); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Err(err, "delete image failed")
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, imageupload.ErrUnsupportedType),
		errors.Is(err, imageupload.ErrFileTooLarge),
		errors.Is(err, domain.ErrInvalidFolder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrImageNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
