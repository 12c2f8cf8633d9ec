package model

// GenerateUploadURLRequest represents the request payload for a signed upload URL
type GenerateUploadURLRequest struct {
	FileName string `json:"fileName" binding:"required"`
	MimeType string `json:"mimeType" binding:"required"`
	FileSize int64  `json:"fileSize" binding:"required,gt=0"`
	Folder   string `json:"folder"`
}

// UploadURLData is the data part of a successful response
type UploadURLData struct {
	UploadURL string            `json:"uploadUrl"`
	FileName  string            `json:"fileName"`
	Bucket    string            `json:"bucket"`
	ExpiresIn int               `json:"expiresIn"`
	Headers   map[string]string `json:"headers,omitempty"`
	PublicURL string            `json:"publicUrl,omitempty"`
}

// UploadURLResponse wraps UploadURLData the way the console expects
type UploadURLResponse struct {
	Success bool           `json:"success"`
	Data    *UploadURLData `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// DeleteImageRequest represents the request payload for deleting an image
type DeleteImageRequest struct {
	FileName string `json:"fileName" binding:"required"` // relative path eg) img_velonews/uuid.png
}
