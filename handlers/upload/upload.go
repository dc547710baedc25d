package upload

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/edupress/edu-platform-api/services/storage"
	"github.com/edupress/edu-platform-api/utils/response"
)

// maxFileSize bounds a single upload.
const maxFileSize = 10 << 20 // 10 MB

// presignExpiry bounds how long a presigned download link stays valid.
const presignExpiry = 15 * time.Minute

// allowedTypes maps accepted content types to the folder they are stored
// under.
var allowedTypes = map[string]string{
	"image/jpeg":      "images",
	"image/png":       "images",
	"image/gif":       "images",
	"image/webp":      "images",
	"application/pdf": "documents",
	"video/mp4":       "videos",
	"video/webm":      "videos",
}

// UploadHandler handles course asset uploads to the object store.
type UploadHandler struct {
	store *storage.Client
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store *storage.Client) *UploadHandler {
	return &UploadHandler{store: store}
}

// FileUploadResponse describes a stored object.
type FileUploadResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// UploadFile handles POST /api/upload: a single multipart "file" part,
// stored under a randomized key so object names never collide.
func (h *UploadHandler) UploadFile(c *fiber.Ctx) error {
	if h.store == nil {
		return response.ServerError(c, "File uploads are not enabled")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "No file provided")
	}

	if fileHeader.Size > maxFileSize {
		return response.ValidationError(c, []string{"File size must not exceed 10MB"})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	folder, ok := allowedTypes[contentType]
	if !ok {
		return response.ValidationError(c, []string{
			fmt.Sprintf("File type %s is not allowed", contentType)})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("upload: failed to open multipart file: %v", err)
		return response.ServerError(c, "Failed to upload file")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	key := fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)

	url, err := h.store.Upload(c.Context(), key, file, contentType, fileHeader.Size)
	if err != nil {
		log.Errorf("upload: object store write failed: %v", err)
		return response.ServerError(c, "Failed to upload file")
	}

	return response.Created(c, FileUploadResponse{
		Key:         key,
		URL:         url,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
	}, "File uploaded successfully")
}

// PresignedDownloadResponse carries a time-limited link to a stored object.
type PresignedDownloadResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// PresignFile handles GET /api/upload/presign/*: it signs a time-limited
// download URL for an object so clients never need bucket credentials.
func (h *UploadHandler) PresignFile(c *fiber.Ctx) error {
	if h.store == nil {
		return response.ServerError(c, "File uploads are not enabled")
	}

	key := c.Params("*")
	if key == "" {
		return response.BadRequest(c, "No file key provided")
	}

	url, err := h.store.PresignedURL(key, presignExpiry)
	if err != nil {
		log.Errorf("upload: failed to presign %s: %v", key, err)
		return response.ServerError(c, "Failed to generate download link")
	}

	return response.Success(c, PresignedDownloadResponse{
		Key:       key,
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(presignExpiry).Format(time.RFC3339),
	}, "Download link generated")
}

// DeleteFile handles DELETE /api/upload/:key (admin only). The key is
// wildcard-matched so folder prefixes survive routing.
func (h *UploadHandler) DeleteFile(c *fiber.Ctx) error {
	if h.store == nil {
		return response.ServerError(c, "File uploads are not enabled")
	}

	key := c.Params("*")
	if key == "" {
		return response.BadRequest(c, "No file key provided")
	}

	if err := h.store.Delete(c.Context(), key); err != nil {
		log.Errorf("upload: object store delete failed: %v", err)
		return response.ServerError(c, "Failed to delete file")
	}

	return response.NoContent(c)
}
