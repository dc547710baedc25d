package upload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupress/edu-platform-api/services/storage"
)

func newTestStore(t *testing.T) *storage.Client {
	t.Helper()
	store, err := storage.NewClient(storage.Config{
		Endpoint:  "minio.test:9000",
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "edu-assets",
	})
	require.NoError(t, err)
	return store
}

func newUploadApp(store *storage.Client) *fiber.App {
	app := fiber.New()
	h := NewUploadHandler(store)
	app.Post("/api/upload", h.UploadFile)
	app.Get("/api/upload/presign/*", h.PresignFile)
	app.Delete("/api/upload/*", h.DeleteFile)
	return app
}

func TestPresignFile(t *testing.T) {
	app := newUploadApp(newTestStore(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/upload/presign/images/banner.png", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                      `json:"success"`
		Data    PresignedDownloadResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "images/banner.png", body.Data.Key)
	assert.Contains(t, body.Data.URL, "X-Amz-Signature")
	assert.Contains(t, body.Data.URL, "edu-assets/images/banner.png")
	assert.NotEmpty(t, body.Data.ExpiresAt)
}

func TestPresignFileWithoutStore(t *testing.T) {
	app := newUploadApp(nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/upload/presign/images/banner.png", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func multipartFile(t *testing.T, contentType string, payload []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="asset.bin"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestUploadFileRejectsDisallowedType(t *testing.T) {
	app := newUploadApp(newTestStore(t))

	body, contentType := multipartFile(t, "text/plain", []byte("not a course asset"))
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var envelope struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Contains(t, envelope.Errors, "File type text/plain is not allowed")
}

func TestUploadFileRequiresFilePart(t *testing.T) {
	app := newUploadApp(newTestStore(t))

	resp, err := app.Test(httptest.NewRequest("POST", "/api/upload", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
