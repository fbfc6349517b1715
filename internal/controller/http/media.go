package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/socialops/internal/httpx/response"
	"github.com/vadim/socialops/internal/storage"
)

// MaxUploadSize is the maximum allowed upload size (10MB)
const MaxUploadSize = 10 << 20

// MediaUploader defines the interface for uploading media
type MediaUploader interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadOutput, error)
}

// MediaHandler handles media upload HTTP requests
type MediaHandler struct {
	uploader MediaUploader
	logger   *slog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(uploader MediaUploader, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{uploader: uploader, logger: logger}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/media/upload", h.Upload())
}

// Upload handles POST /media/upload. The returned url can be passed as a media url when posting.
func (h *MediaHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			response.BadRequest(w, "file too large or invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "missing file in request")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !isAllowedMediaType(contentType) {
			response.BadRequest(w, fmt.Sprintf("unsupported media type: %s", contentType))
			return
		}

		out, err := h.uploader.Upload(r.Context(), storage.UploadInput{
			Reader:      file,
			ContentType: contentType,
			Size:        header.Size,
			Filename:    header.Filename,
		})
		if err != nil {
			h.logger.Error("media upload failed", "filename", header.Filename, "error", err)
			response.BadGateway(w, "failed to upload file")
			return
		}

		h.logger.Info("media uploaded", "key", out.Key, "size", out.Size)
		response.Created(w, out)
	}
}

// isAllowedMediaType reports whether the live platforms accept the content type as an image
func isAllowedMediaType(contentType string) bool {
	allowed := []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	for _, a := range allowed {
		if strings.EqualFold(contentType, a) {
			return true
		}
	}
	return false
}
