package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/socialops/internal/domain/content/entity"
	"github.com/vadim/socialops/internal/httpx/response"
)

// BrandVoiceService defines the interface for reading and replacing the brand voice
type BrandVoiceService interface {
	BrandVoice(ctx context.Context) (*entity.BrandVoice, error)
	SetBrandVoice(ctx context.Context, bv *entity.BrandVoice) error
}

// BrandVoiceHandler handles HTTP requests for the brand voice
type BrandVoiceHandler struct {
	svc    BrandVoiceService
	logger *slog.Logger
}

// NewBrandVoiceHandler creates a new brand voice handler
func NewBrandVoiceHandler(svc BrandVoiceService, logger *slog.Logger) *BrandVoiceHandler {
	return &BrandVoiceHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers brand voice routes
func (h *BrandVoiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/brand-voice", h.Get())
	r.Put("/brand-voice", h.Put())
}

// Get handles GET /brand-voice
func (h *BrandVoiceHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bv, err := h.svc.BrandVoice(r.Context())
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, bv)
	}
}

// Put handles PUT /brand-voice. Omitted fields keep their current value.
func (h *BrandVoiceHandler) Put() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var bv entity.BrandVoice
		if err := readJSON(r, &bv); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		if err := h.svc.SetBrandVoice(r.Context(), &bv); err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, &bv)
	}
}
