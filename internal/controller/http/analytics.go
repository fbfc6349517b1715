package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/socialops/internal/domain/analytics/entity"
	"github.com/vadim/socialops/internal/domain/analytics/service"
	"github.com/vadim/socialops/internal/httpx/response"
)

// AnalyticsService defines the interface for analytics operations
type AnalyticsService interface {
	List(ctx context.Context, in service.ListInput) ([]entity.Record, error)
	Refresh(ctx context.Context, postID, platformName string) (*service.RefreshOutput, error)
	RefreshRecent(ctx context.Context, limit int) ([]service.RefreshOutput, error)
}

// AnalyticsHandler handles HTTP requests for engagement metrics
type AnalyticsHandler struct {
	svc    AnalyticsService
	logger *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(svc AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics", h.List())
	r.Post("/analytics/refresh", h.Refresh())
}

// AnalyticsResponse represents the response for listing analytics
type AnalyticsResponse struct {
	Records []entity.Record `json:"records"`
	Count   int             `json:"count"`
	Days    int             `json:"days"`
}

// List handles GET /analytics
func (h *AnalyticsHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		days := 7
		if d := q.Get("days"); d != "" {
			di, err := strconv.Atoi(d)
			if err != nil || di < 0 {
				response.BadRequest(w, "invalid days")
				return
			}
			days = di
		}

		limit := 0
		if l := q.Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			limit = li
		}

		records, err := h.svc.List(r.Context(), service.ListInput{
			Platform: q.Get("platform"),
			Days:     days,
			Limit:    limit,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}
		if records == nil {
			records = []entity.Record{}
		}

		response.OK(w, AnalyticsResponse{Records: records, Count: len(records), Days: days})
	}
}

// RefreshRequest represents the optional request body for refreshing metrics
type RefreshRequest struct {
	PostID   string `json:"post_id,omitempty"`
	Platform string `json:"platform,omitempty"`
	Limit    int    `json:"limit,omitempty" validate:"gte=0"`
}

// Refresh handles POST /analytics/refresh
func (h *AnalyticsHandler) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				response.BadRequest(w, err.Error())
				return
			}
		}

		if req.PostID != "" {
			out, err := h.svc.Refresh(r.Context(), req.PostID, req.Platform)
			if err != nil {
				handleDomainError(w, h.logger, err)
				return
			}
			response.OK(w, out)
			return
		}

		refreshed, err := h.svc.RefreshRecent(r.Context(), req.Limit)
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}
		if refreshed == nil {
			refreshed = []service.RefreshOutput{}
		}

		response.OK(w, map[string]interface{}{"refreshed": refreshed})
	}
}
