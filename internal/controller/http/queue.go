package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	"github.com/vadim/socialops/internal/domain/queue/entity"
	"github.com/vadim/socialops/internal/domain/queue/policy"
	"github.com/vadim/socialops/internal/httpx/response"
)

// QueuePolicy defines the interface for queue operations
// Interface is defined by consumer (handler), not provider (policy)
type QueuePolicy interface {
	CreateContent(ctx context.Context, in policy.CreateContentInput) (*policy.CreateContentOutput, error)
	EditDraft(ctx context.Context, row int, platformName, text string) error
	ListQueue(ctx context.Context, in policy.ListQueueInput) ([]entity.QueueItem, error)
	GetItem(ctx context.Context, row int) (*entity.QueueItem, error)
	Approve(ctx context.Context, row int) error
	Schedule(ctx context.Context, row int, scheduledFor string) error
	UpdateStatus(ctx context.Context, row int, status string) (entity.Status, error)
	PostNow(ctx context.Context, in policy.PostNowInput) (*policy.PostNowOutput, error)
	PostText(ctx context.Context, in policy.PostTextInput) (*platform.PostOutput, error)
}

// QueueHandler handles HTTP requests for the content queue
type QueueHandler struct {
	policy QueuePolicy
	logger *slog.Logger
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(p QueuePolicy, logger *slog.Logger) *QueueHandler {
	return &QueueHandler{policy: p, logger: logger}
}

// RegisterRoutes registers queue routes
func (h *QueueHandler) RegisterRoutes(r chi.Router) {
	r.Post("/content", h.CreateContent())
	r.Post("/posts", h.PostText())

	r.Route("/queue", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/{row}", h.Get())
		r.Put("/{row}/drafts/{platform}", h.EditDraft())
		r.Post("/{row}/approve", h.Approve())
		r.Post("/{row}/schedule", h.Schedule())
		r.Put("/{row}/status", h.UpdateStatus())
		r.Post("/{row}/post", h.PostNow())
	})
}

// CreateContentRequest represents the request body for drafting content
type CreateContentRequest struct {
	Topic     string   `json:"topic" validate:"required"`
	Platforms []string `json:"platforms" validate:"required,min=1"`
	Tone      string   `json:"tone,omitempty"`
	Org       string   `json:"org,omitempty"`
}

// CreateContent handles POST /content
func (h *QueueHandler) CreateContent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateContentRequest
		if err := decodeJSON(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		out, err := h.policy.CreateContent(r.Context(), policy.CreateContentInput{
			Topic:     req.Topic,
			Platforms: req.Platforms,
			Tone:      req.Tone,
			Org:       req.Org,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.Created(w, out)
	}
}

// ListResponse represents the response for listing queue items
type ListResponse struct {
	Items []entity.QueueItem `json:"items"`
	Count int                `json:"count"`
}

// List handles GET /queue
func (h *QueueHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := 0
		if l := q.Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			limit = li
		}

		items, err := h.policy.ListQueue(r.Context(), policy.ListQueueInput{
			Status: q.Get("status"),
			Limit:  limit,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}
		if items == nil {
			items = []entity.QueueItem{}
		}

		response.OK(w, ListResponse{Items: items, Count: len(items)})
	}
}

// Get handles GET /queue/{row}
func (h *QueueHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := rowParam(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		item, err := h.policy.GetItem(r.Context(), row)
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, item)
	}
}

// EditDraftRequest represents the request body for replacing a draft
type EditDraftRequest struct {
	Text string `json:"text"`
}

// EditDraft handles PUT /queue/{row}/drafts/{platform}
func (h *QueueHandler) EditDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := rowParam(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		var req EditDraftRequest
		if err := decodeJSON(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		name := chi.URLParam(r, "platform")
		if err := h.policy.EditDraft(r.Context(), row, name, req.Text); err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, map[string]interface{}{"row": row, "platform": name})
	}
}

// Approve handles POST /queue/{row}/approve
func (h *QueueHandler) Approve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := rowParam(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		if err := h.policy.Approve(r.Context(), row); err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, map[string]interface{}{"row": row, "status": entity.StatusApproved})
	}
}

// ScheduleRequest represents the request body for scheduling a queue item
type ScheduleRequest struct {
	ScheduledFor string `json:"scheduled_for" validate:"required"`
}

// Schedule handles POST /queue/{row}/schedule
func (h *QueueHandler) Schedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := rowParam(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		var req ScheduleRequest
		if err := decodeJSON(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		if err := h.policy.Schedule(r.Context(), row, req.ScheduledFor); err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, map[string]interface{}{
			"row":           row,
			"status":        entity.StatusScheduled,
			"scheduled_for": req.ScheduledFor,
		})
	}
}

// UpdateStatusRequest represents the request body for overriding a status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PUT /queue/{row}/status
func (h *QueueHandler) UpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := rowParam(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		var req UpdateStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		st, err := h.policy.UpdateStatus(r.Context(), row, req.Status)
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, map[string]interface{}{"row": row, "status": st})
	}
}

// PostNowRequest represents the optional request body for posting a queue item
type PostNowRequest struct {
	Platforms []string `json:"platforms,omitempty"`
	MediaURLs []string `json:"media_urls,omitempty" validate:"omitempty,dive,url"`
}

// PostNow handles POST /queue/{row}/post
func (h *QueueHandler) PostNow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := rowParam(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		var req PostNowRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				response.BadRequest(w, err.Error())
				return
			}
		}

		out, err := h.policy.PostNow(r.Context(), policy.PostNowInput{
			Row:       row,
			Platforms: req.Platforms,
			MediaURLs: req.MediaURLs,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, out)
	}
}

// PostTextRequest represents the request body for a one-off post
type PostTextRequest struct {
	Text      string   `json:"text" validate:"required"`
	Platform  string   `json:"platform" validate:"required"`
	MediaURLs []string `json:"media_urls,omitempty" validate:"omitempty,dive,url"`
}

// PostText handles POST /posts
func (h *QueueHandler) PostText() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PostTextRequest
		if err := decodeJSON(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		out, err := h.policy.PostText(r.Context(), policy.PostTextInput{
			Text:      req.Text,
			Platform:  req.Platform,
			MediaURLs: req.MediaURLs,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.Created(w, map[string]interface{}{"platform": req.Platform, "result": out})
	}
}
