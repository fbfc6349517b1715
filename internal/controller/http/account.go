package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/socialops/internal/domain/platform/policy"
	"github.com/vadim/socialops/internal/httpx/response"
)

// AccountPolicy defines the interface for account and platform status operations
type AccountPolicy interface {
	ListAccounts() []policy.Account
	TestAccount(ctx context.Context, name string) (*policy.TestAccountOutput, error)
	PlatformStatus() policy.Status
}

// AccountHandler handles HTTP requests for platform accounts
type AccountHandler struct {
	policy AccountPolicy
	logger *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(p AccountPolicy, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{policy: p, logger: logger}
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Get("/accounts", h.List())
	r.Post("/accounts/{platform}/test", h.Test())
	r.Get("/platforms", h.Platforms())
}

// List handles GET /accounts
func (h *AccountHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts := h.policy.ListAccounts()

		response.OK(w, map[string]interface{}{
			"accounts": accounts,
			"total":    len(accounts),
		})
	}
}

// Test handles POST /accounts/{platform}/test
func (h *AccountHandler) Test() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := h.policy.TestAccount(r.Context(), chi.URLParam(r, "platform"))
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, out)
	}
}

// Platforms handles GET /platforms
func (h *AccountHandler) Platforms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, h.policy.PlatformStatus())
	}
}
