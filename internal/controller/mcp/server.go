// Package mcp exposes the content operations as MCP tools.
//
// Every tool answers with a single JSON text block shaped as
// {"success": bool, "error"?: string, ...payload}. Domain failures never
// surface as protocol errors.
package mcp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	analyticsentity "github.com/vadim/socialops/internal/domain/analytics/entity"
	analytics "github.com/vadim/socialops/internal/domain/analytics/service"
	content "github.com/vadim/socialops/internal/domain/content/entity"
	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	platformpolicy "github.com/vadim/socialops/internal/domain/platform/policy"
	queueentity "github.com/vadim/socialops/internal/domain/queue/entity"
	queue "github.com/vadim/socialops/internal/domain/queue/policy"
	"github.com/vadim/socialops/internal/metrics"
)

// ServerName is reported to MCP clients during initialization
const ServerName = "socialops"

// QueuePolicy defines the queue use-cases the tools call
type QueuePolicy interface {
	CreateContent(ctx context.Context, in queue.CreateContentInput) (*queue.CreateContentOutput, error)
	EditDraft(ctx context.Context, row int, platformName, text string) error
	ListQueue(ctx context.Context, in queue.ListQueueInput) ([]queueentity.QueueItem, error)
	Approve(ctx context.Context, row int) error
	Schedule(ctx context.Context, row int, scheduledFor string) error
	UpdateStatus(ctx context.Context, row int, status string) (queueentity.Status, error)
	PostNow(ctx context.Context, in queue.PostNowInput) (*queue.PostNowOutput, error)
	PostText(ctx context.Context, in queue.PostTextInput) (*platform.PostOutput, error)
}

// AnalyticsService defines the analytics operations the tools call
type AnalyticsService interface {
	List(ctx context.Context, in analytics.ListInput) ([]analyticsentity.Record, error)
	Refresh(ctx context.Context, postID, platformName string) (*analytics.RefreshOutput, error)
	RefreshRecent(ctx context.Context, limit int) ([]analytics.RefreshOutput, error)
}

// BrandVoiceService reads and replaces the brand voice
type BrandVoiceService interface {
	BrandVoice(ctx context.Context) (*content.BrandVoice, error)
	SetBrandVoice(ctx context.Context, bv *content.BrandVoice) error
}

// AccountPolicy answers account and platform status questions
type AccountPolicy interface {
	ListAccounts() []platformpolicy.Account
	TestAccount(ctx context.Context, name string) (*platformpolicy.TestAccountOutput, error)
	PlatformStatus() platformpolicy.Status
}

// Server holds the MCP tool server
type Server struct {
	server     *mcp.Server
	queue      QueuePolicy
	analytics  AnalyticsService
	brandVoice BrandVoiceService
	accounts   AccountPolicy
	logger     *slog.Logger
}

// NewServer creates the MCP server and registers every tool
func NewServer(
	q QueuePolicy,
	a AnalyticsService,
	bv BrandVoiceService,
	accounts AccountPolicy,
	version string,
	logger *slog.Logger,
) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: version,
		}, nil),
		queue:      q,
		analytics:  a,
		brandVoice: bv,
		accounts:   accounts,
		logger:     logger,
	}

	s.registerQueueTools()
	s.registerAnalyticsTools()
	s.registerBrandVoiceTools()
	s.registerAccountTools()

	return s
}

// MCPServer returns the underlying SDK server
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// RunStdio serves tools over stdin/stdout until the client disconnects or ctx is done
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves tools over streamable HTTP. A non-empty token is required
// as a bearer token on every request.
func (s *Server) HTTPHandler(token string) http.Handler {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	if token == "" {
		return handler
	}

	verify := func(_ context.Context, got string, _ *http.Request) (*mcpauth.TokenInfo, error) {
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return nil, mcpauth.ErrInvalidToken
		}
		return &mcpauth.TokenInfo{
			Scopes:     []string{"tools"},
			Expiration: time.Now().UTC().Add(24 * time.Hour),
		}, nil
	}
	return mcpauth.RequireBearerToken(verify, nil)(handler)
}

// payload is the tool-specific part of a result
type payload map[string]any

// addTool registers a typed tool whose failures are reported in-band
func addTool[In any](s *Server, tool *mcp.Tool, fn func(ctx context.Context, in In) (payload, error)) {
	mcp.AddTool(s.server, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		out, err := fn(ctx, in)
		metrics.ObserveToolCall(tool.Name, err == nil)
		if err != nil {
			s.logger.Warn("tool call failed", "tool", tool.Name, "error", err)
			return failure(err), nil, nil
		}
		return s.success(tool.Name, out), nil, nil
	})
}

func (s *Server) success(tool string, out payload) *mcp.CallToolResult {
	body := make(map[string]any, len(out)+1)
	for k, v := range out {
		body[k] = v
	}
	body["success"] = true

	b, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("encoding tool result", "tool", tool, "error", err)
		return failure(err)
	}
	return textResult(string(b), false)
}

func failure(err error) *mcp.CallToolResult {
	b, _ := json.Marshal(map[string]any{
		"success": false,
		"error":   err.Error(),
	})
	return textResult(string(b), true)
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: isError,
	}
}
