package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vadim/socialops/internal/config"
	httpcontroller "github.com/vadim/socialops/internal/controller/http"
	mcpcontroller "github.com/vadim/socialops/internal/controller/mcp"
	"github.com/vadim/socialops/internal/database"
	analyticsdao "github.com/vadim/socialops/internal/domain/analytics/dao"
	"github.com/vadim/socialops/internal/domain/analytics/scheduler"
	analyticsservice "github.com/vadim/socialops/internal/domain/analytics/service"
	contentdao "github.com/vadim/socialops/internal/domain/content/dao"
	contentservice "github.com/vadim/socialops/internal/domain/content/service"
	"github.com/vadim/socialops/internal/domain/platform/adapter"
	platform "github.com/vadim/socialops/internal/domain/platform/entity"
	platformpolicy "github.com/vadim/socialops/internal/domain/platform/policy"
	"github.com/vadim/socialops/internal/domain/platform/registry"
	queuedao "github.com/vadim/socialops/internal/domain/queue/dao"
	queuepolicy "github.com/vadim/socialops/internal/domain/queue/policy"
	queueservice "github.com/vadim/socialops/internal/domain/queue/service"
	"github.com/vadim/socialops/internal/httpx/upstream/bluesky"
	"github.com/vadim/socialops/internal/httpx/upstream/gemini"
	"github.com/vadim/socialops/internal/httpx/upstream/mastodon"
	"github.com/vadim/socialops/internal/httpx/upstream/mediafetch"
	"github.com/vadim/socialops/internal/httpx/upstream/openai"
	"github.com/vadim/socialops/internal/metrics"
	"github.com/vadim/socialops/internal/storage"
	"github.com/vadim/socialops/internal/storage/table"
)

// Option configures the App
type Option func(*App)

// WithLogOutput sends logs to w instead of stdout. The stdio MCP transport owns stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) {
		a.logOut = w
	}
}

// WithVersion sets the version reported by the MCP server
func WithVersion(version string) Option {
	return func(a *App) {
		a.version = version
	}
}

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	logOut     io.Writer
	version    string

	store table.Store

	// Domain layers shared by the HTTP handlers and the MCP tools
	queuePolicy      *queuepolicy.Policy
	contentService   *contentservice.Service
	analyticsService *analyticsservice.Service
	platformPolicy   *platformpolicy.Policy
	mediaStore       *storage.MediaStore

	mcpServer *mcpcontroller.Server

	// Periodic analytics refresher, nil when disabled
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	app := &App{
		cfg:     cfg,
		logOut:  os.Stdout,
		version: "dev",
	}
	for _, opt := range opts {
		opt(app)
	}

	app.logger = slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(ctx); err != nil {
		_ = app.store.Close()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	app.mcpServer = mcpcontroller.NewServer(
		app.queuePolicy,
		app.analyticsService,
		app.contentService,
		app.platformPolicy,
		app.version,
		app.logger,
	)

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(metrics.Middleware)
	app.router = r

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Initialize scheduler
	if cfg.Analytics.RefreshEnabled {
		s, err := scheduler.New(
			app.analyticsService,
			cfg.Analytics.RefreshInterval,
			cfg.Analytics.RefreshLimit,
			app.logger,
		)
		if err != nil {
			_ = app.store.Close()
			return nil, fmt.Errorf("initializing scheduler: %w", err)
		}
		app.scheduler = s
	}

	return app, nil
}

// initInfrastructure opens the table store and the media bucket
func (a *App) initInfrastructure(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.store = store
	a.logger.Info("table store opened", "backend", a.cfg.Store.Backend)

	if a.cfg.S3.Enabled {
		a.mediaStore = storage.NewMediaStore(storage.S3Config{
			Endpoint:        a.cfg.S3.Endpoint,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
			Bucket:          a.cfg.S3.Bucket,
			Region:          a.cfg.S3.Region,
			PublicURL:       a.cfg.S3.PublicURL,
		})
		a.logger.Info("media uploads enabled", "bucket", a.cfg.S3.Bucket)
	}

	return nil
}

func (a *App) openStore(ctx context.Context) (table.Store, error) {
	sc := a.cfg.Store

	switch sc.Backend {
	case config.BackendSheets:
		if sc.SpreadsheetID == "" {
			return nil, errors.New("CONTENT_QUEUE_SHEET_ID is required for the sheets backend")
		}
		store, err := table.NewSheets(ctx, sc.SpreadsheetID, sc.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("connecting to google sheets: %w", err)
		}
		return store, nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, a.cfg.Database.PostgresDSN, database.PoolConfig{
			MaxConns:        a.cfg.Database.MaxConns,
			MinConns:        a.cfg.Database.MinConns,
			MaxConnIdleTime: a.cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		store, err := table.NewPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("preparing postgres tables: %w", err)
		}
		return store, nil

	case config.BackendSQLite:
		db, err := database.NewSQLite(ctx, sc.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		store, err := table.NewSQLite(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("preparing sqlite tables: %w", err)
		}
		return store, nil

	case config.BackendMemory:
		a.logger.Warn("using in-memory store, data is lost on exit")
		return table.NewMemory(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(ctx context.Context) error {
	queueTable, err := queuedao.NewQueueTable(ctx, a.store, a.cfg.Store.QueueTab)
	if err != nil {
		return fmt.Errorf("opening queue tab: %w", err)
	}
	recordTable, err := analyticsdao.NewRecordTable(ctx, a.store, a.cfg.Store.AnalyticsTab)
	if err != nil {
		return fmt.Errorf("opening analytics tab: %w", err)
	}

	platforms := a.buildRegistry()

	completer, err := a.buildCompleter(ctx)
	if err != nil {
		return err
	}

	a.contentService = contentservice.New(
		completer,
		contentdao.NewBrandVoiceFile(a.cfg.BrandVoice.Path, a.logger),
		a.logger,
	)

	queueService := queueservice.New(queueTable)
	a.queuePolicy = queuepolicy.New(queueService, a.contentService, platforms, a.logger)
	a.analyticsService = analyticsservice.New(recordTable, queueService, platforms, a.logger)
	a.platformPolicy = platformpolicy.New(platforms, a.cfg, a.logger)

	return nil
}

// buildRegistry registers the live BlueSky and Mastodon adapters and the four stubs.
// Missing credentials do not change a live adapter's mode; its calls fail at login.
func (a *App) buildRegistry() *registry.Registry {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	media := mediafetch.New(httpClient)

	for _, p := range []platform.Platform{platform.PlatformBluesky, platform.PlatformMastodon} {
		if !a.cfg.Configured(p) {
			a.logger.Warn("platform credentials missing, posting will fail", "platform", p)
		}
	}

	blueskyClient := bluesky.New(a.cfg.Bluesky.Handle, a.cfg.Bluesky.AppPassword,
		bluesky.WithBaseURL(a.cfg.Bluesky.PDSURL),
		bluesky.WithHTTPClient(httpClient),
	)
	mastodonClient := mastodon.New(a.cfg.Mastodon.AccessToken,
		mastodon.WithInstance(a.cfg.Mastodon.Instance),
		mastodon.WithHTTPClient(httpClient),
	)

	adapters := []registry.Adapter{
		adapter.NewBluesky(blueskyClient, media, a.logger),
		adapter.NewMastodon(mastodonClient, media, a.logger),
	}

	adapters = append(adapters,
		adapter.NewFacebook(),
		adapter.NewInstagram(),
		adapter.NewLinkedIn(),
		adapter.NewTwitter(),
	)

	r := registry.New(adapters...)
	for _, ad := range r.All() {
		a.logger.Debug("platform registered", "platform", ad.Platform(), "mode", ad.Mode())
	}
	return r
}

// buildCompleter returns the configured text generation provider, or nil when it has no key
func (a *App) buildCompleter(ctx context.Context) (contentservice.Completer, error) {
	gc := a.cfg.Generation

	switch gc.Provider {
	case config.ProviderOpenAI:
		if gc.OpenAIAPIKey == "" {
			a.logger.Warn("OPENAI_API_KEY is not set, content generation is disabled")
			return nil, nil
		}
		return openai.New(gc.OpenAIAPIKey,
			openai.WithBaseURL(gc.OpenAIBaseURL),
			openai.WithModel(gc.OpenAIModel),
		), nil

	case config.ProviderGemini:
		if gc.GeminiAPIKey == "" {
			a.logger.Warn("GEMINI_API_KEY is not set, content generation is disabled")
			return nil, nil
		}
		client, err := gemini.New(ctx, gc.GeminiAPIKey, gc.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown generation provider %q", gc.Provider)
	}
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)
	a.router.Handle("/metrics", metrics.Handler())

	// Swagger UI documentation
	swaggerHandler := httpcontroller.NewSwaggerHandler("socialops API", OpenAPISpec)
	swaggerHandler.RegisterRoutes(a.router)

	// MCP tools over streamable HTTP. No request timeout: sessions are long-lived.
	a.router.Handle("/mcp", a.mcpServer.HTTPHandler(a.cfg.MCP.AuthToken))

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(90 * time.Second))

		httpcontroller.NewQueueHandler(a.queuePolicy, a.logger).RegisterRoutes(r)
		httpcontroller.NewAnalyticsHandler(a.analyticsService, a.logger).RegisterRoutes(r)
		httpcontroller.NewBrandVoiceHandler(a.contentService, a.logger).RegisterRoutes(r)
		httpcontroller.NewAccountHandler(a.platformPolicy, a.logger).RegisterRoutes(r)

		// Media upload routes (only if S3 is configured)
		if a.mediaStore != nil {
			httpcontroller.NewMediaHandler(a.mediaStore, a.logger).RegisterRoutes(r)
		}
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler reports ready once the queue tab answers a read
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := a.queuePolicy.ListQueue(ctx, queuepolicy.ListQueueInput{Limit: 1}); err != nil {
		a.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the HTTP server and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start scheduler if enabled
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// RunMCPStdio serves the MCP tools over stdin/stdout until the client disconnects
// or a shutdown signal arrives. The HTTP server is not started.
func (a *App) RunMCPStdio(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.scheduler != nil {
		a.scheduler.Start(ctx)
		defer a.scheduler.Stop()
	}
	defer a.closeStore()

	if err := a.mcpServer.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop scheduler
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.closeStore()

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeStore() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("closing table store", "error", err)
	}
}

// Router exposes the HTTP handler, used by tests
func (a *App) Router() http.Handler {
	return a.router
}
