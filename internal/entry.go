// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/api"
	"github.com/starford/inkwell/internal/docservice"
	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/mcpserver"
	"github.com/starford/inkwell/internal/media"
	"github.com/starford/inkwell/internal/metrics"
	"github.com/starford/inkwell/internal/render"
	"github.com/starford/inkwell/internal/site"
	"github.com/starford/inkwell/internal/sse"
	"github.com/starford/inkwell/internal/storage"
	"github.com/starford/inkwell/internal/transform"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{mode: ModeBuild}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	switch app.mode {
	case ModeBuild, ModeWatch, ModeServe, ModeMCP:
	default:
		return fmt.Errorf("unknown mode %q", app.mode)
	}

	cfg := app.config

	// Initialize structured JSON logger. Stdout carries the protocol in
	// MCP mode.
	logOut := os.Stdout
	if app.mode == ModeMCP {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", app.mode),
		slog.String("markdown_root", cfg.Vault.MarkdownRoot),
		slog.String("public_root", cfg.Vault.PublicRoot),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	for _, dir := range []string{cfg.Vault.MarkdownRoot, cfg.Vault.PublicRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	source, err := storage.NewFS(cfg.Vault.MarkdownRoot)
	if err != nil {
		return fmt.Errorf("init markdown storage: %w", err)
	}
	public, err := storage.NewFS(cfg.Vault.PublicRoot)
	if err != nil {
		return fmt.Errorf("init public storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	parser := markdown.NewParser()
	m := metrics.New()

	if _, err := index.Sync(db, source, parser, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	renderer := render.New(
		render.WithCodeStyle(cfg.Render.CodeStyle),
		render.WithCodeClasses(cfg.Render.CodeClasses),
		render.WithSanitize(cfg.Render.Sanitize),
		render.WithLogger(logger),
	)
	resolver := media.NewResolver(source, public, cfg.Vault.MediaFolder,
		media.WithLogger(logger),
		media.WithMetrics(m))
	builder := site.New(source, public, db, resolver, site.Config{
		ImageMaxWidth: cfg.Render.ImageMaxWidth,
		LinkForm:      transform.LinkForm(cfg.Render.LinkForm),
		Workers:       cfg.Build.Workers,
		LiveReload:    cfg.Build.LiveReload && app.mode == ModeServe,
	},
		site.WithLogger(logger),
		site.WithMetrics(m),
		site.WithRenderer(renderer),
		site.WithParser(parser))

	svcOpts := []docservice.Option{
		docservice.WithLogger(logger),
		docservice.WithUploadDir(cfg.Vault.UploadFolder),
	}
	var broker *sse.Broker
	if app.mode == ModeServe {
		broker = sse.NewBroker(2 * time.Second)
		defer broker.Close()
		m.LiveClients(broker.Clients)
		svcOpts = append(svcOpts, docservice.WithEvents(broker))
	}
	svc := docservice.NewService(source, db, parser, builder, svcOpts...)

	report, err := svc.BuildAll(ctx)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if app.mode == ModeBuild {
		if len(report.Failed) > 0 {
			return fmt.Errorf("build: %d documents failed", len(report.Failed))
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; every change rebuilds the pages depending on it.
	g.Go(func() error {
		return index.Watch(gCtx, db, source, parser, logger, func(kind, name string) {
			if err := svc.HandleChange(gCtx, kind, name); err != nil {
				logger.Error("rebuild failed",
					slog.String("event", kind),
					slog.String("name", name),
					slog.String("error", err.Error()))
			}
		})
	})

	var httpServer *http.Server
	if app.mode == ModeServe {
		httpServer = &http.Server{
			Addr:              cfg.App.HTTP.Address(),
			Handler:           newRouter(cfg, svc, broker, m, public),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	if app.mode == ModeMCP {
		g.Go(func() error {
			logger.Info("Starting MCP server on stdio")
			defer cancel()
			return mcpserver.New(svc).ServeStdio()
		})
	}

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}
		cancel()

		if httpServer != nil {
			logger.Info("Shutting down server...")
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Stopped successfully")
	return nil
}

// newRouter mounts health checks, metrics, the API and the public root.
func newRouter(cfg *Config, svc *docservice.Service, broker *sse.Broker, m *metrics.Metrics, public storage.Provider) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	var events http.Handler
	if broker != nil {
		events = broker
	}
	r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events))

	// Everything else is the built site.
	r.Handle("/*", http.FileServer(http.Dir(public.Root())))
	return r
}
