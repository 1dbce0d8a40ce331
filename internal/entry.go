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

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/sse"
)

// Run starts the HTTP API with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := app.logger()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("local_root", cfg.Storage.Local.Root),
		slog.Bool("index_enabled", cfg.Index.Enabled),
		slog.String("default_locale", cfg.Site.DefaultLocale),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := openComponents(ctx, cfg, logger, broker)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.db != nil {
		st, err := c.svc.Reindex(ctx)
		if err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("initial sync done",
				slog.Int("indexed", st.Indexed),
				slog.Int("unchanged", st.Unchanged),
				slog.Int("removed", st.Removed),
				slog.Int("skipped", st.Skipped))
		}
	}

	var verifier api.Verifier = api.AllowAll{}
	if cfg.Auth.AuthEnabled() {
		verifier = api.TokenVerifier{Token: cfg.Auth.Token}
	}
	apiRouter := api.NewRouter(c.svc, verifier, broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if c.db != nil && cfg.Index.Watch && !cfg.Storage.RemoteEnabled() {
		g.Go(func() error {
			err := index.Watch(gCtx, c.db, c.svc.Source(), cfg.Storage.Local.Root, logger, func(st index.Stats) {
				broker.Publish(sse.Event{Type: "index.synced", Data: st})
			})
			if err != nil {
				logger.Warn("watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		logger.Info("Shutting down server...")

		timeout := cfg.App.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// Reindex runs one full index sync and returns its stats.
func Reindex(ctx context.Context, opts ...Option) (index.Stats, error) {
	app := newApplication(opts)
	if app.config == nil {
		return index.Stats{}, fmt.Errorf("config is required")
	}
	if !app.config.Index.Enabled {
		return index.Stats{}, fmt.Errorf("reindex: index is disabled")
	}
	logger := app.logger()

	c, err := openComponents(ctx, app.config, logger, nil)
	if err != nil {
		return index.Stats{}, err
	}
	defer c.Close()

	return c.svc.Reindex(ctx)
}

// Import saves every entity of b through the content service.
func Import(ctx context.Context, b contentservice.Bundle, opts ...Option) (contentservice.Report, error) {
	app := newApplication(opts)
	if app.config == nil {
		return contentservice.Report{}, fmt.Errorf("config is required")
	}
	logger := app.logger()

	c, err := openComponents(ctx, app.config, logger, nil)
	if err != nil {
		return contentservice.Report{}, err
	}
	defer c.Close()

	if b.Locale == "" {
		b.Locale = app.config.Site.DefaultLocale
	}
	rep := c.svc.Import(ctx, b)
	logger.Info("import done",
		slog.String("locale", b.Locale),
		slog.Int("imported", rep.Imported),
		slog.Int("failed", rep.Failed))
	return rep, nil
}

// ServeMCP serves the MCP tools on stdin/stdout until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	logger := app.logger()
	slog.SetDefault(logger)

	c, err := openComponents(ctx, app.config, logger, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.db != nil {
		if _, err := c.svc.Reindex(ctx); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("MCP server starting on stdio",
		slog.String("remote", c.store.RemoteName()),
		slog.Bool("remote_enabled", app.config.Storage.RemoteEnabled()))
	return mcpserver.New(c.svc).ServeStdio()
}
