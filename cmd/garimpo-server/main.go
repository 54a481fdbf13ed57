// Command garimpo-server exposes the price scraping pipeline as an HTTP
// API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garimpolabs/garimpo/api"
	"github.com/garimpolabs/garimpo/browser"
	"github.com/garimpolabs/garimpo/cache"
	"github.com/garimpolabs/garimpo/config"
	"github.com/garimpolabs/garimpo/extract"
	"github.com/garimpolabs/garimpo/fetch"
	"github.com/garimpolabs/garimpo/orchestrator"
	"github.com/garimpolabs/garimpo/sites"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("garimpo-server starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Validate static registries ───────────────────────────────
	if err := sites.Validate(); err != nil {
		slog.Error("site registry validation failed", "error", err)
		os.Exit(1)
	}
	if err := extract.Validate(); err != nil {
		slog.Error("extractor registry validation failed", "error", err)
		os.Exit(1)
	}

	// ── 4. Launch browser ───────────────────────────────────────────
	br, err := browser.New(cfg.Browser)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer br.Close()

	// ── 5. Build the acquisition chain ──────────────────────────────
	uas := fetch.NewUserAgentPool(cfg.Fetch.UserAgents)
	chain := fetch.NewChain(fetch.ChainConfig{
		RetryMax:       cfg.Fetch.RetryMax,
		RetryBackoff:   cfg.Fetch.RetryBackoff,
		DelayMin:       cfg.Fetch.DelayMin,
		DelayMax:       cfg.Fetch.DelayMax,
		AttemptTimeout: cfg.Fetch.HTTPTimeout,
	},
		fetch.NewBrowserStrategy(br, uas),
		fetch.NewHTTPStrategy(uas),
	)

	// ── 6. Orchestrator + result cache ──────────────────────────────
	orch := orchestrator.New(chain, cfg.Pipeline)
	cc := cache.New(256)

	// ── 7. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(orch, br, cfg, cc, startTime)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// br.Close() runs via defer: drains the page pool and kills Chrome.
	slog.Info("garimpo-server stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
