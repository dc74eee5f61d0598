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

	"github.com/lysyi3m/rss-sieve/app/api"
	"github.com/lysyi3m/rss-sieve/app/cfg"
	"github.com/lysyi3m/rss-sieve/app/client"
	"github.com/lysyi3m/rss-sieve/app/feed"
	"github.com/lysyi3m/rss-sieve/app/filter"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("Starting RSS Sieve server", "version", appCfg.Version, "timezone", appCfg.Timezone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	policy, err := filter.NewWatcher(appCfg.PolicyFile, logger)
	if err != nil {
		slog.Error("Failed to load sanitizer policy", "path", appCfg.PolicyFile, "error", err)
		os.Exit(1)
	}
	if appCfg.PolicyFile != "" {
		go func() {
			if err := policy.Run(ctx); err != nil {
				slog.Error("Policy watcher stopped", "error", err)
			}
		}()
	}

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "dir", appCfg.FeedsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "dir", appCfg.FeedsDir, "count", configCache.GetConfigCount())

	httpClient, err := client.New(client.Options{
		UserAgent:    appCfg.UserAgent,
		Timeout:      appCfg.FetchTimeout,
		MaxBodySize:  appCfg.MaxBodySize,
		MaxRedirects: appCfg.MaxRedirects,
		ProxyURL:     appCfg.ProxyURL,
		Logger:       logger,
	})
	if err != nil {
		slog.Error("Failed to create HTTP client", "error", err)
		os.Exit(1)
	}

	newParser := func(opts ...feed.Option) *feed.Parser {
		defaults := []feed.Option{
			feed.WithLogger(logger),
			feed.WithIDExclusions(appCfg.IDExclusions),
			feed.WithEntityPrescan(appCfg.RejectEntityDeclarations),
		}
		return feed.NewParser(policy, append(defaults, opts...)...)
	}

	apiHandler := api.NewHandler(configCache, httpClient, newParser, policy, api.NewMetrics(), appCfg.BaseUrl, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("RSS Sieve server shutdown complete")
}
