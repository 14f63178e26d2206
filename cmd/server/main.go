package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brojonat/yatori/service/config"
	"github.com/brojonat/yatori/service/metrics"
	natspkg "github.com/brojonat/yatori/service/nats"
	"github.com/brojonat/yatori/service/server"
	"github.com/brojonat/yatori/service/solana"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
	)

	m := metrics.NewMetrics(nil)

	networks, err := buildNetworks(cfg, m, logger)
	if err != nil {
		logger.Error("failed to initialize solana clients", "error", err)
		os.Exit(1)
	}

	// Fee events are optional; the gateway runs without NATS.
	var publisher natspkg.Publisher
	if cfg.NATSURL != "" {
		p, err := natspkg.NewPublisher(cfg.NATSURL, cfg.FeeEventsSubject, m, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err, "url", cfg.NATSURL)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
		logger.Info("publishing fee events", "nats_url", cfg.NATSURL, "subject_prefix", cfg.FeeEventsSubject)
	}

	httpServer := server.New(cfg, networks, publisher, m, logger)

	if cfg.NATSURL != "" {
		stream, err := server.NewFeeStream(cfg.NATSURL, cfg.FeeEventsSubject, logger)
		if err != nil {
			logger.Error("failed to initialize fee stream", "error", err)
			os.Exit(1)
		}
		defer stream.Close()
		httpServer.SetFeeStream(stream)
	}

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// buildNetworks creates one Solana client per configured RPC endpoint.
func buildNetworks(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*solana.Networks, error) {
	mint, err := solana.ParseAddress(cfg.FeeReferenceMint)
	if err != nil {
		return nil, err
	}

	opts := solana.Options{
		Timeout:          cfg.RPCTimeout,
		MemoMarker:       cfg.MemoMarker,
		FeeReferenceMint: mint,
	}

	clients := make(map[string]*solana.Client)
	for network, url := range cfg.RPCURLs() {
		httpClient := solana.NewHTTPClient(cfg.RPCTimeout, cfg.RPCRateLimit)
		rpcClient := solana.NewRPCClient(url, httpClient)
		clients[network] = solana.NewClient(rpcClient, network, opts, m, logger)
		// Note: RPC URLs of premium endpoints may embed an API key, so only
		// the network is logged.
		logger.Info("initialized solana RPC client",
			"network", network,
			"rate_limit", cfg.RPCRateLimit,
		)
	}

	return solana.NewNetworks(cfg.DefaultNetwork, clients)
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
