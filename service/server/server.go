package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/yatori/service/config"
	"github.com/brojonat/yatori/service/metrics"
	natspkg "github.com/brojonat/yatori/service/nats"
	"github.com/brojonat/yatori/service/solana"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// latestSignatureLimit caps the "latest signature" query to one entry.
const latestSignatureLimit = 1

// Server represents the HTTP gateway.
type Server struct {
	addr      string
	cfg       *config.Config
	networks  *solana.Networks
	publisher natspkg.Publisher
	feeStream FeeSubscriber
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The publisher is optional - if nil, fee recommendations are not published.
// The metrics is optional - if nil, the metrics endpoint is not mounted.
func New(cfg *config.Config, networks *solana.Networks, publisher natspkg.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:      cfg.ServerAddr,
		cfg:       cfg,
		networks:  networks,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// SetFeeStream enables the Server-Sent Events fee stream. It must be called
// before Handler or Start.
func (s *Server) SetFeeStream(stream FeeSubscriber) {
	s.feeStream = stream
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	env := &envelopes{
		alwaysOK: s.cfg.EnvelopeAlwaysOK,
		metrics:  s.metrics,
		logger:   s.logger,
	}

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, name)(h))
	}

	mux.HandleFunc("GET /{$}", handleRoot())

	route("POST /blockhash", "/blockhash", handleBlockhash(s.networks, env, s.logger))

	for _, level := range solana.Commitments {
		solPath := "/sol-balance-" + level.String()
		route("POST "+solPath, solPath, handleNativeBalance(s.networks, level, env, s.logger))

		tokenPath := "/token-balance-" + level.String()
		route("POST "+tokenPath, tokenPath, handleTokenBalance(s.networks, level, env, s.logger))
	}

	route("POST /get-transaction-confirmed", "/get-transaction-confirmed",
		handleTransaction(s.networks, env, s.logger))

	route("POST /get-arrow-acc-sigs", "/get-arrow-acc-sigs",
		handleSignatures(s.networks, "get-arrow-acc-sigs", nil,
			"Successful account signatures for arrow-api received", env, s.logger))

	limit := latestSignatureLimit
	route("POST /get-latest-sig", "/get-latest-sig",
		handleSignatures(s.networks, "get-latest-sig", &limit,
			"Successful latest signature for arrow-api received", env, s.logger))

	route("POST /is-usdc-acct-activated", "/is-usdc-acct-activated",
		handleActivation(s.networks, env, s.logger))

	route("GET /get-rec-fee", "/get-rec-fee",
		handleRecommendedFee(s.networks, s.publisher, env, s.logger))

	// SSE routes skip the metrics middleware, which would hide http.Flusher.
	if s.feeStream != nil {
		mux.Handle("GET /stream/fees", handleStreamFees(s.feeStream, s.networks, s.logger))
		mux.Handle("GET /stream/fees/{network}", handleStreamFees(s.feeStream, s.networks, s.logger))
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.cfg.RPCTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server",
		"addr", s.addr,
		"default_network", s.networks.Default(),
		"networks", s.networks.Names(),
		"envelope_always_ok", s.cfg.EnvelopeAlwaysOK,
		"fee_stream", s.feeStream != nil,
	)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
