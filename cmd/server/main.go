// Package main is the entry point for the bridge orchestration server,
// exposing quote aggregation and transfer orchestration over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/bridge-orchestrator/internal/chain"
	"github.com/yourorg/bridge-orchestrator/internal/circuitbreaker"
	"github.com/yourorg/bridge-orchestrator/internal/config"
	"github.com/yourorg/bridge-orchestrator/internal/engine"
	"github.com/yourorg/bridge-orchestrator/internal/executor"
	"github.com/yourorg/bridge-orchestrator/internal/model"
	"github.com/yourorg/bridge-orchestrator/internal/otel"
	"github.com/yourorg/bridge-orchestrator/internal/registry"
	"github.com/yourorg/bridge-orchestrator/internal/store"
	"github.com/yourorg/bridge-orchestrator/internal/tracker"
	"github.com/yourorg/bridge-orchestrator/internal/types"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// Server is the HTTP surface over the bridge engine
type Server struct {
	cfg       config.Config
	engine    *engine.Engine
	server    *http.Server
	metrics   *serverMetrics
	rateLimit *rate.Limiter
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requestCounter   *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	quotesReturned   prometheus.Histogram
	transfersByState *prometheus.GaugeVec
	sweepDuration    prometheus.Histogram
	breakerTrips     *prometheus.CounterVec
}

// registerMetrics sets up Prometheus metrics collection
func registerMetrics() *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_requests_total",
				Help: "Total number of API requests processed",
			},
			[]string{"endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		quotesReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bridge_quotes_returned",
				Help:    "Number of quotes returned per aggregation request",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
		transfersByState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_transfers",
				Help: "Number of tracked transfers by status",
			},
			[]string{"status"},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bridge_sweep_duration_seconds",
				Help:    "Status tracker sweep duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		breakerTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_circuit_breaker_trips_total",
				Help: "Circuit breaker trips by protocol",
			},
			[]string{"protocol"},
		),
	}

	prometheus.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.quotesReturned,
		m.transfersByState,
		m.sweepDuration,
		m.breakerTrips,
	)

	return m
}

// main is the entry point for the application
func main() {
	setupLogging()
	cfg := config.Load()

	shutdownTracing := otel.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracing()

	reg, err := registry.LoadDefault(cfg.ProtocolsFile)
	if err != nil {
		logrus.Fatalf("Protocol registry configuration error: %v", err)
	}

	metrics := registerMetrics()

	var breaker *circuitbreaker.CircuitBreaker
	if cfg.EnableCircuitBreaker {
		breaker = circuitbreaker.New(circuitbreaker.Options{
			FailureThreshold: cfg.BreakerFailures,
			CooldownPeriod:   cfg.BreakerCooldown,
			OnTrip: func(protocolID, reason string) {
				metrics.breakerTrips.WithLabelValues(protocolID).Inc()
			},
		})
	}

	adapterURL := config.GetEnvOrDefault("CHAIN_ADAPTER_URL", "http://localhost:9090")
	adapter := chain.NewHTTPAdapter(adapterURL, cfg.RequestTimeout)
	oracle := chain.NewHTTPGasOracle(cfg.GasOracleURL, cfg.RequestTimeout)

	eng := engine.New(engine.Options{
		Registry:      reg,
		Adapter:       adapter,
		GasOracle:     oracle,
		Breaker:       breaker,
		SweepInterval: cfg.SweepInterval,
		QueryTimeout:  cfg.QueryTimeout,
		MaxRetries:    cfg.MaxRetries,
		OnSweep: func(stats tracker.SweepStats) {
			metrics.sweepDuration.Observe(stats.Duration.Seconds())
		},
	})

	srv := &Server{
		cfg:       cfg,
		engine:    eng,
		metrics:   metrics,
		rateLimit: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}
	srv.Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// Start runs the tracker and HTTP server until a shutdown signal arrives
func (s *Server) Start() {
	s.engine.Start()
	defer s.engine.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/quotes", s.withMiddleware("quotes", s.handleQuotes))
	mux.HandleFunc("/quotes/enhanced", s.withMiddleware("quotes_enhanced", s.handleEnhancedQuotes))
	mux.HandleFunc("/transfers", s.withMiddleware("transfers", s.handleTransfers))
	mux.HandleFunc("/transfers/", s.withMiddleware("transfer_status", s.handleTransferStatus))
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logrus.Infof("Bridge orchestration server listening on :%s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logrus.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Errorf("Graceful shutdown failed: %v", err)
	}
}

// withMiddleware applies rate limiting and metrics to a handler
func (s *Server) withMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimit.Allow() {
			s.metrics.requestCounter.WithLabelValues(endpoint, "429").Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		s.metrics.requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		s.metrics.requestCounter.WithLabelValues(endpoint, httpStatusLabel(rw.status)).Inc()
	}
}

// handleQuotes returns basic quotes for a transfer request
func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req model.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	quotes, err := s.engine.GetQuotes(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.quotesReturned.Observe(float64(len(quotes)))
	writeJSON(w, http.StatusOK, map[string]interface{}{"quotes": quotes})
}

// enhancedQuotesRequest wraps a transfer request with ranking options
type enhancedQuotesRequest struct {
	model.TransferRequest
	Options model.QuoteOptions `json:"options"`
}

// handleEnhancedQuotes returns ranked quotes with cost and risk overlays
func (s *Server) handleEnhancedQuotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req enhancedQuotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	quotes, err := s.engine.GetEnhancedQuotes(r.Context(), req.TransferRequest, req.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.quotesReturned.Observe(float64(len(quotes)))
	writeJSON(w, http.StatusOK, map[string]interface{}{"quotes": quotes})
}

// executeRequest is the POST /transfers body
type executeRequest struct {
	Request        model.TransferRequest `json:"request"`
	Quote          model.EnhancedQuote   `json:"quote"`
	SigningContext json.RawMessage       `json:"signing_context"`
}

// handleTransfers executes a transfer (POST) or lists transfers (GET)
func (s *Server) handleTransfers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleExecute(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "use GET or POST")
	}
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := s.engine.Execute(r.Context(), req.Request, req.Quote, req.SigningContext)
	if err != nil {
		var verr *executor.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "validation failed",
				"detail": verr.Result.Errors,
			})
			return
		}
		// broadcast failure: the submission error surfaces, no record exists
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.updateTransferGauges()
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{
		Status:    model.TransferStatus(r.URL.Query().Get("status")),
		FromChain: types.ChainID(r.URL.Query().Get("from_chain")),
		ToChain:   types.ChainID(r.URL.Query().Get("to_chain")),
	}
	transfers := s.engine.ListTransfers(f)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transfers": transfers,
		"count":     len(transfers),
	})
}

// handleTransferStatus returns one transfer record by id
func (s *Server) handleTransferStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/transfers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "missing transfer id")
		return
	}

	rec, err := s.engine.GetStatus(id)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transfer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleHealth reports liveness, uptime and transfer counts
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.updateTransferGauges()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"transfers": s.engine.TransferCounts(),
	})
}

// updateTransferGauges refreshes the transfers-by-status gauge
func (s *Server) updateTransferGauges() {
	counts := s.engine.TransferCounts()
	for _, status := range []model.TransferStatus{
		model.StatusProcessing, model.StatusConfirming,
		model.StatusCompleted, model.StatusFailed,
	} {
		s.metrics.transfersByState.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
