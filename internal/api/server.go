// Package api exposes the HTTP surface: OHLCV market data, strategy
// validation and backtesting, metrics computation, flow persistence, and a
// WebSocket demo stream. Handlers are stateless; per-request work is
// synchronous and all state lives in the injected stores.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/metrics"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/okx"
	"backtest-lab/internal/storage"
	"backtest-lab/internal/strategy"
)

// Server handles HTTP requests for the backtest service.
type Server struct {
	runner      *backtest.Runner
	market      *okx.Client
	flowStore   storage.FlowStore
	candleStore storage.CandleStore
	logger      *log.Logger
	logRequests bool

	mu             sync.Mutex
	started        time.Time
	backtestRuns   int
	validationRuns int
}

// Options contains configuration for creating a Server.
type Options struct {
	Runner      *backtest.Runner
	Market      *okx.Client
	FlowStore   storage.FlowStore
	CandleStore storage.CandleStore
	Logger      *log.Logger
	LogRequests bool
}

// NewServer creates an HTTP server for the backtest API.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:      opts.Runner,
		market:      opts.Market,
		flowStore:   opts.FlowStore,
		candleStore: opts.CandleStore,
		logger:      logger,
		logRequests: opts.LogRequests,
		started:     time.Now(),
	}
}

// Handler builds the route table with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ohlcv/candles", s.handleCandles)
	mux.HandleFunc("/api/ohlcv/trades", s.handleTrades)
	mux.HandleFunc("/api/ohlcv/history", s.handleHistory)

	mux.HandleFunc("/api/strategy/validate", s.handleValidate)
	mux.HandleFunc("/api/strategy/backtest", s.handleBacktest)
	mux.HandleFunc("/api/strategy/flow/save", s.handleFlowSave)
	mux.HandleFunc("/api/strategy/flow/load", s.handleFlowLoad)

	mux.HandleFunc("/api/metrics", s.handleMetrics)

	mux.HandleFunc("/api/ws/stream", s.handleStream)

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", observability.Handler())

	return s.withMiddleware(mux)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	BacktestRuns   int    `json:"backtest_runs"`
	ValidationRuns int    `json:"validation_runs"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.started).String(),
		BacktestRuns:   s.backtestRuns,
		ValidationRuns: s.validationRuns,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP status codes: validation and input
// errors become 400, missing data becomes 404, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, strategy.ErrEmptyStrategy),
		errors.Is(err, strategy.ErrUnknownIndicator),
		errors.Is(err, strategy.ErrUnknownOperator),
		errors.Is(err, strategy.ErrInvalidPeriod),
		errors.Is(err, metrics.ErrNoTrades),
		errors.Is(err, metrics.ErrInvalidBalance):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, backtest.ErrDataUnavailable):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.logger.Printf("%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
