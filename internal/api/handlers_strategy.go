package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/idhash"
	"backtest-lab/internal/metrics"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/storage"
)

// handleValidate serves POST /api/strategy/validate: scalar-mode evaluation
// of the strategy against the latest indicator values.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req backtest.Request
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Validate(r.Context(), req)
	if err != nil {
		observability.RecordValidation("error")
		s.writeError(w, r, err)
		return
	}
	observability.RecordValidation("success")

	s.mu.Lock()
	s.validationRuns++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

// backtestRequest is the full backtest input: the strategy plus optional
// execution parameters. Absent execution settings fall back to the
// simulator defaults.
type backtestRequest struct {
	backtest.Request
	Execution *domain.ExecutionParams `json:"execution"`
}

// handleBacktest serves POST /api/strategy/backtest: series-mode evaluation
// replayed through the execution simulator.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req backtestRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	params := domain.DefaultExecutionParams()
	if req.Execution != nil {
		params = *req.Execution
		if params.OrderType == "" {
			params.OrderType = domain.OrderMarket
		}
		if params.Quantity <= 0 {
			params.Quantity = 1.0
		}
	}

	result, err := s.runner.Run(r.Context(), req.Request, params)
	if err != nil {
		observability.RecordBacktest("error", 0)
		s.writeError(w, r, err)
		return
	}
	observability.RecordBacktest("success", len(result.Trades))

	s.mu.Lock()
	s.backtestRuns++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

// metricsRequest carries a trade list and its starting balance, plus an
// optional per-trade benchmark return series for beta.
type metricsRequest struct {
	StartingBalance  float64            `json:"starting_balance"`
	Trades           []domain.TradeStat `json:"trades"`
	BenchmarkReturns []float64          `json:"benchmark_returns"`
}

// handleMetrics serves POST /api/metrics: a full risk/return report for an
// externally supplied trade list.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req metricsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := metrics.Compute(req.StartingBalance, req.Trades, req.BenchmarkReturns)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	observability.RecordReport()

	writeJSON(w, http.StatusOK, report)
}

// flowSaveResponse acknowledges a stored flow with its content revision.
type flowSaveResponse struct {
	Name     string `json:"name"`
	Revision string `json:"revision"`
	Status   string `json:"status"`
}

// handleFlowSave serves POST /api/strategy/flow/save?name=...: upserts the
// flow graph under the given name.
func (s *Server) handleFlowSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "default"
	}

	var flow domain.Flow
	if err := decodeBody(r, &flow); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.flowStore.Save(r.Context(), name, &flow); err != nil {
		s.writeError(w, r, err)
		return
	}
	observability.RecordFlowSave()

	writeJSON(w, http.StatusOK, flowSaveResponse{
		Name:     name,
		Revision: idhash.ComputeFlowRevisionID(&flow),
		Status:   "saved",
	})
}

// handleFlowLoad serves GET /api/strategy/flow/load?name=...: returns the
// saved flow graph, or 404 when nothing has been saved under that name.
func (s *Server) handleFlowLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "default"
	}

	flow, err := s.flowStore.Load(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	observability.RecordFlowLoad()

	writeJSON(w, http.StatusOK, flow)
}

// decodeBody parses a JSON request body, mapping malformed input to
// ErrInvalidInput so it surfaces as a 400.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode request body: %v", storage.ErrInvalidInput, err)
	}
	return nil
}
