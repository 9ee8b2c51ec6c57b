// Package backtest wires the pipeline: candle fetch, indicator computation,
// condition evaluation, and trade simulation. Each invocation is an
// independent, synchronous pass with no cross-request state.
package backtest

import (
	"context"
	"errors"
	"log"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/execution"
	"backtest-lab/internal/storage"
	"backtest-lab/internal/strategy"
)

// ErrDataUnavailable is returned when the candle provider yields no data
// for the requested instrument and timeframe.
var ErrDataUnavailable = errors.New("no candle data available")

// Request defaults.
const (
	DefaultTimeframe   = "1h"
	DefaultCandleCount = 100
)

// CandleSource provides raw OHLCV bars for an instrument. Implementations
// may return candles in exchange-native (descending) order; the runner
// normalizes to ascending before the pipeline runs.
type CandleSource interface {
	Candles(ctx context.Context, symbol, timeframe string, limit int) ([]domain.Candle, error)
}

// Request identifies the instrument, candle range, and strategy to evaluate.
type Request struct {
	Symbol    string              `json:"symbol"`
	Timeframe string              `json:"timeframe"`
	Candles   int                 `json:"candles"`
	Blocks    []domain.LogicBlock `json:"conditions"`
}

// ValidationResult is the scalar-mode output: one boolean per logic block
// plus the AND across blocks.
type ValidationResult struct {
	Symbol    string               `json:"symbol"`
	Timeframe string               `json:"timeframe"`
	Valid     bool                 `json:"valid"`
	Results   []domain.BlockResult `json:"results"`
}

// Result is the backtest output: every closed trade the simulator produced.
type Result struct {
	Symbol string         `json:"symbol"`
	Trades []domain.Trade `json:"executed_trades"`
}

// Runner executes validations and backtests against a candle source.
type Runner struct {
	source      CandleSource
	candleStore storage.CandleStore // optional write-through history
	logger      *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source      CandleSource
	CandleStore storage.CandleStore
	Logger      *log.Logger
}

// NewRunner creates a pipeline runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		source:      opts.Source,
		candleStore: opts.CandleStore,
		logger:      logger,
	}
}

// Validate evaluates the strategy in scalar mode against the latest
// indicator values.
func (r *Runner) Validate(ctx context.Context, req Request) (*ValidationResult, error) {
	if err := strategy.Validate(req.Blocks); err != nil {
		return nil, err
	}
	req = withDefaults(req)

	candles, err := r.fetchCandles(ctx, req)
	if err != nil {
		return nil, err
	}

	results, valid, err := strategy.EvaluateLatest(candles, req.Blocks)
	if err != nil {
		return nil, err
	}

	return &ValidationResult{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Valid:     valid,
		Results:   results,
	}, nil
}

// Run evaluates the strategy in series mode and replays the resulting
// entry-signal series through the execution simulator.
func (r *Runner) Run(ctx context.Context, req Request, params domain.ExecutionParams) (*Result, error) {
	if err := strategy.Validate(req.Blocks); err != nil {
		return nil, err
	}
	req = withDefaults(req)

	candles, err := r.fetchCandles(ctx, req)
	if err != nil {
		return nil, err
	}

	signal, err := strategy.EvaluateSeries(candles, req.Blocks)
	if err != nil {
		return nil, err
	}

	trades, err := execution.Simulate(candles, signal, params)
	if err != nil {
		return nil, err
	}

	return &Result{Symbol: req.Symbol, Trades: trades}, nil
}

// fetchCandles pulls bars from the source, surfaces an empty result as
// ErrDataUnavailable, records the bars to the history store (best effort),
// and normalizes to ascending timestamp order.
func (r *Runner) fetchCandles(ctx context.Context, req Request) ([]domain.Candle, error) {
	candles, err := r.source.Candles(ctx, req.Symbol, req.Timeframe, req.Candles)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrDataUnavailable
	}

	if r.candleStore != nil {
		if err := r.candleStore.InsertBulk(ctx, req.Symbol, req.Timeframe, candles); err != nil {
			r.logger.Printf("candle history write failed for %s/%s: %v", req.Symbol, req.Timeframe, err)
		}
	}

	return domain.SortCandlesAscending(candles), nil
}

// withDefaults fills in the timeframe and candle count when unset.
func withDefaults(req Request) Request {
	if req.Timeframe == "" {
		req.Timeframe = DefaultTimeframe
	}
	if req.Candles <= 0 {
		req.Candles = DefaultCandleCount
	}
	return req
}
