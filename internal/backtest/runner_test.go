package backtest

import (
	"context"
	"errors"
	"math"
	"testing"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage/memory"
	"backtest-lab/internal/strategy"
)

// stubSource serves a fixed candle slice and records the last request.
type stubSource struct {
	candles    []domain.Candle
	err        error
	lastSymbol string
	lastTF     string
	lastLimit  int
}

func (s *stubSource) Candles(_ context.Context, symbol, timeframe string, limit int) ([]domain.Candle, error) {
	s.lastSymbol = symbol
	s.lastTF = timeframe
	s.lastLimit = limit
	return s.candles, s.err
}

// descendingCandles mimics exchange-native newest-first ordering with
// ascending closes over time: 80 → 100 → 120.
func descendingCandles() []domain.Candle {
	return []domain.Candle{
		{Timestamp: 7_200_000, Open: 120, High: 120, Low: 120, Close: 120},
		{Timestamp: 3_600_000, Open: 100, High: 100, Low: 100, Close: 100},
		{Timestamp: 0, Open: 80, High: 80, Low: 80, Close: 80},
	}
}

// closeAbove builds a one-condition strategy on EMA(1), which equals the
// close series.
func closeAbove(threshold float64) []domain.LogicBlock {
	return []domain.LogicBlock{{
		Conditions: []domain.Condition{{
			Indicator: domain.IndicatorConfig{Type: domain.IndicatorEMA, Period: 1},
			Operator:  domain.OpGreater,
			Value:     threshold,
		}},
	}}
}

func TestValidate_EvaluatesLatestAfterReversal(t *testing.T) {
	source := &stubSource{candles: descendingCandles()}
	runner := NewRunner(RunnerOptions{Source: source})

	// Latest close in ascending order is 120. Without the reversal the
	// evaluator would see 80 and fail this threshold.
	result, err := runner.Validate(context.Background(), Request{
		Symbol: "BTC-USDT",
		Blocks: closeAbove(110),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Error("expected valid=true against the latest candle")
	}
	if len(result.Results) != 1 || !result.Results[0].Result {
		t.Errorf("unexpected block results: %+v", result.Results)
	}
	if result.Symbol != "BTC-USDT" || result.Timeframe != DefaultTimeframe {
		t.Errorf("unexpected identity: %s %s", result.Symbol, result.Timeframe)
	}
}

func TestValidate_AppliesRequestDefaults(t *testing.T) {
	source := &stubSource{candles: descendingCandles()}
	runner := NewRunner(RunnerOptions{Source: source})

	_, err := runner.Validate(context.Background(), Request{
		Symbol: "BTC-USDT",
		Blocks: closeAbove(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.lastTF != DefaultTimeframe {
		t.Errorf("expected default timeframe %q, got %q", DefaultTimeframe, source.lastTF)
	}
	if source.lastLimit != DefaultCandleCount {
		t.Errorf("expected default candle count %d, got %d", DefaultCandleCount, source.lastLimit)
	}
}

func TestValidate_RejectsBadStrategyBeforeFetch(t *testing.T) {
	source := &stubSource{candles: descendingCandles()}
	runner := NewRunner(RunnerOptions{Source: source})

	_, err := runner.Validate(context.Background(), Request{Symbol: "BTC-USDT"})
	if !errors.Is(err, strategy.ErrEmptyStrategy) {
		t.Errorf("expected ErrEmptyStrategy, got %v", err)
	}
	if source.lastSymbol != "" {
		t.Error("expected no fetch for an invalid strategy")
	}
}

func TestRun_ProducesTrades(t *testing.T) {
	source := &stubSource{candles: descendingCandles()}
	runner := NewRunner(RunnerOptions{Source: source})

	// Ascending closes [80, 100, 120]; close > 90 → signal [F, T, T]:
	// market entry on bar 1 at 100.05, forced close on bar 2 at 119.94.
	params := domain.ExecutionParams{
		OrderType:   domain.OrderMarket,
		Quantity:    1,
		SlippageBps: 5,
		FeeBps:      0,
	}
	result, err := runner.Run(context.Background(), Request{
		Symbol: "BTC-USDT",
		Blocks: closeAbove(90),
	}, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}

	tr := result.Trades[0]
	if math.Abs(tr.EntryPrice-100.05) > 1e-9 {
		t.Errorf("expected entry 100.05, got %f", tr.EntryPrice)
	}
	if math.Abs(tr.ExitPrice-119.94) > 1e-9 {
		t.Errorf("expected exit 119.94, got %f", tr.ExitPrice)
	}
	if tr.DurationHours != 1 {
		t.Errorf("expected 1h duration, got %f", tr.DurationHours)
	}
}

func TestRun_EmptyFetchIsDataUnavailable(t *testing.T) {
	source := &stubSource{}
	runner := NewRunner(RunnerOptions{Source: source})

	_, err := runner.Run(context.Background(), Request{
		Symbol: "BTC-USDT",
		Blocks: closeAbove(0),
	}, domain.DefaultExecutionParams())
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestRun_SourceErrorPropagates(t *testing.T) {
	wantErr := errors.New("exchange down")
	runner := NewRunner(RunnerOptions{Source: &stubSource{err: wantErr}})

	_, err := runner.Run(context.Background(), Request{
		Symbol: "BTC-USDT",
		Blocks: closeAbove(0),
	}, domain.DefaultExecutionParams())
	if !errors.Is(err, wantErr) {
		t.Errorf("expected source error, got %v", err)
	}
}

func TestFetchCandles_WritesThroughToHistory(t *testing.T) {
	store := memory.NewCandleStore()
	runner := NewRunner(RunnerOptions{
		Source:      &stubSource{candles: descendingCandles()},
		CandleStore: store,
	})

	_, err := runner.Validate(context.Background(), Request{
		Symbol:    "BTC-USDT",
		Timeframe: "1h",
		Blocks:    closeAbove(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := store.GetByTimeRange(context.Background(), "BTC-USDT", "1h", 0, 10_000_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("expected 3 candles written through, got %d", len(stored))
	}
}
