package execution

import (
	"errors"
	"math"
	"testing"

	"backtest-lab/internal/domain"
)

const hourMs = int64(3_600_000)

// bars builds hourly candles where open=high=low=close unless overridden.
func bars(closes ...float64) []domain.Candle {
	candles := make([]domain.Candle, len(closes))
	for i, c := range closes {
		candles[i] = domain.Candle{
			Timestamp: int64(i) * hourMs,
			Open:      c, High: c, Low: c, Close: c,
		}
	}
	return candles
}

func marketParams() domain.ExecutionParams {
	return domain.ExecutionParams{
		OrderType:   domain.OrderMarket,
		Quantity:    1.0,
		SlippageBps: 5,
		FeeBps:      10,
	}
}

func ptr(v float64) *float64 { return &v }

func TestSimulate_MarketEntryAndForcedClose(t *testing.T) {
	candles := bars(100, 100, 105, 110)
	signal := []bool{false, true, false, false}

	trades, err := Simulate(candles, signal, marketParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	// Market entry: 100 * (1 + 5/10000) = 100.05
	if math.Abs(tr.EntryPrice-100.05) > 1e-9 {
		t.Errorf("expected entry 100.05, got %f", tr.EntryPrice)
	}
	// Forced close on the last bar: 110 * (1 - 5/10000) = 109.945
	if math.Abs(tr.ExitPrice-109.945) > 1e-9 {
		t.Errorf("expected exit 109.945, got %f", tr.ExitPrice)
	}
	// Fee on both legs: (100.05 + 109.945) * 1 * 10/10000
	wantFee := (100.05 + 109.945) * 10 / 10000
	wantPnL := (109.945 - 100.05) - wantFee
	if math.Abs(tr.PnL-wantPnL) > 1e-9 {
		t.Errorf("expected pnl %f, got %f", wantPnL, tr.PnL)
	}
	if tr.DurationHours != 2 {
		t.Errorf("expected 2h duration, got %f", tr.DurationHours)
	}
	if tr.SLHit || tr.TPHit {
		t.Errorf("forced close should not flag sl/tp, got sl=%v tp=%v", tr.SLHit, tr.TPHit)
	}
}

func TestSimulate_LimitEntryNoSlippage(t *testing.T) {
	candles := bars(100, 100, 110)
	signal := []bool{false, true, false}

	params := marketParams()
	params.OrderType = domain.OrderLimit

	trades, err := Simulate(candles, signal, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if trades[0].EntryPrice != 100 {
		t.Errorf("limit entry should fill at close, got %f", trades[0].EntryPrice)
	}
}

func TestSimulate_StopLossExit(t *testing.T) {
	candles := bars(100, 100, 100, 100)
	candles[2].Low = 94 // breaches 5% stop at 95
	signal := []bool{false, true, false, false}

	params := marketParams()
	params.OrderType = domain.OrderLimit // entry exactly at 100
	params.StopLossPct = ptr(5)

	trades, err := Simulate(candles, signal, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	if !tr.SLHit || tr.TPHit {
		t.Errorf("expected stop-loss exit, got sl=%v tp=%v", tr.SLHit, tr.TPHit)
	}
	if tr.ExitPrice != 95 {
		t.Errorf("expected exit at the stop level 95, got %f", tr.ExitPrice)
	}
	if tr.ExitTime != 2*hourMs {
		t.Errorf("expected exit on bar 2, got %d", tr.ExitTime)
	}
}

func TestSimulate_TakeProfitExit(t *testing.T) {
	candles := bars(100, 100, 100, 100)
	candles[2].High = 111 // breaches 10% target at 110
	signal := []bool{false, true, false, false}

	params := marketParams()
	params.OrderType = domain.OrderLimit
	params.TakeProfitPct = ptr(10)

	trades, err := Simulate(candles, signal, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].TPHit || trades[0].SLHit {
		t.Errorf("expected take-profit exit, got sl=%v tp=%v", trades[0].SLHit, trades[0].TPHit)
	}
	if trades[0].ExitPrice != 110 {
		t.Errorf("expected exit at the target level 110, got %f", trades[0].ExitPrice)
	}
}

func TestSimulate_StopLossWinsOverTakeProfit(t *testing.T) {
	// A bar that sweeps both levels resolves as a stop.
	candles := bars(100, 100, 100, 100)
	candles[2].Low = 90
	candles[2].High = 115
	signal := []bool{false, true, false, false}

	params := marketParams()
	params.OrderType = domain.OrderLimit
	params.StopLossPct = ptr(5)
	params.TakeProfitPct = ptr(10)

	trades, err := Simulate(candles, signal, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if !trades[0].SLHit || trades[0].TPHit {
		t.Errorf("expected stop-loss priority, got sl=%v tp=%v", trades[0].SLHit, trades[0].TPHit)
	}
}

func TestSimulate_SignalsWhileInPositionIgnored(t *testing.T) {
	candles := bars(100, 100, 100, 100, 110)
	signal := []bool{false, true, true, true, true}

	trades, err := Simulate(candles, signal, marketParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected a single trade from overlapping signals, got %d", len(trades))
	}
	if trades[0].EntryTime != hourMs {
		t.Errorf("expected entry on the first signal bar, got %d", trades[0].EntryTime)
	}
}

func TestSimulate_ReentryAfterExit(t *testing.T) {
	candles := bars(100, 100, 100, 100, 100, 100)
	candles[2].Low = 94 // first trade stops out on bar 2
	signal := []bool{false, true, false, true, false, false}

	params := marketParams()
	params.OrderType = domain.OrderLimit
	params.StopLossPct = ptr(5)

	trades, err := Simulate(candles, signal, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if !trades[0].SLHit {
		t.Error("expected first trade to stop out")
	}
	if trades[1].EntryTime != 3*hourMs {
		t.Errorf("expected re-entry on bar 3, got %d", trades[1].EntryTime)
	}
}

func TestSimulate_SignalOnFirstBarIgnored(t *testing.T) {
	// Scanning starts at index 1; a bar-0 signal can never open a position.
	candles := bars(100, 100, 100)
	signal := []bool{true, false, false}

	trades, err := Simulate(candles, signal, marketParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected no trades, got %d", len(trades))
	}
}

func TestSimulate_NoSignalNoTrades(t *testing.T) {
	candles := bars(100, 101, 102)
	signal := []bool{false, false, false}

	trades, err := Simulate(candles, signal, marketParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected no trades, got %d", len(trades))
	}
}

func TestSimulate_SignalLengthMismatch(t *testing.T) {
	candles := bars(100, 101)
	_, err := Simulate(candles, []bool{true}, marketParams())
	if !errors.Is(err, ErrSignalLengthMismatch) {
		t.Errorf("expected ErrSignalLengthMismatch, got %v", err)
	}
}
