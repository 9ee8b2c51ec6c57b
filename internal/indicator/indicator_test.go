package indicator

import (
	"math"
	"testing"
)

func TestEMA_HandComputed(t *testing.T) {
	// alpha = 2/(2+1) = 2/3, seeded from the first close
	closes := []float64{100, 101, 99, 105, 95}
	ema := EMA(closes, 2)

	want := []float64{100, 100.666667, 99.555556, 103.185185, 97.728395}
	if len(ema) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(ema))
	}
	for i := range want {
		if math.Abs(ema[i]-want[i]) > 1e-6 {
			t.Errorf("ema[%d]: expected %f, got %f", i, want[i], ema[i])
		}
	}
}

func TestEMA_ConstantSeriesStaysConstant(t *testing.T) {
	closes := []float64{50, 50, 50, 50, 50, 50}
	ema := EMA(closes, 3)

	for i, v := range ema {
		if v != 50 {
			t.Errorf("ema[%d]: expected 50, got %f", i, v)
		}
	}
}

func TestEMA_Empty(t *testing.T) {
	ema := EMA(nil, 5)
	if len(ema) != 0 {
		t.Errorf("expected empty series, got %d values", len(ema))
	}
}

func TestRSI_WarmupIsNaN(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	rsi := RSI(closes, 3)

	if len(rsi) != len(closes) {
		t.Fatalf("expected %d values, got %d", len(closes), len(rsi))
	}
	for i := 0; i < 3; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Errorf("rsi[%d]: expected NaN during warm-up, got %f", i, rsi[i])
		}
	}
	for i := 3; i < len(rsi); i++ {
		if math.IsNaN(rsi[i]) {
			t.Errorf("rsi[%d]: expected a value after warm-up, got NaN", i)
		}
	}
}

func TestRSI_MonotonicUpSaturatesAt100(t *testing.T) {
	// No losses → average loss 0 → RSI pegs at 100
	closes := []float64{1, 2, 3, 4, 5, 6, 7}
	rsi := RSI(closes, 3)

	for i := 3; i < len(rsi); i++ {
		if rsi[i] != 100 {
			t.Errorf("rsi[%d]: expected 100 for monotonic gains, got %f", i, rsi[i])
		}
	}
}

func TestRSI_MonotonicDownGoesTo0(t *testing.T) {
	closes := []float64{7, 6, 5, 4, 3, 2, 1}
	rsi := RSI(closes, 3)

	for i := 3; i < len(rsi); i++ {
		if rsi[i] != 0 {
			t.Errorf("rsi[%d]: expected 0 for monotonic losses, got %f", i, rsi[i])
		}
	}
}

func TestRSI_Bounded(t *testing.T) {
	closes := []float64{10, 12, 11, 14, 9, 15, 13, 16, 8, 17, 12, 14}
	rsi := RSI(closes, 4)

	for i := 4; i < len(rsi); i++ {
		if rsi[i] < 0 || rsi[i] > 100 {
			t.Errorf("rsi[%d] = %f out of [0,100]", i, rsi[i])
		}
	}
}

func TestRSI_TooFewCandles(t *testing.T) {
	rsi := RSI([]float64{1, 2, 3}, 5)
	for i, v := range rsi {
		if !math.IsNaN(v) {
			t.Errorf("rsi[%d]: expected NaN when series shorter than period, got %f", i, v)
		}
	}
}

func TestMACD_SeriesRelations(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5)
	}

	line, signal, histogram := MACD(closes)

	if len(line) != len(closes) || len(signal) != len(closes) || len(histogram) != len(closes) {
		t.Fatalf("expected all series aligned to input length %d", len(closes))
	}

	fast := EMA(closes, 12)
	slow := EMA(closes, 26)
	for i := range closes {
		if math.Abs(line[i]-(fast[i]-slow[i])) > 1e-9 {
			t.Errorf("line[%d]: expected fast-slow %f, got %f", i, fast[i]-slow[i], line[i])
		}
		if math.Abs(histogram[i]-(line[i]-signal[i])) > 1e-9 {
			t.Errorf("histogram[%d]: expected line-signal %f, got %f", i, line[i]-signal[i], histogram[i])
		}
	}
}

func TestMACD_ConstantSeriesIsZero(t *testing.T) {
	closes := []float64{42, 42, 42, 42, 42}
	line, signal, histogram := MACD(closes)

	for i := range closes {
		if line[i] != 0 || signal[i] != 0 || histogram[i] != 0 {
			t.Errorf("index %d: expected all zero for constant closes, got line=%f signal=%f hist=%f",
				i, line[i], signal[i], histogram[i])
		}
	}
}
