// Package metrics computes return/risk statistics from a closed trade list.
package metrics

import (
	"errors"
	"math"
	"sort"

	"backtest-lab/internal/domain"
)

// Input errors. An empty trade list is a hard error, never a zero-filled
// report. Ratio denominators of zero inside the computation fall back to
// documented values instead (0, or nil for beta).
var (
	ErrNoTrades       = errors.New("no trades provided")
	ErrInvalidBalance = errors.New("starting balance must be positive")
)

// annualization converts per-trade return moments to yearly figures,
// assuming 252 trading periods.
var annualization = math.Sqrt(252)

// Compute derives a MetricsReport from trades and the starting balance.
// benchmark is optional; beta is only computed when its length equals the
// trade count. All intermediate values are carried at full precision;
// rounding happens once at report construction.
func Compute(startingBalance float64, trades []domain.TradeStat, benchmark []float64) (*domain.MetricsReport, error) {
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	if startingBalance <= 0 {
		return nil, ErrInvalidBalance
	}

	n := len(trades)
	returns := make([]float64, n)
	totalPnL := 0.0
	totalNotional := 0.0
	totalDuration := 0.0
	wins := 0
	largestWin := trades[0].PnL
	largestLoss := trades[0].PnL

	for i, t := range trades {
		returns[i] = t.PnL / startingBalance
		totalPnL += t.PnL
		totalNotional += t.Notional
		totalDuration += t.DurationHours
		if t.PnL > 0 {
			wins++
		}
		largestWin = math.Max(largestWin, t.PnL)
		largestLoss = math.Min(largestLoss, t.PnL)
	}

	meanReturn := computeMean(returns)
	stddevReturn := computeStddev(returns, meanReturn)

	volatility := stddevReturn * annualization
	sharpe := 0.0
	if stddevReturn != 0 {
		sharpe = meanReturn / stddevReturn * annualization
	}

	// Sortino penalizes downside deviation only.
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	sortino := 0.0
	if len(downside) > 0 {
		downsideStddev := computeStddev(downside, computeMean(downside))
		if downsideStddev != 0 {
			sortino = meanReturn / downsideStddev * annualization
		}
	}

	maxDrawdownPct, maxDrawdownAbs := computeDrawdowns(startingBalance, trades)

	durationDays := totalDuration / 24
	years := durationDays / 365
	cagr := 0.0
	if years > 0 {
		cagr = math.Pow((startingBalance+totalPnL)/startingBalance, 1/years) - 1
	}

	calmar := 0.0
	if maxDrawdownPct != 0 {
		calmar = cagr / math.Abs(maxDrawdownPct/100)
	}

	sortedReturns := make([]float64, n)
	copy(sortedReturns, returns)
	sort.Float64s(sortedReturns)
	var95 := computePercentile(sortedReturns, 0.05) * startingBalance

	turnoverPct := totalNotional / startingBalance * 100

	beta := computeBeta(returns, benchmark)

	report := &domain.MetricsReport{
		PnLPct:           round(totalPnL/startingBalance*100, 3),
		PnLAbs:           round(totalPnL, 2),
		CAGR:             round(cagr*100, 2),
		Sharpe:           round(sharpe, 2),
		Sortino:          round(sortino, 2),
		Calmar:           round(calmar, 2),
		MaxDrawdownPct:   round(maxDrawdownPct, 2),
		MaxDrawdownAbs:   round(maxDrawdownAbs, 2),
		VolatilityPct:    round(volatility*100, 2),
		TotalTrades:      n,
		WinRatePct:       round(float64(wins)/float64(n)*100, 2),
		AvgDurationHours: round(totalDuration/float64(n), 2),
		LargestWinPct:    round(largestWin/startingBalance*100, 2),
		LargestLossPct:   round(largestLoss/startingBalance*100, 2),
		TurnoverPct:      round(turnoverPct, 2),
		ValueAtRisk95:    round(var95, 2),
		LeverageEstimate: round(turnoverPct/100, 2),
	}
	if beta != nil {
		rounded := round(*beta, 2)
		report.Beta = &rounded
	}
	return report, nil
}

// computeDrawdowns walks the equity curve (starting balance plus cumulative
// PnL) against its running maximum. The percentage drawdown is normalized by
// the rolling max, which is always >= startingBalance > 0. Both results are
// <= 0 by construction.
func computeDrawdowns(startingBalance float64, trades []domain.TradeStat) (pct, abs float64) {
	equity := startingBalance
	rollingMax := startingBalance

	for _, t := range trades {
		equity += t.PnL
		if equity > rollingMax {
			rollingMax = equity
		}
		drawdown := equity - rollingMax
		if drawdown < abs {
			abs = drawdown
		}
		if ddPct := drawdown / rollingMax * 100; ddPct < pct {
			pct = ddPct
		}
	}
	return pct, abs
}

// computeBeta returns covariance(returns, benchmark) / variance(benchmark),
// or nil when the benchmark is missing, of mismatched length, too short for
// a sample covariance, or has zero variance. Covariance uses the sample
// formula (n-1) and benchmark variance the population formula (n).
func computeBeta(returns, benchmark []float64) *float64 {
	n := len(returns)
	if len(benchmark) != n || n < 2 {
		return nil
	}

	meanR := computeMean(returns)
	meanB := computeMean(benchmark)

	cov := 0.0
	varB := 0.0
	for i := 0; i < n; i++ {
		cov += (returns[i] - meanR) * (benchmark[i] - meanB)
		varB += (benchmark[i] - meanB) * (benchmark[i] - meanB)
	}
	cov /= float64(n - 1)
	varB /= float64(n)

	if varB == 0 {
		return nil
	}
	beta := cov / varB
	return &beta
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
// Fewer than 2 samples yields 0.
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation over a pre-sorted slice.
// p is the percentile as a fraction (0.05 = 5th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// round keeps the given number of decimal places for display.
func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
