package domain

// TradeStat is the per-trade input to the metrics engine. It is a reduced
// view of Trade plus the notional traded, so metrics can also be computed
// for trades that were not produced by this system's simulator.
type TradeStat struct {
	PnL           float64 `json:"pnl"`
	DurationHours float64 `json:"duration_hours"`
	Notional      float64 `json:"notional"`
}

// MetricsReport is the fixed record of return/risk statistics computed from
// a trade list. Values are rounded for display at construction; derived and
// never mutated afterwards. Beta is nil when no benchmark was supplied, the
// benchmark length does not match the trade count, or benchmark variance
// is zero.
type MetricsReport struct {
	PnLPct           float64  `json:"pnl_pct"`
	PnLAbs           float64  `json:"pnl_$"`
	CAGR             float64  `json:"cagr"`
	Sharpe           float64  `json:"sharpe"`
	Sortino          float64  `json:"sortino"`
	Calmar           float64  `json:"calmar"`
	MaxDrawdownPct   float64  `json:"max_drawdown_pct"`
	MaxDrawdownAbs   float64  `json:"max_drawdown_$"`
	VolatilityPct    float64  `json:"volatility_pct"`
	TotalTrades      int      `json:"total_trades"`
	WinRatePct       float64  `json:"win_rate_pct"`
	AvgDurationHours float64  `json:"avg_trade_duration_hr"`
	LargestWinPct    float64  `json:"largest_win_pct"`
	LargestLossPct   float64  `json:"largest_loss_pct"`
	TurnoverPct      float64  `json:"turnover_pct"`
	ValueAtRisk95    float64  `json:"value_at_risk_95"`
	LeverageEstimate float64  `json:"leverage_estimate"`
	Beta             *float64 `json:"beta_to_benchmark"`
}
