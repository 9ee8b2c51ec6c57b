package domain

// OrderType selects how entry fills are priced.
type OrderType string

// Supported order types.
const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// ExecutionParams configures the trade simulator.
// StopLossPct and TakeProfitPct are percentages of the entry price and are
// optional; a nil pointer disables the corresponding exit.
type ExecutionParams struct {
	OrderType     OrderType `json:"order_type"`
	Quantity      float64   `json:"quantity"`
	SlippageBps   float64   `json:"slippage_bps"`
	FeeBps        float64   `json:"fee_bps"`
	StopLossPct   *float64  `json:"stop_loss_pct,omitempty"`
	TakeProfitPct *float64  `json:"take_profit_pct,omitempty"`
}

// DefaultExecutionParams returns the simulator defaults: market orders,
// unit quantity, 5 bps slippage, 10 bps fee, 5% stop loss, 10% take profit.
func DefaultExecutionParams() ExecutionParams {
	sl := 5.0
	tp := 10.0
	return ExecutionParams{
		OrderType:     OrderMarket,
		Quantity:      1.0,
		SlippageBps:   5.0,
		FeeBps:        10.0,
		StopLossPct:   &sl,
		TakeProfitPct: &tp,
	}
}

// Trade is one closed round trip emitted by the execution simulator.
// Immutable once produced. Timestamps are Unix milliseconds.
type Trade struct {
	EntryPrice    float64 `json:"entry_price"`
	ExitPrice     float64 `json:"exit_price"`
	EntryTime     int64   `json:"entry_time"`
	ExitTime      int64   `json:"exit_time"`
	DurationHours float64 `json:"duration_hours"`
	PnL           float64 `json:"pnl"`
	SLHit         bool    `json:"sl_hit"`
	TPHit         bool    `json:"tp_hit"`
}
