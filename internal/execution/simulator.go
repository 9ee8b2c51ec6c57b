// Package execution replays entry signals against candle data through a
// flat/in-position state machine and emits closed trades.
package execution

import (
	"errors"

	"backtest-lab/internal/domain"
)

// ErrSignalLengthMismatch is returned when the entry-signal series is not
// aligned with the candle sequence.
var ErrSignalLengthMismatch = errors.New("entry signal length does not match candle count")

// Simulate replays the entry-signal series over candles with at most one
// open position at a time. Scanning starts at index 1; the entry bar itself
// is never evaluated for an exit.
//
// While in a position, exits are checked in priority order on each bar:
//  1. stop loss:   low <= entry * (1 - stopLossPct/100)
//  2. take profit: high >= entry * (1 + takeProfitPct/100)
//  3. forced close on the final bar.
//
// Market entries pay slippage on the close; limit entries fill at the close
// unadjusted. A forced close pays slippage regardless of order type.
// Signals while in a position are ignored. A signal that never fires yields
// an empty trade list.
func Simulate(candles []domain.Candle, signal []bool, params domain.ExecutionParams) ([]domain.Trade, error) {
	if len(signal) != len(candles) {
		return nil, ErrSignalLengthMismatch
	}

	trades := make([]domain.Trade, 0)
	inPosition := false
	var entryPrice float64
	var entryTime int64

	for i := 1; i < len(candles); i++ {
		if signal[i] && !inPosition {
			entryPrice = candles[i].Close
			if params.OrderType == domain.OrderMarket {
				entryPrice *= 1 + params.SlippageBps/10000
			}
			entryTime = candles[i].Timestamp
			inPosition = true
			continue
		}

		if !inPosition {
			continue
		}

		slHit := params.StopLossPct != nil &&
			candles[i].Low <= entryPrice*(1-*params.StopLossPct/100)
		tpHit := params.TakeProfitPct != nil &&
			candles[i].High >= entryPrice*(1+*params.TakeProfitPct/100)
		lastBar := i == len(candles)-1

		if !slHit && !tpHit && !lastBar {
			continue
		}

		var exitPrice float64
		switch {
		case slHit:
			exitPrice = entryPrice * (1 - *params.StopLossPct/100)
		case tpHit:
			exitPrice = entryPrice * (1 + *params.TakeProfitPct/100)
		default:
			exitPrice = candles[i].Close * (1 - params.SlippageBps/10000)
		}

		exitTime := candles[i].Timestamp
		grossPnL := (exitPrice - entryPrice) * params.Quantity
		fee := (entryPrice + exitPrice) * params.Quantity * params.FeeBps / 10000

		trades = append(trades, domain.Trade{
			EntryPrice:    entryPrice,
			ExitPrice:     exitPrice,
			EntryTime:     entryTime,
			ExitTime:      exitTime,
			DurationHours: float64(exitTime-entryTime) / 3_600_000,
			PnL:           grossPnL - fee,
			SLHit:         slHit,
			TPHit:         tpHit,
		})
		inPosition = false
	}

	return trades, nil
}
