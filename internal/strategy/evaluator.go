// Package strategy evaluates declarative threshold strategies against
// indicator series, in two modes sharing one comparison primitive:
// scalar mode for validation (latest value only) and series mode for
// backtesting (elementwise over the full candle range).
package strategy

import (
	"errors"
	"fmt"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/indicator"
)

// Evaluation errors. All are input errors: the strategy payload originates
// from an untrusted caller.
var (
	ErrEmptyStrategy    = errors.New("strategy has no logic blocks")
	ErrUnknownIndicator = errors.New("unknown indicator type")
	ErrUnknownOperator  = errors.New("unknown operator")
	ErrInvalidPeriod    = errors.New("indicator period must be positive")
)

// Validate checks a strategy for structural errors before any candle data
// is fetched: at least one block, known indicator types and operators,
// positive periods.
func Validate(blocks []domain.LogicBlock) error {
	if len(blocks) == 0 {
		return ErrEmptyStrategy
	}
	for _, block := range blocks {
		for _, cond := range block.Conditions {
			switch cond.Indicator.Type {
			case domain.IndicatorEMA, domain.IndicatorRSI, domain.IndicatorMACD:
			default:
				return fmt.Errorf("%w: %q", ErrUnknownIndicator, cond.Indicator.Type)
			}
			if cond.Indicator.Period <= 0 {
				return fmt.Errorf("%w: got %d", ErrInvalidPeriod, cond.Indicator.Period)
			}
			if _, err := compare(cond.Operator, 0, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvaluateLatest runs scalar mode: each condition is checked against the
// latest value of its indicator series, conditions combine within a block
// via the block's logic operator, and the overall result is the AND of all
// block results.
func EvaluateLatest(candles []domain.Candle, blocks []domain.LogicBlock) ([]domain.BlockResult, bool, error) {
	if err := Validate(blocks); err != nil {
		return nil, false, err
	}

	closes := domain.Closes(candles)
	results := make([]domain.BlockResult, 0, len(blocks))
	valid := true

	for idx, block := range blocks {
		blockResult := block.LogicOp != domain.LogicOr // AND over none is true, OR over none is false
		for condIdx, cond := range block.Conditions {
			series, err := conditionSeries(closes, cond)
			if err != nil {
				return nil, false, err
			}
			hit, err := compare(cond.Operator, series[len(series)-1], cond.Value)
			if err != nil {
				return nil, false, err
			}
			if condIdx == 0 {
				blockResult = hit
			} else if block.LogicOp == domain.LogicOr {
				blockResult = blockResult || hit
			} else {
				blockResult = blockResult && hit
			}
		}
		results = append(results, domain.BlockResult{LogicBlock: idx + 1, Result: blockResult})
		valid = valid && blockResult
	}
	return results, valid, nil
}

// EvaluateSeries runs series mode: each condition is compared elementwise
// against its threshold, conditions combine elementwise within a block via
// the block's logic operator, and blocks combine elementwise via AND into
// the entry-signal series. The result has the same length as candles.
func EvaluateSeries(candles []domain.Candle, blocks []domain.LogicBlock) ([]bool, error) {
	if err := Validate(blocks); err != nil {
		return nil, err
	}

	closes := domain.Closes(candles)
	signal := make([]bool, len(candles))
	for i := range signal {
		signal[i] = true
	}

	for _, block := range blocks {
		blockSignal := make([]bool, len(candles))
		if block.LogicOp != domain.LogicOr {
			for i := range blockSignal {
				blockSignal[i] = true
			}
		}

		for condIdx, cond := range block.Conditions {
			series, err := conditionSeries(closes, cond)
			if err != nil {
				return nil, err
			}
			for i := range blockSignal {
				hit, err := compare(cond.Operator, series[i], cond.Value)
				if err != nil {
					return nil, err
				}
				switch {
				case condIdx == 0:
					blockSignal[i] = hit
				case block.LogicOp == domain.LogicOr:
					blockSignal[i] = blockSignal[i] || hit
				default:
					blockSignal[i] = blockSignal[i] && hit
				}
			}
		}

		for i := range signal {
			signal[i] = signal[i] && blockSignal[i]
		}
	}
	return signal, nil
}

// conditionSeries computes the indicator series a condition compares against.
// MACD conditions use the MACD line; the configured period is ignored for
// that indicator.
func conditionSeries(closes []float64, cond domain.Condition) ([]float64, error) {
	switch cond.Indicator.Type {
	case domain.IndicatorEMA:
		return indicator.EMA(closes, cond.Indicator.Period), nil
	case domain.IndicatorRSI:
		return indicator.RSI(closes, cond.Indicator.Period), nil
	case domain.IndicatorMACD:
		line, _, _ := indicator.MACD(closes)
		return line, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, cond.Indicator.Type)
	}
}

// compare dispatches a threshold comparison through the closed operator
// enumeration. NaN operands compare false under every operator, which is
// how indeterminate warm-up values are kept out of the signal.
func compare(op domain.Operator, value, threshold float64) (bool, error) {
	switch op {
	case domain.OpGreater:
		return value > threshold, nil
	case domain.OpLess:
		return value < threshold, nil
	case domain.OpGreaterEqual:
		return value >= threshold, nil
	case domain.OpLessEqual:
		return value <= threshold, nil
	case domain.OpEqual:
		return value == threshold, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}
