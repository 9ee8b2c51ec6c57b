package domain

// Candle represents one OHLCV bar for a time interval.
// Timestamp is Unix milliseconds; sequences used by the pipeline must be
// in strictly ascending timestamp order.
type Candle struct {
	Timestamp   int64   `json:"timestamp"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
	QuoteVolume float64 `json:"quoteVolume"`
}

// Closes extracts the close prices of a candle sequence, positionally aligned.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// SortCandlesAscending normalizes a candle sequence to ascending timestamp
// order. Exchanges return candles newest-first; the pipeline requires
// oldest-first. A sequence that is already ascending is returned unchanged.
func SortCandlesAscending(candles []Candle) []Candle {
	if len(candles) < 2 || candles[0].Timestamp < candles[1].Timestamp {
		return candles
	}

	reversed := make([]Candle, len(candles))
	for i, c := range candles {
		reversed[len(candles)-1-i] = c
	}
	return reversed
}
