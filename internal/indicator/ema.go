// Package indicator computes technical indicator series over close prices.
//
// Every function returns a series positionally aligned with its input.
// Entries inside an indicator's warm-up window are NaN rather than zero:
// any comparison against NaN is false, so a warm-up entry can never
// produce a spurious signal downstream.
package indicator

// EMA computes the exponential moving average of closes with smoothing
// factor 2/(period+1), seeded from the first close. The series is defined
// from index 0.
func EMA(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}

	alpha := 2.0 / float64(period+1)
	out[0] = closes[0]
	for i := 1; i < len(closes); i++ {
		out[i] = closes[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}
