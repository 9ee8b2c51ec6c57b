package indicator

// MACD parameters are fixed; the per-condition period field is intentionally
// not honored for this indicator.
const (
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// MACD computes the moving average convergence/divergence of closes with the
// standard 12/26/9 parameterization: the MACD line is EMA(12) minus EMA(26),
// the signal line is EMA(9) of the MACD line, and the histogram is their
// difference. All three series are aligned with the input.
func MACD(closes []float64) (macdLine, signalLine, histogram []float64) {
	fast := EMA(closes, macdFastPeriod)
	slow := EMA(closes, macdSlowPeriod)

	macdLine = make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fast[i] - slow[i]
	}

	signalLine = EMA(macdLine, macdSignalPeriod)

	histogram = make([]float64, len(closes))
	for i := range closes {
		histogram[i] = macdLine[i] - signalLine[i]
	}
	return macdLine, signalLine, histogram
}
