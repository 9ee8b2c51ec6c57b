package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/okx"
	"backtest-lab/internal/storage"
)

// candlesResponse wraps the candle list with its request identity.
type candlesResponse struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Candles   []domain.Candle `json:"candles"`
}

// handleCandles serves GET /api/ohlcv/candles: fresh bars from the exchange,
// normalized to ascending order.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, r, fmt.Errorf("%w: symbol is required", storage.ErrInvalidInput))
		return
	}
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = backtest.DefaultTimeframe
	}
	limit, err := queryInt(r, "limit", backtest.DefaultCandleCount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	candles, err := s.market.Candles(r.Context(), symbol, timeframe, limit)
	observability.RecordCandleFetch("candles", time.Since(start).Seconds())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(candles) == 0 {
		s.writeError(w, r, backtest.ErrDataUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, candlesResponse{
		Symbol:    symbol,
		Timeframe: timeframe,
		Candles:   domain.SortCandlesAscending(candles),
	})
}

// tradesResponse wraps recent public trades for an instrument.
type tradesResponse struct {
	Symbol string            `json:"symbol"`
	Trades []okx.MarketTrade `json:"trades"`
}

// handleTrades serves GET /api/ohlcv/trades: recent public trades, passed
// through as the exchange reports them.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, r, fmt.Errorf("%w: symbol is required", storage.ErrInvalidInput))
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	trades, err := s.market.Trades(r.Context(), symbol, limit)
	observability.RecordCandleFetch("trades", time.Since(start).Seconds())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tradesResponse{Symbol: symbol, Trades: trades})
}

// handleHistory serves GET /api/ohlcv/history: previously fetched bars from
// the candle history store, by inclusive millisecond time range.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.candleStore == nil {
		s.writeError(w, r, fmt.Errorf("candle history store not configured"))
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, r, fmt.Errorf("%w: symbol is required", storage.ErrInvalidInput))
		return
	}
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = backtest.DefaultTimeframe
	}
	from, err := queryInt64(r, "from", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := queryInt64(r, "to", time.Now().UnixMilli())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	candles, err := s.candleStore.GetByTimeRange(r.Context(), symbol, timeframe, from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, candlesResponse{
		Symbol:    symbol,
		Timeframe: timeframe,
		Candles:   candles,
	})
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", storage.ErrInvalidInput, name, raw)
	}
	return v, nil
}

// queryInt64 parses an optional int64 query parameter.
func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", storage.ErrInvalidInput, name, raw)
	}
	return v, nil
}
