package clickhouse

import (
	"context"
	"fmt"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse. The backing
// table is a ReplacingMergeTree keyed by (symbol, timeframe, timestamp_ms),
// so repeated inserts of the same bar collapse to the latest version.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk stores candles for the given symbol and timeframe.
func (s *CandleStore) InsertBulk(ctx context.Context, symbol, timeframe string, candles []domain.Candle) error {
	if symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			symbol, timeframe, timestamp_ms, open, high, low, close, volume, quote_volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			symbol, timeframe, uint64(c.Timestamp),
			c.Open, c.High, c.Low, c.Close, c.Volume, c.QuoteVolume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves candles within [from, to] (inclusive), ordered by
// timestamp ASC. FINAL collapses replaced bars to their latest version.
func (s *CandleStore) GetByTimeRange(ctx context.Context, symbol, timeframe string, from, to int64) ([]domain.Candle, error) {
	query := `
		SELECT timestamp_ms, open, high, low, close, volume, quote_volume
		FROM candles FINAL
		WHERE symbol = ? AND timeframe = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, timeframe, uint64(from), uint64(to))
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var result []domain.Candle
	for rows.Next() {
		var ts uint64
		var c domain.Candle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.QuoteVolume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Timestamp = int64(ts)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}

	return result, nil
}
