package storage

import (
	"context"

	"backtest-lab/internal/domain"
)

// FlowStore persists strategy-builder flow graphs as named documents.
// Saves are upserts; the store owns no interpretation of the graph.
type FlowStore interface {
	// Save stores the flow under name, replacing any previous revision.
	Save(ctx context.Context, name string, flow *domain.Flow) error

	// Load retrieves the flow saved under name. Returns ErrNotFound if
	// nothing has been saved yet.
	Load(ctx context.Context, name string) (*domain.Flow, error)
}

// CandleStore keeps a history of fetched OHLCV bars per instrument and
// timeframe. Writes are idempotent: re-inserting a bar for an existing
// (symbol, timeframe, timestamp) replaces it.
type CandleStore interface {
	// InsertBulk stores candles for the given symbol and timeframe.
	InsertBulk(ctx context.Context, symbol, timeframe string, candles []domain.Candle) error

	// GetByTimeRange retrieves candles within [from, to] (inclusive,
	// milliseconds), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, symbol, timeframe string, from, to int64) ([]domain.Candle, error)
}
