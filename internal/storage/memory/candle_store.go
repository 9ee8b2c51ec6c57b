package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]domain.Candle // keyed by symbol|timeframe|timestamp
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]domain.Candle),
	}
}

// InsertBulk stores candles for the given symbol and timeframe. Existing
// bars with the same timestamp are replaced.
func (s *CandleStore) InsertBulk(_ context.Context, symbol, timeframe string, candles []domain.Candle) error {
	if symbol == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range candles {
		s.data[candleKey(symbol, timeframe, c.Timestamp)] = c
	}
	return nil
}

// GetByTimeRange retrieves candles within [from, to] (inclusive), ordered by
// timestamp ASC.
func (s *CandleStore) GetByTimeRange(_ context.Context, symbol, timeframe string, from, to int64) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := symbol + "|" + timeframe + "|"
	var result []domain.Candle
	for key, c := range s.data {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix &&
			c.Timestamp >= from && c.Timestamp <= to {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

func candleKey(symbol, timeframe string, ts int64) string {
	return fmt.Sprintf("%s|%s|%d", symbol, timeframe, ts)
}

var _ storage.CandleStore = (*CandleStore)(nil)
