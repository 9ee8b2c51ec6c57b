package memory

import (
	"context"
	"encoding/json"
	"sync"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// FlowStore is an in-memory implementation of storage.FlowStore.
type FlowStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Flow
}

// NewFlowStore creates a new in-memory flow store.
func NewFlowStore() *FlowStore {
	return &FlowStore{
		data: make(map[string]*domain.Flow),
	}
}

// Save stores the flow under name, replacing any previous revision.
func (s *FlowStore) Save(_ context.Context, name string, flow *domain.Flow) error {
	if name == "" || flow == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[name] = copyFlow(flow)
	return nil
}

// Load retrieves the flow saved under name. Returns ErrNotFound if nothing
// has been saved yet.
func (s *FlowStore) Load(_ context.Context, name string) (*domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, exists := s.data[name]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyFlow(flow), nil
}

// copyFlow deep-copies a flow so callers cannot mutate stored state.
func copyFlow(f *domain.Flow) *domain.Flow {
	out := &domain.Flow{
		Nodes: make([]json.RawMessage, len(f.Nodes)),
		Edges: make([]json.RawMessage, len(f.Edges)),
	}
	for i, n := range f.Nodes {
		out.Nodes[i] = append(json.RawMessage(nil), n...)
	}
	for i, e := range f.Edges {
		out.Edges[i] = append(json.RawMessage(nil), e...)
	}
	return out
}

var _ storage.FlowStore = (*FlowStore)(nil)
