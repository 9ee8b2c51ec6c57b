package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// FlowStore implements storage.FlowStore using PostgreSQL. Flows are stored
// as jsonb documents keyed by name; Save is an upsert.
type FlowStore struct {
	pool *Pool
}

// NewFlowStore creates a new FlowStore.
func NewFlowStore(pool *Pool) *FlowStore {
	return &FlowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FlowStore = (*FlowStore)(nil)

// Save stores the flow under name, replacing any previous revision.
func (s *FlowStore) Save(ctx context.Context, name string, flow *domain.Flow) error {
	if name == "" || flow == nil {
		return storage.ErrInvalidInput
	}

	nodes, err := json.Marshal(flow.Nodes)
	if err != nil {
		return fmt.Errorf("marshal flow nodes: %w", err)
	}
	edges, err := json.Marshal(flow.Edges)
	if err != nil {
		return fmt.Errorf("marshal flow edges: %w", err)
	}

	query := `
		INSERT INTO flows (name, nodes, edges, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET nodes = EXCLUDED.nodes, edges = EXCLUDED.edges, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, name, nodes, edges); err != nil {
		return fmt.Errorf("save flow: %w", err)
	}
	return nil
}

// Load retrieves the flow saved under name. Returns ErrNotFound if nothing
// has been saved yet.
func (s *FlowStore) Load(ctx context.Context, name string) (*domain.Flow, error) {
	query := `SELECT nodes, edges FROM flows WHERE name = $1`

	var nodes, edges []byte
	err := s.pool.QueryRow(ctx, query, name).Scan(&nodes, &edges)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load flow: %w", err)
	}

	flow := &domain.Flow{}
	if err := json.Unmarshal(nodes, &flow.Nodes); err != nil {
		return nil, fmt.Errorf("unmarshal flow nodes: %w", err)
	}
	if err := json.Unmarshal(edges, &flow.Edges); err != nil {
		return nil, fmt.Errorf("unmarshal flow edges: %w", err)
	}
	return flow, nil
}
