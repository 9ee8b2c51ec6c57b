package domain

import "encoding/json"

// Flow is a saved strategy-builder graph. Node and edge payloads are opaque
// to the backend; they are stored and returned verbatim for the visual
// editor. Flows live in externally-owned key-value storage, never in
// process-global state.
type Flow struct {
	Nodes []json.RawMessage `json:"nodes"`
	Edges []json.RawMessage `json:"edges"`
}
