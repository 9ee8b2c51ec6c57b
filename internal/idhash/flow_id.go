package idhash

import (
	"crypto/sha256"
	"encoding/hex"

	"backtest-lab/internal/domain"
)

// ComputeFlowRevisionID computes a deterministic revision ID for a saved
// flow graph using SHA256 over the raw node and edge payloads.
// Returns a hex-encoded hash (64 characters). Identical graphs always hash
// to the same revision regardless of when they were saved.
func ComputeFlowRevisionID(flow *domain.Flow) string {
	h := sha256.New()
	for _, n := range flow.Nodes {
		h.Write(n)
		h.Write([]byte{'|'})
	}
	h.Write([]byte{'#'})
	for _, e := range flow.Edges {
		h.Write(e)
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
