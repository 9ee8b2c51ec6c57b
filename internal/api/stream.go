package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"backtest-lab/internal/observability"
)

// Demo stream cadence: fixed step count on a fixed interval, no per-client
// state kept on the server.
const (
	streamSteps    = 100
	streamInterval = 100 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The HTTP middleware already allows any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamFrame is one message on the demo progress feed.
type streamFrame struct {
	Type  string `json:"type"`
	Step  int    `json:"step,omitempty"`
	Total int    `json:"total,omitempty"`
}

// handleStream serves GET /api/ws/stream: a WebSocket feed that emits
// progress frames on a fixed cadence and closes after a completed frame.
// A disconnect simply ends the feed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	observability.StreamClientConnected()
	defer observability.StreamClientDisconnected()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for step := 1; step <= streamSteps; step++ {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame := streamFrame{Type: "progress", Step: step, Total: streamSteps}
		if err := conn.WriteJSON(frame); err != nil {
			return
		}
	}

	if err := conn.WriteJSON(streamFrame{Type: "completed"}); err != nil {
		return
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
