package api

import (
	"net/http"
	"time"

	"backtest-lab/internal/observability"
)

// withMiddleware wraps the mux with CORS headers, optional request logging,
// and request duration metrics.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)

		observability.RecordHTTPRequest(r.URL.Path, r.Method, elapsed.Seconds())
		if s.logRequests {
			s.logger.Printf("%s %s (%v)", r.Method, r.URL.Path, elapsed)
		}
	})
}
