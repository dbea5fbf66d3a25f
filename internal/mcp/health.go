package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

var errNoIndex = errors.New("no index configured")

// HealthResponse is the JSON body of the /health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Qdrant    string `json:"qdrant"`
	Providers int    `json:"providers"`
	Timestamp string `json:"timestamp"`
}

// HealthChecker is the health probe dependency. The storage layer
// implements it via its Health method.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler creates the /health endpoint handler. The service stays
// "healthy" without any generation provider because the local responder can
// still answer; only a missing index makes it unhealthy.
func NewHealthHandler(store HealthChecker, providerCount int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Providers: providerCount,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")

		err := errNoIndex
		if store != nil {
			err = store.Health(ctx)
		}
		if err != nil {
			response.Status = "unhealthy"
			response.Qdrant = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.Qdrant = "connected"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
