package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tracer-platform/tracer/internal/storage"
)

// healthProbeTimeout bounds the storage probe so a hung backend cannot hang
// the health endpoint.
const healthProbeTimeout = 5 * time.Second

// Health returns the liveness handler. It probes the storage backend through
// its idempotent initialization, the cheapest contract operation that can
// report failure, and answers degraded with 503 when the probe fails.
func Health(serviceName string, backend storage.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		resp := map[string]string{
			"status":          "healthy",
			"service":         serviceName,
			"storage_backend": backendName(backend),
			"storage_status":  "connected",
		}
		code := http.StatusOK

		if err := backend.InitializeDatabase(ctx); err != nil {
			resp["status"] = "degraded"
			resp["storage_status"] = "error: " + err.Error()
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(resp)
	}
}

func backendName(b storage.Backend) string {
	switch b.(type) {
	case *storage.JSONStore:
		return "json"
	case *storage.PostgresStore:
		return "postgres"
	default:
		return "unknown"
	}
}
