package storage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/tracer-platform/tracer/pkg/errors"
)

// Backend selection values.
const (
	BackendJSON     = "json"
	BackendPostgres = "postgres"
	BackendAuto     = "auto"
)

// Config selects and parameterizes a storage backend. Selection is explicit
// configuration passed at construction; nothing probes global state.
type Config struct {
	// Backend forces a specific backend. "auto" (or empty) picks postgres
	// when a connection string is configured and falls back to the flat
	// file otherwise.
	Backend string

	// JSONPath is the flat-file database path.
	JSONPath string

	// PostgresDSN is the indexed-store connection string. Empty means the
	// indexed backend is not configured.
	PostgresDSN string

	// Timeout bounds indexed-store network operations. Zero selects
	// DefaultOperationTimeout.
	Timeout time.Duration
}

// New constructs a backend per the configuration and runs its one-time
// initialization. A forced backend propagates setup failure; auto mode falls
// back to the flat file when the indexed store cannot be reached.
func New(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendJSON:
		slog.Info("using json storage", "path", cfg.JSONPath, "reason", "forced")
		return newJSONBackend(ctx, cfg.JSONPath)

	case BackendPostgres:
		slog.Info("using postgres storage", "reason", "forced")
		store := NewPostgresStore(cfg.PostgresDSN, cfg.Timeout)
		if err := store.InitializeDatabase(ctx); err != nil {
			store.Close()
			return nil, apperrors.SetupFailure(err, "postgres storage initialization failed")
		}
		return store, nil

	case BackendAuto, "":
		if cfg.PostgresDSN != "" {
			store := NewPostgresStore(cfg.PostgresDSN, cfg.Timeout)
			if err := store.InitializeDatabase(ctx); err != nil {
				store.Close()
				slog.Warn("postgres storage unavailable, falling back to json", "error", err)
				return newJSONBackend(ctx, cfg.JSONPath)
			}
			slog.Info("using postgres storage", "reason", "connection string configured")
			return store, nil
		}
		slog.Info("using json storage", "path", cfg.JSONPath, "reason", "default")
		return newJSONBackend(ctx, cfg.JSONPath)

	default:
		return nil, apperrors.Validation("unknown storage backend: " + cfg.Backend)
	}
}

func newJSONBackend(ctx context.Context, path string) (Backend, error) {
	store := NewJSONStore(path)
	if err := store.InitializeDatabase(ctx); err != nil {
		return nil, apperrors.SetupFailure(err, "json storage initialization failed")
	}
	return store, nil
}
