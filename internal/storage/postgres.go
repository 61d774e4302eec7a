package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tracer-platform/tracer/internal/model"
)

// DefaultOperationTimeout bounds connection establishment and every
// statement so an unreachable database degrades to a reported error instead
// of hanging.
const DefaultOperationTimeout = 5 * time.Second

const postgresSchema = `
CREATE TABLE IF NOT EXISTS cases (
	case_id   TEXT PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
	data      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cases_timestamp ON cases (timestamp);

CREATE TABLE IF NOT EXISTS logs (
	id           BIGSERIAL PRIMARY KEY,
	case_id      TEXT NOT NULL,
	log_filename TEXT NOT NULL,
	timestamp    TIMESTAMPTZ NOT NULL DEFAULT now(),
	entry        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_case_timestamp ON logs (case_id, timestamp);
`

// PostgresStore keeps one row per case in an indexed `cases` table and audit
// entries in a `logs` table. The connection is established lazily on the
// first operation that needs it. A single mutex serializes all operations;
// correctness for concurrent callers comes from serialization, not
// fine-grained locking. The lost-update hazard across separate
// LoadCase/SaveCase pairs (see the package comment) still applies.
type PostgresStore struct {
	dsn     string
	timeout time.Duration

	mu          sync.Mutex
	db          *sqlx.DB
	initialized bool
}

// NewPostgresStore creates an indexed store for the given connection string.
// No connection is made until the first operation.
func NewPostgresStore(dsn string, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return &PostgresStore{dsn: dsn, timeout: timeout}
}

// InitializeDatabase connects, verifies reachability, and creates tables and
// indexes. Idempotent; concurrent callers are serialized so the connection
// is never established twice.
func (s *PostgresStore) InitializeDatabase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *PostgresStore) initLocked(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	db, err := sqlx.Open("postgres", s.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("connect to database: %w", err)
	}

	schemaCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := db.ExecContext(schemaCtx, postgresSchema); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	s.db = db
	s.initialized = true
	slog.Info("connected to postgres storage")
	return nil
}

// SaveCase replaces the case row with upsert semantics keyed on case_id.
func (s *PostgresStore) SaveCase(ctx context.Context, caseID string, doc model.CaseDocument) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(ctx); err != nil {
		slog.Error("could not save case", "case_id", caseID, "error", err)
		return false
	}

	data, err := json.Marshal(doc)
	if err != nil {
		slog.Error("could not save case", "case_id", caseID, "error", err)
		return false
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err = s.db.ExecContext(opCtx, `
		INSERT INTO cases (case_id, timestamp, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_id) DO UPDATE SET
			timestamp = EXCLUDED.timestamp,
			data      = EXCLUDED.data
	`, caseID, time.Now().UTC(), data)
	if err != nil {
		slog.Error("could not save case", "case_id", caseID, "error", err)
		return false
	}
	return true
}

// LoadCase returns the stored case, or the empty skeleton on a miss or any
// failure.
func (s *PostgresStore) LoadCase(ctx context.Context, caseID string) model.CaseDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(ctx); err != nil {
		slog.Warn("could not load case", "case_id", caseID, "error", err)
		return model.EmptyCaseDocument()
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var data []byte
	err := s.db.GetContext(opCtx, &data, `SELECT data FROM cases WHERE case_id = $1`, caseID)
	if err == sql.ErrNoRows {
		return model.EmptyCaseDocument()
	}
	if err != nil {
		slog.Warn("could not load case", "case_id", caseID, "error", err)
		return model.EmptyCaseDocument()
	}

	var doc model.CaseDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("could not decode case", "case_id", caseID, "error", err)
		return model.EmptyCaseDocument()
	}
	return normalizeDocument(doc)
}

// ListCases returns all case IDs ordered by their save timestamp.
func (s *PostgresStore) ListCases(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(ctx); err != nil {
		slog.Warn("could not list cases", "error", err)
		return []string{}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ids := []string{}
	if err := s.db.SelectContext(opCtx, &ids, `SELECT case_id FROM cases ORDER BY timestamp, case_id`); err != nil {
		slog.Warn("could not list cases", "error", err)
		return []string{}
	}
	return ids
}

// CaseExists reports whether a row exists for the case ID.
func (s *PostgresStore) CaseExists(ctx context.Context, caseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(ctx); err != nil {
		return false
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var exists bool
	if err := s.db.GetContext(opCtx, &exists, `SELECT EXISTS (SELECT 1 FROM cases WHERE case_id = $1)`, caseID); err != nil {
		return false
	}
	return exists
}

// WriteLogEntry appends the entry to the logs table. The owning case is taken
// from the entry payload when present.
func (s *PostgresStore) WriteLogEntry(ctx context.Context, logChannel string, entry LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(ctx); err != nil {
		slog.Error("could not write log entry", "channel", logChannel, "error", err)
		return false
	}

	caseID := "unknown"
	if id, ok := entry.Data["case_id"].(string); ok && id != "" {
		caseID = id
	}

	data, err := json.Marshal(entry)
	if err != nil {
		slog.Error("could not write log entry", "channel", logChannel, "error", err)
		return false
	}

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err = s.db.ExecContext(opCtx, `
		INSERT INTO logs (case_id, log_filename, timestamp, entry)
		VALUES ($1, $2, $3, $4)
	`, caseID, logChannel, entry.Timestamp, data)
	if err != nil {
		slog.Error("could not write log entry", "channel", logChannel, "error", err)
		return false
	}
	return true
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.initialized = false
	return err
}
