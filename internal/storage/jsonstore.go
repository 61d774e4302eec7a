package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tracer-platform/tracer/internal/model"
)

// databaseDocument is the single shared document holding every case.
type databaseDocument struct {
	Cases    map[string]model.CaseDocument `json:"cases"`
	Metadata databaseMetadata              `json:"metadata"`
}

type databaseMetadata struct {
	Created time.Time `json:"created"`
	Version string    `json:"version"`
}

// logDocument is the per-channel audit log file.
type logDocument struct {
	Entries []LogEntry `json:"tracer_log"`
}

const databaseVersion = "1.0"

// JSONStore persists all cases in one JSON document. Every write is a
// whole-document read-modify-write, which costs O(total dataset) per
// operation; acceptable for an interactive investigative workload.
// Files are replaced via temp-file + rename so an interrupted write leaves
// the prior document intact.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a flat-file store rooted at the given database path.
// Log channels are written as sibling files in the same directory.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// InitializeDatabase creates the database document if it does not exist.
func (s *JSONStore) InitializeDatabase(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		slog.Debug("using existing database", "path", s.path)
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	initial := databaseDocument{
		Cases: map[string]model.CaseDocument{},
		Metadata: databaseMetadata{
			Created: time.Now().UTC(),
			Version: databaseVersion,
		},
	}
	if err := writeFileAtomic(s.path, initial); err != nil {
		return fmt.Errorf("create database: %w", err)
	}

	slog.Info("created new database", "path", s.path)
	return nil
}

// SaveCase upserts one case into the shared document.
func (s *JSONStore) SaveCase(ctx context.Context, caseID string, doc model.CaseDocument) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.readDatabase()
	if err != nil {
		slog.Error("could not save case", "case_id", caseID, "error", err)
		return false
	}

	db.Cases[caseID] = doc

	if err := writeFileAtomic(s.path, db); err != nil {
		slog.Error("could not save case", "case_id", caseID, "error", err)
		return false
	}
	return true
}

// LoadCase returns the stored case, or the empty skeleton on a miss or any
// read failure.
func (s *JSONStore) LoadCase(ctx context.Context, caseID string) model.CaseDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.readDatabase()
	if err != nil {
		slog.Warn("could not load case", "case_id", caseID, "error", err)
		return model.EmptyCaseDocument()
	}

	doc, ok := db.Cases[caseID]
	if !ok {
		return model.EmptyCaseDocument()
	}
	return normalizeDocument(doc)
}

// ListCases returns all case IDs in lexical order.
func (s *JSONStore) ListCases(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err != nil {
		return []string{}
	}

	db, err := s.readDatabase()
	if err != nil {
		slog.Warn("could not list cases", "error", err)
		return []string{}
	}

	ids := make([]string, 0, len(db.Cases))
	for id := range db.Cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CaseExists reports whether the case is present in the shared document.
func (s *JSONStore) CaseExists(ctx context.Context, caseID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.readDatabase()
	if err != nil {
		return false
	}
	_, ok := db.Cases[caseID]
	return ok
}

// WriteLogEntry appends an entry to the named channel's log document.
func (s *JSONStore) WriteLogEntry(ctx context.Context, logChannel string, entry LogEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.logPath(logChannel)

	var doc logDocument
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &doc); err != nil {
			slog.Error("could not write log entry", "channel", logChannel, "error", err)
			return false
		}
	case os.IsNotExist(err):
		doc = logDocument{Entries: []LogEntry{}}
	default:
		slog.Error("could not write log entry", "channel", logChannel, "error", err)
		return false
	}

	doc.Entries = append(doc.Entries, entry)

	if err := writeFileAtomic(path, doc); err != nil {
		slog.Error("could not write log entry", "channel", logChannel, "error", err)
		return false
	}
	return true
}

// Close is a no-op for the file store.
func (s *JSONStore) Close() error {
	return nil
}

// logPath maps a log channel name to a sibling file of the database.
// filepath.Base strips any path components a caller might sneak in.
func (s *JSONStore) logPath(logChannel string) string {
	return filepath.Join(filepath.Dir(s.path), filepath.Base(logChannel))
}

func (s *JSONStore) readDatabase() (databaseDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return databaseDocument{}, fmt.Errorf("read database: %w", err)
	}

	var db databaseDocument
	if err := json.Unmarshal(data, &db); err != nil {
		return databaseDocument{}, fmt.Errorf("decode database: %w", err)
	}
	if db.Cases == nil {
		db.Cases = map[string]model.CaseDocument{}
	}
	return db, nil
}

// writeFileAtomic marshals v and replaces path via a temp file and rename,
// so a crash mid-write never leaves a truncated document behind.
func writeFileAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
