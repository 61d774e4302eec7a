// Package storage provides pluggable persistence backends for cases.
//
// All backends satisfy the same contract: saves are full-document upserts,
// loads of unknown cases yield an empty skeleton instead of an error, and
// persistence failures are logged and reported as a boolean rather than
// raised. Callers distinguish "new" from "existing" with CaseExists.
//
// Operations are individually atomic from the caller's perspective, but no
// cross-call transaction exists: two callers doing load-modify-save on the
// same case can overwrite each other (lost update). The workload is assumed
// interactive and low-volume.
package storage

import (
	"context"
	"time"

	"github.com/tracer-platform/tracer/internal/model"
)

// LogEntry is one structured audit entry on a named log channel.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Data      map[string]interface{} `json:"data"`
}

// NewLogEntry builds a log entry stamped with the current time.
func NewLogEntry(action string, data map[string]interface{}) LogEntry {
	if data == nil {
		data = map[string]interface{}{}
	}
	return LogEntry{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Data:      data,
	}
}

// Backend is the uniform storage contract. Implementations must behave
// identically so callers stay backend-agnostic.
type Backend interface {
	// InitializeDatabase performs idempotent setup (files, connections,
	// indexes). Safe to call multiple times; failure is fatal to the backend.
	InitializeDatabase(ctx context.Context) error

	// SaveCase upserts the full case document: creates if absent, replaces
	// if present, never partial-merges. Returns false on any I/O or
	// serialization failure; failures are logged, not raised.
	SaveCase(ctx context.Context, caseID string, doc model.CaseDocument) bool

	// LoadCase returns the stored document, or the well-formed empty
	// skeleton when the case does not exist or the read fails. It never
	// signals absence by returning an error.
	LoadCase(ctx context.Context, caseID string) model.CaseDocument

	// ListCases enumerates all known case IDs. No ordering is guaranteed by
	// contract, but the order is stable for an unmutated dataset.
	ListCases(ctx context.Context) []string

	// CaseExists reports membership; it agrees with ListCases at all times
	// absent concurrent external mutation.
	CaseExists(ctx context.Context, caseID string) bool

	// WriteLogEntry appends an audit entry to the named log channel.
	// Append-only; returns false on failure.
	WriteLogEntry(ctx context.Context, logChannel string, entry LogEntry) bool

	// Close releases backend resources.
	Close() error
}

// normalizeDocument repairs nil collections on documents decoded from
// storage so callers always see the skeleton shape.
func normalizeDocument(doc model.CaseDocument) model.CaseDocument {
	if doc.NetworkElements == nil {
		doc.NetworkElements = map[string]model.ElementRecord{}
	}
	if doc.PathSequence == nil {
		doc.PathSequence = []string{}
	}
	return doc
}
