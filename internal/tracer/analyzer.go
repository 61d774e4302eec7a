// Package tracer implements the in-memory case model: detection metadata,
// the element registry, and the ordered traversal path with positional
// insertion semantics. An Analyzer is a transient, reconstructible view over
// state owned by a storage backend.
package tracer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tracer-platform/tracer/internal/model"
	"github.com/tracer-platform/tracer/internal/storage"
	apperrors "github.com/tracer-platform/tracer/pkg/errors"
)

// Audit actions written through the storage backend.
const (
	ActionAnalysisStarted     = "analysis_started"
	ActionInitialDetection    = "initial_detection"
	ActionNetworkElementAdded = "network_element_added"
	ActionInformationAdded    = "information_added"
	ActionNoteAdded           = "note_added"
	ActionStatusChanged       = "status_changed"
)

// PivotNamePrefix marks pivot elements in the registry and path sequence.
const PivotNamePrefix = "PIVOT_"

// NewCaseID generates a case identifier. The timestamp keeps IDs readable in
// logs; the uuid suffix makes them collision-safe.
func NewCaseID() string {
	return fmt.Sprintf("CASE_%s_%s",
		time.Now().UTC().Format("20060102_150405"),
		uuid.New().String()[:8])
}

// Analyzer owns the mutation rules for one case and round-trips it through a
// storage backend. It holds no lock: two Analyzers working on the same case
// ID can overwrite each other's saves (documented lost-update hazard).
type Analyzer struct {
	caseID     string
	doc        model.CaseDocument
	backend    storage.Backend
	logChannel string
}

// New starts a fresh case against the given backend and records the
// analysis_started audit entry.
func New(ctx context.Context, backend storage.Backend) *Analyzer {
	now := time.Now().UTC()
	caseID := NewCaseID()

	a := &Analyzer{
		caseID:  caseID,
		backend: backend,
		logChannel: fmt.Sprintf("tracer_log_%s.json",
			now.Format("20060102_150405")),
		doc: model.CaseDocument{
			CaseID:           caseID,
			Timestamp:        now,
			Status:           model.StatusActive,
			InitialDetection: model.InitialDetection{},
			NetworkElements:  map[string]model.ElementRecord{},
			PathSequence:     []string{},
		},
	}

	a.writeLog(ctx, ActionAnalysisStarted, map[string]interface{}{
		"timestamp": now.Format(time.RFC3339),
	})
	return a
}

// Load reconstructs an Analyzer from persisted state. The backend returns
// the empty skeleton for unknown IDs, so callers that need to distinguish
// "new" from "existing" must check CaseExists first.
func Load(ctx context.Context, backend storage.Backend, caseID string) *Analyzer {
	doc := backend.LoadCase(ctx, caseID)
	doc.CaseID = caseID
	if doc.Status == "" {
		doc.Status = model.StatusActive
	}

	return &Analyzer{
		caseID:  caseID,
		backend: backend,
		logChannel: fmt.Sprintf("tracer_log_%s.json",
			time.Now().UTC().Format("20060102_150405")),
		doc: doc,
	}
}

// CaseID returns the case identifier.
func (a *Analyzer) CaseID() string {
	return a.caseID
}

// Document returns the current in-memory case document.
func (a *Analyzer) Document() model.CaseDocument {
	return a.doc
}

// SetInitialDetection records the detection that anchors the case. The
// detection is immutable once set.
func (a *Analyzer) SetInitialDetection(ctx context.Context, d model.InitialDetection) error {
	if d.ThreatType == "" || d.SourceIP == "" || d.DestinationIP == "" {
		return apperrors.Validation("threat_type, source_ip and destination_ip are required")
	}
	if !a.doc.InitialDetection.IsZero() {
		return apperrors.Validation("initial detection is immutable once set")
	}

	a.doc.InitialDetection = d

	a.writeLog(ctx, ActionInitialDetection, map[string]interface{}{
		"threat_type":    d.ThreatType,
		"source_ip":      d.SourceIP,
		"destination_ip": d.DestinationIP,
	})
	a.Save(ctx)
	return nil
}

// AddElement registers the record under name and inserts it into the path
// sequence at the given insertion point (1..N+1). A zero point appends at
// the end. Re-adding an existing name is a structural no-op: the record is
// not re-registered, the sequence is untouched, and added=false is returned
// with a warning logged so the skip is detectable.
func (a *Analyzer) AddElement(ctx context.Context, name string, rec model.ElementRecord, point int) (added bool, err error) {
	if name == "" {
		return false, apperrors.Validation("element name is required")
	}

	n := len(a.doc.PathSequence)
	if point == 0 {
		point = n + 1
	}
	idx, err := insertIndex(point, n)
	if err != nil {
		return false, err
	}

	if _, exists := a.doc.NetworkElements[name]; exists {
		slog.Warn("element already registered, skipping insert",
			"case_id", a.caseID, "element", name)
		return false, nil
	}

	if rec.SourceInfo == nil {
		rec.SourceInfo = map[string]string{}
	}
	if rec.DestinationInfo == nil {
		rec.DestinationInfo = map[string]string{}
	}
	if rec.AddedTimestamp.IsZero() {
		rec.AddedTimestamp = time.Now().UTC()
	}

	a.doc.NetworkElements[name] = rec
	a.doc.PathSequence = insertAt(a.doc.PathSequence, idx, name)

	a.writeLog(ctx, ActionNetworkElementAdded, map[string]interface{}{
		"element_name":   name,
		"element_type":   rec.Type,
		"movement_type":  string(rec.MovementType),
		"path_position":  point,
		"threat_type":    a.doc.InitialDetection.ThreatType,
		"source_ip":      a.doc.InitialDetection.SourceIP,
		"destination_ip": a.doc.InitialDetection.DestinationIP,
	})
	a.Save(ctx)
	return true, nil
}

// AddPivotPoint inserts a lateral-movement pivot. The position is free text:
// a non-numeric or out-of-range value appends at the end of the path rather
// than failing the operation. Returns the registered pivot name.
func (a *Analyzer) AddPivotPoint(ctx context.Context, name, ip, method, position string) (string, error) {
	if name == "" {
		return "", apperrors.Validation("pivot name is required")
	}

	pivotName := PivotNamePrefix + name
	rec := model.NewPivotElement(ip, method, a.doc.InitialDetection.SourceIP)

	n := len(a.doc.PathSequence)
	point := n + 1
	if p, err := strconv.Atoi(position); err == nil && p >= 1 && p <= n+1 {
		point = p
	} else if position != "" {
		slog.Warn("invalid pivot position, appending at end of path",
			"case_id", a.caseID, "position", position)
	}

	if _, err := a.AddElement(ctx, pivotName, rec, point); err != nil {
		return "", err
	}
	return pivotName, nil
}

// RecordElementInfo sets one source or destination annotation on a
// registered element. Unknown names are an invalid-reference error.
func (a *Analyzer) RecordElementInfo(ctx context.Context, name, direction, key, value string) error {
	if direction != "source" && direction != "destination" {
		return apperrors.Validation("direction must be source or destination")
	}
	if key == "" {
		return apperrors.Validation("info key is required")
	}

	rec, ok := a.doc.NetworkElements[name]
	if !ok {
		return apperrors.InvalidReference(name)
	}

	if direction == "source" {
		if rec.SourceInfo == nil {
			rec.SourceInfo = map[string]string{}
		}
		rec.SourceInfo[key] = value
	} else {
		if rec.DestinationInfo == nil {
			rec.DestinationInfo = map[string]string{}
		}
		rec.DestinationInfo[key] = value
	}
	a.doc.NetworkElements[name] = rec

	a.writeLog(ctx, ActionInformationAdded, map[string]interface{}{
		"element_name":  name,
		"element_type":  rec.Type,
		"direction":     direction,
		"info_type":     key,
		"info_value":    value,
		"movement_type": string(rec.MovementType),
	})
	a.Save(ctx)
	return nil
}

// AddNote appends a note to the case. Notes are append-only.
func (a *Analyzer) AddNote(ctx context.Context, content string) error {
	if content == "" {
		return apperrors.Validation("note content is required")
	}

	a.doc.Notes = append(a.doc.Notes, model.Note{
		Timestamp: time.Now().UTC(),
		Content:   content,
	})

	a.writeLog(ctx, ActionNoteAdded, map[string]interface{}{
		"content": content,
	})
	a.Save(ctx)
	return nil
}

// SetStatus changes the case status.
func (a *Analyzer) SetStatus(ctx context.Context, status model.CaseStatus) error {
	if !model.ValidStatus(status) {
		return apperrors.Validation("unknown case status: " + string(status))
	}

	previous := a.doc.Status
	a.doc.Status = status

	a.writeLog(ctx, ActionStatusChanged, map[string]interface{}{
		"previous": string(previous),
		"status":   string(status),
	})
	a.Save(ctx)
	return nil
}

// SetDescription updates the free-text description.
func (a *Analyzer) SetDescription(ctx context.Context, description string) {
	a.doc.Description = description
	a.Save(ctx)
}

// SetInvestigator updates the investigator field.
func (a *Analyzer) SetInvestigator(ctx context.Context, investigator string) {
	a.doc.Investigator = investigator
	a.Save(ctx)
}

// Save persists the case through the backend, stamping last_updated.
// Persistence failures are soft: the backend logs them and Save reports
// false, leaving prior durable state untouched.
func (a *Analyzer) Save(ctx context.Context) bool {
	a.doc.LastUpdated = time.Now().UTC()
	return a.backend.SaveCase(ctx, a.caseID, a.doc)
}

// writeLog appends an audit entry on the analyzer's log channel. The case ID
// rides along in the payload so indexed backends can attribute the entry.
func (a *Analyzer) writeLog(ctx context.Context, action string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["case_id"] = a.caseID
	a.backend.WriteLogEntry(ctx, a.logChannel, storage.NewLogEntry(action, data))
}
