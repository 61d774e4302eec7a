// Package model provides data models for investigation cases.
package model

import (
	"fmt"
	"time"
)

// CaseStatus represents case status values.
type CaseStatus string

const (
	StatusActive    CaseStatus = "active"
	StatusCompleted CaseStatus = "completed"
	StatusOnHold    CaseStatus = "on_hold"
	StatusArchived  CaseStatus = "archived"
)

// ValidStatus reports whether s is a recognized case status.
func ValidStatus(s CaseStatus) bool {
	switch s {
	case StatusActive, StatusCompleted, StatusOnHold, StatusArchived:
		return true
	}
	return false
}

// InitialDetection holds the detection metadata that anchors a case. It is
// required before a case is considered started and is immutable afterwards.
type InitialDetection struct {
	ThreatType    string `json:"threat_type,omitempty"`
	SourceIP      string `json:"source_ip,omitempty"`
	DestinationIP string `json:"destination_ip,omitempty"`
}

// IsZero reports whether no detection has been recorded yet.
func (d InitialDetection) IsZero() bool {
	return d.ThreatType == "" && d.SourceIP == "" && d.DestinationIP == ""
}

// Note is a single append-only case note.
type Note struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// CaseDocument is the persisted shape of one case. The ordering of
// PathSequence is authoritative: index 0 is closest to the source IP, the
// last index is closest to the destination IP.
type CaseDocument struct {
	CaseID           string                   `json:"case_id,omitempty"`
	Timestamp        time.Time                `json:"timestamp,omitempty"`
	InitialDetection InitialDetection         `json:"initial_detection"`
	Status           CaseStatus               `json:"status,omitempty"`
	Description      string                   `json:"description,omitempty"`
	Investigator     string                   `json:"investigator,omitempty"`
	Notes            []Note                   `json:"notes,omitempty"`
	NetworkElements  map[string]ElementRecord `json:"network_elements"`
	PathSequence     []string                 `json:"path_sequence"`
	LastUpdated      time.Time                `json:"last_updated,omitempty"`
}

// EmptyCaseDocument returns the well-formed empty skeleton that storage
// backends hand back for unknown case IDs. Absence is indistinguishable from
// "nothing recorded yet" at the storage layer.
func EmptyCaseDocument() CaseDocument {
	return CaseDocument{
		InitialDetection: InitialDetection{},
		NetworkElements:  map[string]ElementRecord{},
		PathSequence:     []string{},
	}
}

// Validate checks the structural invariants of a case document: every name in
// the path sequence is registered, every registered element is on the path,
// and the sequence contains no duplicates.
func (c *CaseDocument) Validate() error {
	seen := make(map[string]bool, len(c.PathSequence))
	for _, name := range c.PathSequence {
		if seen[name] {
			return fmt.Errorf("duplicate element %q in path sequence", name)
		}
		seen[name] = true
		if _, ok := c.NetworkElements[name]; !ok {
			return fmt.Errorf("path sequence references unregistered element %q", name)
		}
	}
	for name := range c.NetworkElements {
		if !seen[name] {
			return fmt.Errorf("registered element %q is not on the path", name)
		}
	}
	return nil
}

// CaseSummary is the listing view of a case.
type CaseSummary struct {
	CaseID        string     `json:"case_id"`
	Timestamp     time.Time  `json:"timestamp,omitempty"`
	ThreatType    string     `json:"threat_type,omitempty"`
	SourceIP      string     `json:"source_ip,omitempty"`
	DestinationIP string     `json:"destination_ip,omitempty"`
	Status        CaseStatus `json:"status,omitempty"`
	ElementCount  int        `json:"element_count"`
}

// CreateCaseRequest represents a request to create a new case.
type CreateCaseRequest struct {
	InitialDetection InitialDetection `json:"initial_detection"`
	Description      string           `json:"description,omitempty"`
	Investigator     string           `json:"investigator,omitempty"`
	Elements         []ElementInput   `json:"network_elements,omitempty"`
}

// ElementInput represents a request to add a network element to a case.
type ElementInput struct {
	Name            string            `json:"name"`
	Type            string            `json:"element_type"`
	MovementType    MovementType      `json:"movement_type,omitempty"`
	SourceInfo      map[string]string `json:"source_info,omitempty"`
	DestinationInfo map[string]string `json:"destination_info,omitempty"`
	// Point is the 1-based insertion point. Zero means append at the end.
	Point int `json:"point,omitempty"`
}

// PivotInput represents a request to add a pivot point to a case.
type PivotInput struct {
	Name   string `json:"name"`
	IP     string `json:"ip"`
	Method string `json:"method"`
	// Position is kept as free text: an out-of-range or non-numeric value
	// falls back to appending at the end of the path.
	Position string `json:"position,omitempty"`
}

// ElementInfoInput represents a request to record an annotation on an element.
type ElementInfoInput struct {
	Direction string `json:"direction"` // source or destination
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// NoteInput represents a request to append a case note.
type NoteInput struct {
	Content string `json:"content"`
}

// StatusInput represents a request to change case status.
type StatusInput struct {
	Status CaseStatus `json:"status"`
}
