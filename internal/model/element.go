package model

import "time"

// MovementType classifies how traffic reached an element.
type MovementType string

const (
	MovementDirect  MovementType = "direct"
	MovementLateral MovementType = "lateral"
	MovementPivot   MovementType = "pivot"
)

// PivotPointType is the sentinel element type for lateral-movement nodes.
// Pivot elements carry PivotIP/PivotMethod; ordinary elements never do.
const PivotPointType = "pivot_point"

// ElementRecord is one node on the traversal path.
type ElementRecord struct {
	Type            string            `json:"type"`
	MovementType    MovementType      `json:"movement_type"`
	SourceInfo      map[string]string `json:"source_info"`
	DestinationInfo map[string]string `json:"destination_info"`
	PivotIP         string            `json:"pivot_ip,omitempty"`
	PivotMethod     string            `json:"pivot_method,omitempty"`
	AddedTimestamp  time.Time         `json:"added_timestamp,omitempty"`
}

// NewElement builds an ordinary device element.
func NewElement(elementType string, movement MovementType) ElementRecord {
	if movement == "" {
		movement = MovementDirect
	}
	return ElementRecord{
		Type:            elementType,
		MovementType:    movement,
		SourceInfo:      map[string]string{},
		DestinationInfo: map[string]string{},
		AddedTimestamp:  time.Now().UTC(),
	}
}

// NewPivotElement builds the pivot variant. originalPath is the case source
// IP, recorded so the report can show where the attacker diverged.
func NewPivotElement(ip, method, originalPath string) ElementRecord {
	return ElementRecord{
		Type:            PivotPointType,
		MovementType:    MovementLateral,
		SourceInfo:      map[string]string{"original_path": originalPath},
		DestinationInfo: map[string]string{"pivot_target": ip},
		PivotIP:         ip,
		PivotMethod:     method,
		AddedTimestamp:  time.Now().UTC(),
	}
}

// IsPivot reports whether the element is a pivot point.
func (e ElementRecord) IsPivot() bool {
	return e.Type == PivotPointType
}
