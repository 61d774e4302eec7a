package model

import "testing"

func TestValidStatus(t *testing.T) {
	tests := []struct {
		status CaseStatus
		valid  bool
	}{
		{StatusActive, true},
		{StatusCompleted, true},
		{StatusOnHold, true},
		{StatusArchived, true},
		{"closed", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidStatus(tt.status); got != tt.valid {
			t.Errorf("ValidStatus(%q) = %v, want %v", tt.status, got, tt.valid)
		}
	}
}

func TestEmptyCaseDocument(t *testing.T) {
	doc := EmptyCaseDocument()

	if !doc.InitialDetection.IsZero() {
		t.Error("skeleton detection is not zero")
	}
	if doc.NetworkElements == nil {
		t.Error("skeleton elements map is nil")
	}
	if doc.PathSequence == nil {
		t.Error("skeleton path is nil")
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("skeleton fails validation: %v", err)
	}
}

func TestCaseDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CaseDocument)
		wantErr bool
	}{
		{
			name:   "consistent document",
			mutate: func(c *CaseDocument) {},
		},
		{
			name: "sequence references unregistered element",
			mutate: func(c *CaseDocument) {
				c.PathSequence = append(c.PathSequence, "Ghost")
			},
			wantErr: true,
		},
		{
			name: "registered element missing from sequence",
			mutate: func(c *CaseDocument) {
				c.NetworkElements["Orphan"] = NewElement("router", "")
			},
			wantErr: true,
		},
		{
			name: "duplicate in sequence",
			mutate: func(c *CaseDocument) {
				c.PathSequence = append(c.PathSequence, "EdgeFW")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := EmptyCaseDocument()
			doc.NetworkElements["EdgeFW"] = NewElement("firewall", "")
			doc.PathSequence = []string{"EdgeFW"}

			tt.mutate(&doc)

			err := doc.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestNewElementDefaults(t *testing.T) {
	rec := NewElement("firewall", "")
	if rec.MovementType != MovementDirect {
		t.Errorf("movement = %q, want direct", rec.MovementType)
	}
	if rec.SourceInfo == nil || rec.DestinationInfo == nil {
		t.Error("info maps not initialized")
	}
	if rec.IsPivot() {
		t.Error("plain element reported as pivot")
	}
}

func TestNewPivotElement(t *testing.T) {
	rec := NewPivotElement("192.168.50.4", "ssh_tunnel", "10.0.0.5")

	if !rec.IsPivot() {
		t.Error("pivot element not recognized as pivot")
	}
	if rec.Type != PivotPointType {
		t.Errorf("type = %q, want %q", rec.Type, PivotPointType)
	}
	if rec.MovementType != MovementLateral {
		t.Errorf("movement = %q, want lateral", rec.MovementType)
	}
	if rec.SourceInfo["original_path"] != "10.0.0.5" {
		t.Errorf("source info = %v", rec.SourceInfo)
	}
	if rec.DestinationInfo["pivot_target"] != "192.168.50.4" {
		t.Errorf("destination info = %v", rec.DestinationInfo)
	}
}
