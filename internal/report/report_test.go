package report

import (
	"strings"
	"testing"
	"time"

	"github.com/tracer-platform/tracer/internal/model"
)

func tracedCase() model.CaseDocument {
	doc := model.EmptyCaseDocument()
	doc.InitialDetection = model.InitialDetection{
		ThreatType:    "data_exfiltration",
		SourceIP:      "10.0.0.5",
		DestinationIP: "203.0.113.9",
	}
	doc.Status = model.StatusActive
	doc.Investigator = "n.okafor"

	doc.NetworkElements["EdgeFW"] = model.NewElement("firewall", "")
	doc.NetworkElements["CoreSwitch"] = model.NewElement("switch", model.MovementLateral)
	doc.NetworkElements["PIVOT_Jump"] = model.NewPivotElement("192.168.50.4", "ssh_tunnel", "10.0.0.5")
	doc.PathSequence = []string{"EdgeFW", "PIVOT_Jump", "CoreSwitch"}

	doc.Notes = []model.Note{{
		Timestamp: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		Content:   "confirmed exfil over dns",
	}}
	return doc
}

func TestSummarize(t *testing.T) {
	s := Summarize(tracedCase())

	if s.DirectTraversals != 1 {
		t.Errorf("direct = %d, want 1", s.DirectTraversals)
	}
	// A pivot counts as both a pivot point and a lateral movement.
	if s.LateralMovements != 2 {
		t.Errorf("lateral = %d, want 2", s.LateralMovements)
	}
	if s.PivotPoints != 1 {
		t.Errorf("pivots = %d, want 1", s.PivotPoints)
	}
}

func TestBuild(t *testing.T) {
	doc := tracedCase()
	rep := Build("CASE_X", doc)

	if rep.CaseID != "CASE_X" {
		t.Errorf("case id = %q", rep.CaseID)
	}
	if rep.ThreatType != "data_exfiltration" {
		t.Errorf("threat type = %q", rep.ThreatType)
	}
	if rep.NetworkElementsAnalyzed != 3 {
		t.Errorf("elements analyzed = %d, want 3", rep.NetworkElementsAnalyzed)
	}
	if len(rep.PathSequence) != 3 {
		t.Errorf("path = %v", rep.PathSequence)
	}
}

func TestRenderText(t *testing.T) {
	out := RenderText("CASE_X", tracedCase())

	for _, want := range []string{
		"CASE EXPORT: CASE_X",
		"Threat: data_exfiltration",
		"SOURCE: 10.0.0.5",
		"DESTINATION: 203.0.113.9",
		"**PIVOT** PIVOT_Jump",
		"Method: ssh_tunnel",
		"Target: 192.168.50.4",
		"EdgeFW (FIREWALL) - Direct Traversal",
		"CoreSwitch (SWITCH) - Lateral Movement",
		"Direct Traversals: 1",
		"Lateral Movements: 2",
		"Pivot Points: 1",
		"confirmed exfil over dns",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q\n%s", want, out)
		}
	}

	// Path entries must render in sequence order.
	if strings.Index(out, "EdgeFW") > strings.Index(out, "**PIVOT**") {
		t.Error("path entries rendered out of order")
	}
}

func TestRenderTextEmptyPath(t *testing.T) {
	doc := model.EmptyCaseDocument()
	doc.InitialDetection = model.InitialDetection{
		ThreatType:    "malware_callback",
		SourceIP:      "10.0.0.5",
		DestinationIP: "203.0.113.9",
	}

	out := RenderText("CASE_Y", doc)
	if !strings.Contains(out, "No network path recorded") {
		t.Errorf("empty-path export missing placeholder\n%s", out)
	}
}
