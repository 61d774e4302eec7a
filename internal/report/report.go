// Package report renders case analysis reports.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tracer-platform/tracer/internal/model"
)

// AnalysisSummary counts traversal kinds along the path.
type AnalysisSummary struct {
	DirectTraversals int `json:"direct_traversals"`
	LateralMovements int `json:"lateral_movements"`
	PivotPoints      int `json:"pivot_points"`
}

// Report is the structured analysis view of one case.
type Report struct {
	CaseID                  string                         `json:"case_id"`
	ThreatType              string                         `json:"threat_type,omitempty"`
	Timestamp               time.Time                      `json:"timestamp,omitempty"`
	Status                  model.CaseStatus               `json:"status,omitempty"`
	NetworkElementsAnalyzed int                            `json:"network_elements_analyzed"`
	SourceIP                string                         `json:"source_ip,omitempty"`
	DestinationIP           string                         `json:"destination_ip,omitempty"`
	PathSequence            []string                       `json:"path_sequence"`
	NetworkElements         map[string]model.ElementRecord `json:"network_elements"`
	AnalysisSummary         AnalysisSummary                `json:"analysis_summary"`
}

// Build assembles the report for a case document.
func Build(caseID string, doc model.CaseDocument) Report {
	return Report{
		CaseID:                  caseID,
		ThreatType:              doc.InitialDetection.ThreatType,
		Timestamp:               doc.Timestamp,
		Status:                  doc.Status,
		NetworkElementsAnalyzed: len(doc.NetworkElements),
		SourceIP:                doc.InitialDetection.SourceIP,
		DestinationIP:           doc.InitialDetection.DestinationIP,
		PathSequence:            doc.PathSequence,
		NetworkElements:         doc.NetworkElements,
		AnalysisSummary:         Summarize(doc),
	}
}

// Summarize counts direct traversals, lateral movements, and pivot points.
func Summarize(doc model.CaseDocument) AnalysisSummary {
	var s AnalysisSummary
	for _, rec := range doc.NetworkElements {
		switch {
		case rec.IsPivot():
			s.PivotPoints++
			s.LateralMovements++
		case rec.MovementType == model.MovementLateral:
			s.LateralMovements++
		default:
			s.DirectTraversals++
		}
	}
	return s
}

// RenderText produces the human-readable case export: header, the ordered
// path from source to destination, and the analysis summary.
func RenderText(caseID string, doc model.CaseDocument) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "%s\nCASE EXPORT: %s\n%s\n", rule, caseID, rule)

	d := doc.InitialDetection
	fmt.Fprintf(&b, "Threat: %s\n", orUnknown(d.ThreatType))
	fmt.Fprintf(&b, "Source: %s\n", orUnknown(d.SourceIP))
	fmt.Fprintf(&b, "Destination: %s\n", orUnknown(d.DestinationIP))
	if doc.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", doc.Status)
	}
	if doc.Investigator != "" {
		fmt.Fprintf(&b, "Investigator: %s\n", doc.Investigator)
	}

	if len(doc.PathSequence) > 0 {
		fmt.Fprintf(&b, "\n--- NETWORK PATH ---\n")
		fmt.Fprintf(&b, "SOURCE: %s\n", orUnknown(d.SourceIP))

		for _, name := range doc.PathSequence {
			rec := doc.NetworkElements[name]
			fmt.Fprintf(&b, "    |\n")

			if rec.IsPivot() {
				fmt.Fprintf(&b, "  **PIVOT** %s\n", name)
				fmt.Fprintf(&b, "    Method: %s\n", orUnknown(rec.PivotMethod))
				fmt.Fprintf(&b, "    Target: %s\n", orUnknown(rec.PivotIP))
			} else {
				fmt.Fprintf(&b, "  %s (%s) - %s\n",
					name, strings.ToUpper(orUnknown(rec.Type)), movementLabel(rec.MovementType))
			}

			writeInfo(&b, "Source Info", rec.SourceInfo)
			writeInfo(&b, "Destination Info", rec.DestinationInfo)
		}

		fmt.Fprintf(&b, "    |\n")
		fmt.Fprintf(&b, "DESTINATION: %s\n", orUnknown(d.DestinationIP))
	} else {
		fmt.Fprintf(&b, "\nNo network path recorded for this case.\n")
	}

	s := Summarize(doc)
	fmt.Fprintf(&b, "\n--- ANALYSIS SUMMARY ---\n")
	fmt.Fprintf(&b, "Total Network Elements: %d\n", len(doc.NetworkElements))
	fmt.Fprintf(&b, "Direct Traversals: %d\n", s.DirectTraversals)
	fmt.Fprintf(&b, "Lateral Movements: %d\n", s.LateralMovements)
	fmt.Fprintf(&b, "Pivot Points: %d\n", s.PivotPoints)

	if len(doc.Notes) > 0 {
		fmt.Fprintf(&b, "\n--- NOTES ---\n")
		for _, n := range doc.Notes {
			fmt.Fprintf(&b, "[%s] %s\n", n.Timestamp.Format(time.RFC3339), n.Content)
		}
	}

	return b.String()
}

func writeInfo(b *strings.Builder, label string, info map[string]string) {
	if len(info) == 0 {
		return
	}
	fmt.Fprintf(b, "    %s:\n", label)
	for _, k := range sortedKeys(info) {
		fmt.Fprintf(b, "      - %s: %s\n", k, info[k])
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func movementLabel(m model.MovementType) string {
	switch m {
	case model.MovementLateral:
		return "Lateral Movement"
	case model.MovementPivot:
		return "Pivot"
	default:
		return "Direct Traversal"
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
