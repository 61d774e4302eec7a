package service

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tracer-platform/tracer/internal/model"
	"github.com/tracer-platform/tracer/internal/storage"
	apperrors "github.com/tracer-platform/tracer/pkg/errors"
)

func newTestService(t *testing.T) *CaseService {
	t.Helper()
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "db.json"))
	if err := store.InitializeDatabase(context.Background()); err != nil {
		t.Fatalf("initialize backend: %v", err)
	}
	return NewCaseService(store)
}

func createRequest() *model.CreateCaseRequest {
	return &model.CreateCaseRequest{
		InitialDetection: model.InitialDetection{
			ThreatType:    "malware_callback",
			SourceIP:      "10.0.0.5",
			DestinationIP: "203.0.113.9",
		},
		Description:  "beaconing to known C2",
		Investigator: "n.okafor",
	}
}

func TestCreateCase(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	doc, err := svc.CreateCase(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	if doc.CaseID == "" {
		t.Fatal("created case has no ID")
	}
	if doc.Status != model.StatusActive {
		t.Errorf("status = %q, want active", doc.Status)
	}
	if doc.Description != "beaconing to known C2" {
		t.Errorf("description = %q", doc.Description)
	}

	// The case must be durable, not just in memory.
	got, err := svc.GetCase(ctx, doc.CaseID)
	if err != nil {
		t.Fatalf("GetCase after create: %v", err)
	}
	if got.InitialDetection.ThreatType != "malware_callback" {
		t.Errorf("persisted threat type = %q", got.InitialDetection.ThreatType)
	}
}

func TestCreateCaseWithInitialElements(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	req := createRequest()
	req.Elements = []model.ElementInput{
		{Name: "EdgeFW", Type: "firewall"},
		{Name: "CoreRouter", Type: "router"},
	}

	doc, err := svc.CreateCase(ctx, req)
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	if len(doc.PathSequence) != 2 || doc.PathSequence[0] != "EdgeFW" {
		t.Errorf("path = %v", doc.PathSequence)
	}
}

func TestCreateCaseRequiresDetection(t *testing.T) {
	_, err := newTestService(t).CreateCase(context.Background(), &model.CreateCaseRequest{})
	if !apperrors.Is(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestGetCaseUnknown(t *testing.T) {
	_, err := newTestService(t).GetCase(context.Background(), "CASE_NOPE")
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestListCases(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if got := svc.ListCases(ctx); len(got) != 0 {
		t.Errorf("ListCases on empty store = %v", got)
	}

	doc, err := svc.CreateCase(ctx, createRequest())
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}

	summaries := svc.ListCases(ctx)
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	s := summaries[0]
	if s.CaseID != doc.CaseID {
		t.Errorf("summary id = %q, want %q", s.CaseID, doc.CaseID)
	}
	if s.ThreatType != "malware_callback" {
		t.Errorf("summary threat = %q", s.ThreatType)
	}
}

func TestAddElementReportsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	doc, _ := svc.CreateCase(ctx, createRequest())

	_, added, err := svc.AddElement(ctx, doc.CaseID, model.ElementInput{Name: "EdgeFW", Type: "firewall"})
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}

	got, added, err := svc.AddElement(ctx, doc.CaseID, model.ElementInput{Name: "EdgeFW", Type: "router"})
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if added {
		t.Error("duplicate add reported added=true")
	}
	if len(got.PathSequence) != 1 {
		t.Errorf("path = %v after duplicate", got.PathSequence)
	}
}

func TestAddElementUnknownCase(t *testing.T) {
	_, _, err := newTestService(t).AddElement(context.Background(), "CASE_NOPE",
		model.ElementInput{Name: "EdgeFW", Type: "firewall"})
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestAddPivot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	doc, _ := svc.CreateCase(ctx, createRequest())

	got, pivotName, err := svc.AddPivot(ctx, doc.CaseID, model.PivotInput{
		Name:   "Jump",
		IP:     "192.168.50.4",
		Method: "ssh_tunnel",
	})
	if err != nil {
		t.Fatalf("AddPivot: %v", err)
	}
	if pivotName != "PIVOT_Jump" {
		t.Errorf("pivot name = %q", pivotName)
	}
	if !got.NetworkElements[pivotName].IsPivot() {
		t.Error("pivot not registered as pivot")
	}
}

func TestRecordElementInfoAndNotes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	doc, _ := svc.CreateCase(ctx, createRequest())
	svc.AddElement(ctx, doc.CaseID, model.ElementInput{Name: "EdgeFW", Type: "firewall"})

	got, err := svc.RecordElementInfo(ctx, doc.CaseID, "EdgeFW", model.ElementInfoInput{
		Direction: "source", Key: "interface", Value: "eth0",
	})
	if err != nil {
		t.Fatalf("RecordElementInfo: %v", err)
	}
	if got.NetworkElements["EdgeFW"].SourceInfo["interface"] != "eth0" {
		t.Errorf("source info = %v", got.NetworkElements["EdgeFW"].SourceInfo)
	}

	_, err = svc.RecordElementInfo(ctx, doc.CaseID, "Ghost", model.ElementInfoInput{
		Direction: "source", Key: "k", Value: "v",
	})
	if !apperrors.Is(err, apperrors.CodeInvalidReference) {
		t.Errorf("expected INVALID_REFERENCE, got %v", err)
	}

	got, err = svc.AddNote(ctx, doc.CaseID, model.NoteInput{Content: "escalated to IR"})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if len(got.Notes) != 1 || got.Notes[0].Content != "escalated to IR" {
		t.Errorf("notes = %v", got.Notes)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	doc, _ := svc.CreateCase(ctx, createRequest())

	got, err := svc.SetStatus(ctx, doc.CaseID, model.StatusInput{Status: model.StatusOnHold})
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Status != model.StatusOnHold {
		t.Errorf("status = %q", got.Status)
	}

	_, err = svc.SetStatus(ctx, doc.CaseID, model.StatusInput{Status: "bogus"})
	if !apperrors.Is(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestReportAndExport(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	doc, _ := svc.CreateCase(ctx, createRequest())
	svc.AddElement(ctx, doc.CaseID, model.ElementInput{Name: "EdgeFW", Type: "firewall"})
	svc.AddPivot(ctx, doc.CaseID, model.PivotInput{Name: "Jump", IP: "192.168.50.4", Method: "ssh_tunnel"})

	rep, err := svc.Report(ctx, doc.CaseID)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.AnalysisSummary.PivotPoints != 1 || rep.AnalysisSummary.DirectTraversals != 1 {
		t.Errorf("summary = %+v", rep.AnalysisSummary)
	}

	text, err := svc.ExportText(ctx, doc.CaseID)
	if err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	if !strings.Contains(text, "CASE EXPORT: "+doc.CaseID) {
		t.Errorf("export missing header:\n%s", text)
	}
}

func TestDeleteCase(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	doc, _ := svc.CreateCase(ctx, createRequest())

	if err := svc.DeleteCase(ctx, "CASE_NOPE"); !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for unknown case, got %v", err)
	}
	if err := svc.DeleteCase(ctx, doc.CaseID); !apperrors.Is(err, apperrors.CodeNotImplemented) {
		t.Errorf("expected NOT_IMPLEMENTED, got %v", err)
	}

	// The case must survive the rejected delete.
	if _, err := svc.GetCase(ctx, doc.CaseID); err != nil {
		t.Errorf("case lost after rejected delete: %v", err)
	}
}
