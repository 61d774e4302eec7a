// Package service provides business logic for path-tracing cases.
package service

import (
	"context"

	"github.com/tracer-platform/tracer/internal/model"
	"github.com/tracer-platform/tracer/internal/report"
	"github.com/tracer-platform/tracer/internal/storage"
	"github.com/tracer-platform/tracer/internal/tracer"
	apperrors "github.com/tracer-platform/tracer/pkg/errors"
)

// CaseService orchestrates case lifecycle operations between the analyzer
// and a storage backend. The backend is injected once at construction; the
// service never inspects global state to pick one.
type CaseService struct {
	backend storage.Backend
}

// NewCaseService creates a new case service over the given backend.
func NewCaseService(backend storage.Backend) *CaseService {
	return &CaseService{backend: backend}
}

// CreateCase starts a new case from an initial detection and optional
// initial elements.
func (s *CaseService) CreateCase(ctx context.Context, req *model.CreateCaseRequest) (model.CaseDocument, error) {
	a := tracer.New(ctx, s.backend)

	if err := a.SetInitialDetection(ctx, req.InitialDetection); err != nil {
		return model.CaseDocument{}, err
	}
	if req.Description != "" {
		a.SetDescription(ctx, req.Description)
	}
	if req.Investigator != "" {
		a.SetInvestigator(ctx, req.Investigator)
	}

	for _, in := range req.Elements {
		rec := newRecord(in)
		if _, err := a.AddElement(ctx, in.Name, rec, in.Point); err != nil {
			return model.CaseDocument{}, err
		}
	}

	return a.Document(), nil
}

// GetCase returns the document for an existing case.
func (s *CaseService) GetCase(ctx context.Context, caseID string) (model.CaseDocument, error) {
	if !s.backend.CaseExists(ctx, caseID) {
		return model.CaseDocument{}, apperrors.NotFound("case")
	}
	return s.backend.LoadCase(ctx, caseID), nil
}

// ListCases returns summaries for every known case.
func (s *CaseService) ListCases(ctx context.Context) []model.CaseSummary {
	ids := s.backend.ListCases(ctx)
	summaries := make([]model.CaseSummary, 0, len(ids))

	for _, id := range ids {
		doc := s.backend.LoadCase(ctx, id)
		summaries = append(summaries, model.CaseSummary{
			CaseID:        id,
			Timestamp:     doc.Timestamp,
			ThreatType:    doc.InitialDetection.ThreatType,
			SourceIP:      doc.InitialDetection.SourceIP,
			DestinationIP: doc.InitialDetection.DestinationIP,
			Status:        doc.Status,
			ElementCount:  len(doc.NetworkElements),
		})
	}
	return summaries
}

// AddElement inserts a network element into an existing case's path. The
// returned flag reports whether the element was actually added; false means
// the name was already registered and the insert was skipped.
func (s *CaseService) AddElement(ctx context.Context, caseID string, in model.ElementInput) (model.CaseDocument, bool, error) {
	a, err := s.loadExisting(ctx, caseID)
	if err != nil {
		return model.CaseDocument{}, false, err
	}

	added, err := a.AddElement(ctx, in.Name, newRecord(in), in.Point)
	if err != nil {
		return model.CaseDocument{}, false, err
	}
	return a.Document(), added, nil
}

// AddPivot inserts a pivot point into an existing case's path and returns
// the registered pivot name.
func (s *CaseService) AddPivot(ctx context.Context, caseID string, in model.PivotInput) (model.CaseDocument, string, error) {
	a, err := s.loadExisting(ctx, caseID)
	if err != nil {
		return model.CaseDocument{}, "", err
	}

	pivotName, err := a.AddPivotPoint(ctx, in.Name, in.IP, in.Method, in.Position)
	if err != nil {
		return model.CaseDocument{}, "", err
	}
	return a.Document(), pivotName, nil
}

// RecordElementInfo adds one annotation to a registered element.
func (s *CaseService) RecordElementInfo(ctx context.Context, caseID, elementName string, in model.ElementInfoInput) (model.CaseDocument, error) {
	a, err := s.loadExisting(ctx, caseID)
	if err != nil {
		return model.CaseDocument{}, err
	}

	if err := a.RecordElementInfo(ctx, elementName, in.Direction, in.Key, in.Value); err != nil {
		return model.CaseDocument{}, err
	}
	return a.Document(), nil
}

// AddNote appends a note to an existing case.
func (s *CaseService) AddNote(ctx context.Context, caseID string, in model.NoteInput) (model.CaseDocument, error) {
	a, err := s.loadExisting(ctx, caseID)
	if err != nil {
		return model.CaseDocument{}, err
	}

	if err := a.AddNote(ctx, in.Content); err != nil {
		return model.CaseDocument{}, err
	}
	return a.Document(), nil
}

// SetStatus changes the status of an existing case.
func (s *CaseService) SetStatus(ctx context.Context, caseID string, in model.StatusInput) (model.CaseDocument, error) {
	a, err := s.loadExisting(ctx, caseID)
	if err != nil {
		return model.CaseDocument{}, err
	}

	if err := a.SetStatus(ctx, in.Status); err != nil {
		return model.CaseDocument{}, err
	}
	return a.Document(), nil
}

// Report builds the structured analysis report for an existing case.
func (s *CaseService) Report(ctx context.Context, caseID string) (report.Report, error) {
	doc, err := s.GetCase(ctx, caseID)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(caseID, doc), nil
}

// ExportText renders the human-readable case export.
func (s *CaseService) ExportText(ctx context.Context, caseID string) (string, error) {
	doc, err := s.GetCase(ctx, caseID)
	if err != nil {
		return "", err
	}
	return report.RenderText(caseID, doc), nil
}

// DeleteCase is a recognized but intentionally unimplemented operation. It
// reports a distinct not-implemented condition so callers cannot mistake it
// for success.
func (s *CaseService) DeleteCase(ctx context.Context, caseID string) error {
	if !s.backend.CaseExists(ctx, caseID) {
		return apperrors.NotFound("case")
	}
	return apperrors.NotImplemented("case deletion")
}

func (s *CaseService) loadExisting(ctx context.Context, caseID string) (*tracer.Analyzer, error) {
	if !s.backend.CaseExists(ctx, caseID) {
		return nil, apperrors.NotFound("case")
	}
	return tracer.Load(ctx, s.backend, caseID), nil
}

func newRecord(in model.ElementInput) model.ElementRecord {
	rec := model.NewElement(in.Type, in.MovementType)
	for k, v := range in.SourceInfo {
		rec.SourceInfo[k] = v
	}
	for k, v := range in.DestinationInfo {
		rec.DestinationInfo[k] = v
	}
	return rec
}
