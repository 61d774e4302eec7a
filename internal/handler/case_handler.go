// Package handler provides HTTP handlers for case management.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tracer-platform/tracer/internal/model"
	"github.com/tracer-platform/tracer/internal/service"
	apperrors "github.com/tracer-platform/tracer/pkg/errors"
)

// CaseHandler handles HTTP requests for case management.
type CaseHandler struct {
	service *service.CaseService
}

// NewCaseHandler creates a new case handler.
func NewCaseHandler(service *service.CaseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// RegisterRoutes registers case management routes.
func (h *CaseHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/cases", h.CreateCase).Methods("POST")
	r.HandleFunc("/cases", h.ListCases).Methods("GET")
	r.HandleFunc("/cases/{id}", h.GetCase).Methods("GET")
	r.HandleFunc("/cases/{id}", h.DeleteCase).Methods("DELETE")
	r.HandleFunc("/cases/{id}/elements", h.AddElement).Methods("POST")
	r.HandleFunc("/cases/{id}/elements/{name}/info", h.RecordElementInfo).Methods("POST")
	r.HandleFunc("/cases/{id}/pivots", h.AddPivot).Methods("POST")
	r.HandleFunc("/cases/{id}/notes", h.AddNote).Methods("POST")
	r.HandleFunc("/cases/{id}/status", h.SetStatus).Methods("PUT")
	r.HandleFunc("/cases/{id}/report", h.GetReport).Methods("GET")
	r.HandleFunc("/cases/{id}/export", h.ExportCase).Methods("GET")
}

// CreateCase creates a new case from an initial detection.
func (h *CaseHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	doc, err := h.service.CreateCase(r.Context(), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"case_id": doc.CaseID,
		"case":    doc,
	})
}

// ListCases returns summaries for all known cases.
func (h *CaseHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	summaries := h.service.ListCases(r.Context())
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"cases": summaries,
	})
}

// GetCase retrieves a case by ID.
func (h *CaseHandler) GetCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := h.service.GetCase(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"case": doc,
	})
}

// DeleteCase routes the reserved delete operation; it reports 501 until the
// capability is implemented.
func (h *CaseHandler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.service.DeleteCase(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddElement inserts a network element into the case path.
func (h *CaseHandler) AddElement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in model.ElementInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	doc, added, err := h.service.AddElement(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"element_name": in.Name,
		"duplicate":    !added,
		"case":         doc,
	})
}

// AddPivot inserts a pivot point into the case path.
func (h *CaseHandler) AddPivot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in model.PivotInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	doc, pivotName, err := h.service.AddPivot(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"element_name": pivotName,
		"case":         doc,
	})
}

// RecordElementInfo adds one annotation to a registered element.
func (h *CaseHandler) RecordElementInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	name := vars["name"]

	var in model.ElementInfoInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	doc, err := h.service.RecordElementInfo(r.Context(), id, name, in)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"element_name": name,
		"case":         doc,
	})
}

// AddNote appends a case note.
func (h *CaseHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in model.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	doc, err := h.service.AddNote(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"case": doc,
	})
}

// SetStatus changes the case status.
func (h *CaseHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in model.StatusInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}

	doc, err := h.service.SetStatus(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"case": doc,
	})
}

// GetReport returns the structured analysis report for a case.
func (h *CaseHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rep, err := h.service.Report(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"report": rep,
	})
}

// ExportCase returns the plain-text case export.
func (h *CaseHandler) ExportCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	text, err := h.service.ExportText(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

// Response helpers

func (h *CaseHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *CaseHandler) respondError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		w.WriteHeader(appErr.HTTPStatus)
		w.Write(appErr.ToJSON())
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	w.Write(apperrors.Internal(err.Error()).ToJSON())
}
