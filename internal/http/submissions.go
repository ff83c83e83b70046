package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gather/internal/collector"
	"gather/pkg/domain"
	"gather/pkg/platform/httputil"
)

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkflowID string          `json:"workflowId"`
		Payload    json.RawMessage `json:"payload"`
		Language   string          `json:"language"`
		Mode       string          `json:"mode"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	workflowID, err := domain.ParseWorkflowID(req.WorkflowID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sub, err := h.svc.Collector.Submit(r.Context(), collector.SubmitInput{
		WorkflowID: workflowID,
		Payload:    req.Payload,
		Language:   req.Language,
		Mode:       req.Mode,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSubmission(sub))
}

func (h *handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	var workflowID *domain.WorkflowID
	if raw := r.URL.Query().Get("workflowId"); raw != "" {
		id, err := domain.ParseWorkflowID(raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		workflowID = &id
	}

	skip, take := pagination(r)
	subs, total, err := h.svc.Collector.List(r.Context(), workflowID, skip, take)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page(mapSlice(subs, toSubmission), total))
}

func (h *handler) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseSubmissionID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sub, err := h.svc.Collector.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSubmission(sub))
}

func (h *handler) markSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs    []string `json:"ids"`
		Status string   `json:"status"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ids, err := parseSubmissionIDs(req.IDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Collector.MarkStatus(r.Context(), ids, req.Status); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) discardSubmissions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ids, err := parseSubmissionIDs(req.IDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Collector.Discard(r.Context(), ids); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseSubmissionIDs(raw []string) ([]domain.SubmissionID, error) {
	ids := make([]domain.SubmissionID, 0, len(raw))
	for _, s := range raw {
		id, err := domain.ParseSubmissionID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
