package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gather/internal/workflow"
	"gather/pkg/domain"
	"gather/pkg/platform/httputil"
)

type fieldRequest struct {
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
	Position int      `json:"position"`
}

func (req fieldRequest) input() workflow.FieldInput {
	return workflow.FieldInput{
		Label:    req.Label,
		Type:     req.Type,
		Required: req.Required,
		Options:  req.Options,
		Position: req.Position,
	}
}

type mappingRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (req mappingRequest) input() workflow.MappingInput {
	return workflow.MappingInput{Source: req.Source, Target: req.Target}
}

type configurationRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (req configurationRequest) input() workflow.ConfigurationInput {
	return workflow.ConfigurationInput{Key: req.Key, Value: req.Value}
}

func (h *handler) createWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProgramID      string                 `json:"programId"`
		Name           string                 `json:"name"`
		Languages      []string               `json:"languages"`
		Modes          []string               `json:"modes"`
		Fields         []fieldRequest         `json:"fields"`
		Mappings       []mappingRequest       `json:"mappings"`
		Configurations []configurationRequest `json:"configurations"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	programID, err := domain.ParseProgramID(req.ProgramID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.svc.Workflows.Create(r.Context(), workflow.CreateInput{
		ProgramID:      programID,
		Name:           req.Name,
		Languages:      req.Languages,
		Modes:          req.Modes,
		Fields:         mapSlice(req.Fields, fieldRequest.input),
		Mappings:       mapSlice(req.Mappings, mappingRequest.input),
		Configurations: mapSlice(req.Configurations, configurationRequest.input),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toWorkflowDetail(detail))
}

func (h *handler) listWorkflows(w http.ResponseWriter, r *http.Request) {
	var programID *domain.ProgramID
	if raw := r.URL.Query().Get("programId"); raw != "" {
		id, err := domain.ParseProgramID(raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		programID = &id
	}

	skip, take := pagination(r)
	workflows, total, err := h.svc.Workflows.List(r.Context(), programID, skip, take)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page(mapSlice(workflows, toWorkflow), total))
}

func (h *handler) getWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseWorkflowID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.svc.Workflows.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkflowDetail(detail))
}

func (h *handler) upsertWorkflowChildren(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseWorkflowID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req struct {
		Fields         []fieldRequest         `json:"fields"`
		Mappings       []mappingRequest       `json:"mappings"`
		Configurations []configurationRequest `json:"configurations"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.svc.Workflows.UpsertChildren(r.Context(), id,
		mapSlice(req.Fields, fieldRequest.input),
		mapSlice(req.Mappings, mappingRequest.input),
		mapSlice(req.Configurations, configurationRequest.input),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkflowDetail(detail))
}

func (h *handler) setWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseWorkflowID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.svc.Workflows.SetStatus(r.Context(), id, req.Status); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseWorkflowID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Workflows.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
