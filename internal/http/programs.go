package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gather/internal/program"
	"gather/pkg/domain"
	"gather/pkg/platform/httputil"
)

func (h *handler) createProgram(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.svc.Programs.Create(r.Context(), program.CreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toProgram(p))
}

func (h *handler) listPrograms(w http.ResponseWriter, r *http.Request) {
	skip, take := pagination(r)
	programs, total, err := h.svc.Programs.List(r.Context(), skip, take)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page(mapSlice(programs, toProgram), total))
}

func (h *handler) getProgram(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProgramID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.svc.Programs.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProgram(p))
}

func (h *handler) updateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProgramID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.svc.Programs.Update(r.Context(), id, program.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProgramID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Programs.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) assignProgramUsers(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProgramID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req struct {
		UserIDs []string `json:"userIds"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	userIDs := make([]domain.UserID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		userID, err := domain.ParseUserID(raw)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		userIDs = append(userIDs, userID)
	}

	assignments, err := h.svc.Programs.AssignUsers(r.Context(), id, userIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page(mapSlice(assignments, toAssignment), len(assignments)))
}

func (h *handler) listProgramUsers(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProgramID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	assignments, err := h.svc.Programs.Assignments(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page(mapSlice(assignments, toAssignment), len(assignments)))
}
