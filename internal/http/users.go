package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gather/internal/user"
	"gather/pkg/domain"
	"gather/pkg/platform/httputil"
)

type createUserRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

func (req createUserRequest) input() user.CreateInput {
	return user.CreateInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Roles:     req.Roles,
	}
}

func (h *handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.svc.Users.Create(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUser(u))
}

func (h *handler) bulkCreateUsers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Users []createUserRequest `json:"users"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	inputs := mapSlice(req.Users, createUserRequest.input)
	users, err := h.svc.Users.BulkCreate(r.Context(), inputs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, page(mapSlice(users, toUser), len(users)))
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	skip, take := pagination(r)
	users, total, err := h.svc.Users.List(r.Context(), skip, take)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page(mapSlice(users, toUser), total))
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.svc.Users.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUser(u))
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req struct {
		FirstName     *string  `json:"firstName"`
		LastName      *string  `json:"lastName"`
		EmailVerified *bool    `json:"emailVerified"`
		Roles         []string `json:"roles"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.svc.Users.Update(r.Context(), id, user.UpdateInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		EmailVerified: req.EmailVerified,
		Roles:         req.Roles,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Users.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
