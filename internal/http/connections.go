package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gather/contracts/connector"
	"gather/internal/integration"
	"gather/pkg/domain"
	"gather/pkg/platform/httputil"
)

func (h *handler) createConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		BaseURL  string `json:"baseUrl"`
		DSN      string `json:"dsn"`
		Username string `json:"username"`
		Password string `json:"password"`
		Token    string `json:"token"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := h.svc.Connections.CreateConnection(r.Context(), integration.CreateConnectionInput{
		Name:     req.Name,
		Type:     req.Type,
		BaseURL:  req.BaseURL,
		DSN:      req.DSN,
		Username: req.Username,
		Password: req.Password,
		Token:    req.Token,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toConnection(conn))
}

func (h *handler) listConnections(w http.ResponseWriter, r *http.Request) {
	skip, take := pagination(r)
	conns, total, err := h.svc.Connections.ListConnections(r.Context(), skip, take)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page(mapSlice(conns, toConnection), total))
}

func (h *handler) getConnection(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := h.svc.Connections.GetConnection(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toConnection(conn))
}

func (h *handler) deleteConnection(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Connections.DeleteConnection(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) testConnection(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Connections.TestConnection(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "reachable"})
}

func (h *handler) connectionOverview(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	overview, err := h.svc.Connections.ConnectionOverview(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"connection": toConnection(overview.Connection),
		"schemas":    overview.Schemas,
	})
}

func (h *handler) fetchSchema(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	schema, err := h.svc.Connections.FetchSchema(r.Context(), id,
		connector.SchemaKind(chi.URLParam(r, "kind")),
		chi.URLParam(r, "schemaID"),
	)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, schema)
}

func (h *handler) pushRecords(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseConnectionID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req struct {
		Target  string             `json:"target"`
		Records []connector.Record `json:"records"`
	}
	if err := httputil.Decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.svc.Connections.Push(r.Context(), id, req.Target, req.Records)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
