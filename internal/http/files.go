package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gather/internal/filemanager"
	"gather/pkg/domain"
	dErrors "gather/pkg/domain-errors"
	"gather/pkg/platform/httputil"
)

func (h *handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(filemanager.MaxUploadSize); err != nil {
		h.fail(w, r, dErrors.New(dErrors.CodeInvalidInput, "malformed multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, dErrors.New(dErrors.CodeInvalidInput, "missing file part"))
		return
	}
	defer file.Close()

	upload, err := h.svc.Files.Upload(r.Context(), filemanager.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUpload(upload))
}

func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	skip, take := pagination(r)
	uploads, total, err := h.svc.Files.List(r.Context(), skip, take)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page(mapSlice(uploads, toUpload), total))
}

func (h *handler) getFile(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseUploadID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	upload, err := h.svc.Files.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUpload(upload))
}

func (h *handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseUploadID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	upload, body, err := h.svc.Files.Open(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer body.Close()

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(upload.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+upload.FileName+`"`)
	_, _ = io.Copy(w, body)
}

func (h *handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseUploadID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Files.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
