package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
)

// handleGet handles GET /v1/kv/{key}.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, ok := h.store.Get(key)
	if !ok {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "key not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(value)))
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

// handlePut handles PUT /v1/kv/{key}.
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, CodeTooLarge, "value too large")
			return
		}
		WriteError(w, r, http.StatusBadRequest, CodeBadBody, "cannot read request body")
		return
	}
	if err := h.store.Put(r.Context(), key, value); err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDelete handles DELETE /v1/kv/{key}. Deleting a missing key succeeds.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if _, err := h.store.Delete(r.Context(), key); err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
