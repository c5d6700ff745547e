package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/relog-go/internal/infra/buildinfo"
	"github.com/yndnr/relog-go/internal/kvstore"
)

// handleStatus handles GET /admin/v1/status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.statusResponse(h.store.Status()))
}

// handleSnapshot handles POST /admin/v1/snapshot.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Snapshot(r.Context())
	if err != nil {
		h.handleStoreError(w, r, err)
		return
	}
	h.logger.Info("snapshot requested", "generation", st.Generation, "entries", st.Entries)
	h.writeJSON(w, r, http.StatusOK, h.statusResponse(st))
}

func (h *Handler) statusResponse(st kvstore.Status) StatusResponse {
	return StatusResponse{
		Version: buildinfo.Get().Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Store:   st,
	}
}
