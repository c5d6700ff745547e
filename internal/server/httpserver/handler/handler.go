package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/relog-go/internal/kvstore"
	"github.com/yndnr/relog-go/internal/telemetry/logger"
)

// Store is the subset of *kvstore.Store the handlers use.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) (bool, error)
	Snapshot(ctx context.Context) (kvstore.Status, error)
	Status() kvstore.Status
}

// Handler serves the API.
type Handler struct {
	store   Store
	logger  *slog.Logger
	maxBody int64
	started time.Time
	mux     *http.ServeMux
}

// New creates a Handler. maxBody caps PUT bodies; zero means the store's
// value limit.
func New(store Store, log *slog.Logger, maxBody int64) *Handler {
	if maxBody <= 0 {
		maxBody = kvstore.MaxValueSize
	}
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		store:   store,
		logger:  log,
		maxBody: maxBody,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)

	// Keys may contain slashes.
	h.mux.HandleFunc("GET /v1/kv/{key...}", h.handleGet)
	h.mux.HandleFunc("PUT /v1/kv/{key...}", h.handlePut)
	h.mux.HandleFunc("DELETE /v1/kv/{key...}", h.handleDelete)

	h.mux.HandleFunc("GET /admin/v1/status", h.handleStatus)
	h.mux.HandleFunc("POST /admin/v1/snapshot", h.handleSnapshot)
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	response := NewResponse(logger.RequestIDFromContext(r.Context()), data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes an error response with the standard envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	response := NewErrorResponse(logger.RequestIDFromContext(r.Context()), code, message, nil)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// handleStoreError converts store errors to HTTP responses.
func (h *Handler) handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, kvstore.ErrEmptyKey), errors.Is(err, kvstore.ErrKeyTooLarge):
		WriteError(w, r, http.StatusBadRequest, CodeBadKey, err.Error())
	case errors.Is(err, kvstore.ErrValueTooLarge):
		WriteError(w, r, http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error())
	case errors.Is(err, kvstore.ErrClosed):
		WriteError(w, r, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	case errors.Is(err, context.Canceled):
		WriteError(w, r, 499, CodeCanceled, "request canceled")
	default:
		logger.FromContext(r.Context()).Error("store error", "path", r.URL.Path, "error", err)
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
