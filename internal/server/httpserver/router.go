package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/relog-go/internal/server/httpserver/handler"
	"github.com/yndnr/relog-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Store backs the key/value and admin endpoints.
	Store handler.Store

	// Metrics is exposed at /metrics and records request metrics. Nil
	// disables both.
	Metrics *metric.Registry

	Logger *slog.Logger

	// MaxBodyBytes caps PUT bodies.
	MaxBodyBytes int64

	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit float64
	RateBurst int
}

// NewRouter creates the HTTP handler with all routes and middleware.
//
// Order: RequestID -> Recover -> AccessLog -> Metrics -> RateLimit -> routes
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Store, log, cfg.MaxBodyBytes)

	mux := http.NewServeMux()
	mux.Handle("/", h)

	middlewares := []Middleware{
		RequestID(log),
		Recover(log),
		AccessLog(log),
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
		middlewares = append(middlewares, Metrics(cfg.Metrics))
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	return Chain(mux, middlewares...)
}
