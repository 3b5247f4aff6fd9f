// Package httpapi exposes inventory business steps over HTTP with gin.
//
// Every business outcome is answered with HTTP 200 and the envelope; the
// envelope code carries success or failure. Only the rate limiter answers
// with a transport status (429).
package httpapi

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"bizflow/internal/inventory"
	"bizflow/internal/platform/metrics"
)

// HealthFunc reports whether the backing storage is reachable.
type HealthFunc func(ctx context.Context) error

// Options configures the router. Zero values disable the optional parts.
type Options struct {
	Logger *slog.Logger
	// Tokens lists accepted BIZ_TOKEN values. Empty disables the check.
	Tokens  []string
	Health  HealthFunc
	Metrics *metrics.Metrics
	Limiter *RateLimiter
}

// NewRouter builds the gin engine serving the item routes, /healthz and,
// when metrics are configured, /metrics.
func NewRouter(svc *inventory.Service, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log))
	if opts.Metrics != nil {
		r.Use(Instrument(opts.Metrics))
	}
	r.Use(Recovery(log))

	r.GET("/healthz", health(opts.Health, log))
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	g := r.Group("/api")
	if opts.Limiter != nil {
		var onLimited func()
		if opts.Metrics != nil {
			onLimited = opts.Metrics.ObserveRateLimited
		}
		g.Use(opts.Limiter.Middleware(onLimited))
	}
	g.Use(TokenAuth(opts.Tokens))

	h := &handlers{svc: svc}
	items := g.Group("/items")
	items.POST("", h.create)
	items.GET("", h.list)
	items.GET("/:id", h.get)
	items.PATCH("/:id/quantity", h.adjust)
	items.DELETE("/:id", h.remove)
	return r
}
