package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/k-code-yt/go-order-placement/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/k-code-yt/go-order-placement/internal/handlers"

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Customers    CustomerService
	Products     ProductService
	OrderCreator OrderCreator
	OrderFinder  OrderFinder
	// Feed serves the websocket order feed; the route is skipped when nil.
	Feed    http.Handler
	Store   Pinger
	Metrics http.Handler
	// Limiter throttles order placement per client; no limit when nil.
	Limiter ClientLimiter
}

func NewRouter(cfg *RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(metrics.PrometheusMiddleware)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), time.Second*2)
		defer cancel()
		if err := cfg.Store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Feed != nil {
		r.Method(http.MethodGet, "/ws/orders", cfg.Feed)
	}

	r.Group(func(r chi.Router) {
		r.Use(tracingMiddleware)
		(&customerHandler{service: cfg.Customers}).RegisterRoutes(r)
		(&productHandler{service: cfg.Products}).RegisterRoutes(r)
		(&orderHandler{creator: cfg.OrderCreator, finder: cfg.OrderFinder, limiter: cfg.Limiter}).RegisterRoutes(r)
	})
	return r
}

// tracingMiddleware continues the caller's trace, if any, and wraps the request in a server span.
func tracingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
