/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:   Unique ID per request for tracing
  2. RealIP:      Client address behind a proxy
  3. RequestLog:  logrus line per request (id, method, path, status, duration)
  4. Instrument:  Prometheus counters by route pattern (when metrics are on)
  5. Recoverer:   Panic recovery (500 instead of crash)
  6. CORS:        Cross-origin requests for the web client

ROUTES:
  Kept at the root, where the web client has always called them. See
  handlers.go for the full list.

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - metrics/metrics.go: Collector
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/warp/leave-calendar/metrics"
)

type RouterOptions struct {
	AllowedOrigins []string
	// Metrics is optional. When set, requests are counted and /metrics is
	// served.
	Metrics *metrics.Collector
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLog(h.log))
	if opts.Metrics != nil {
		r.Use(Instrument(opts.Metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", h.Status)
	r.Get("/health", h.Health)
	r.Post("/login", h.Login)

	// Event routes
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
	})
	r.Post("/claim-events", h.ClaimEvents)
	r.Delete("/clear-data", h.ClearData)

	// Ledger routes
	r.Get("/leave-balance", h.GetBalance)
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", h.GetLedger)
		r.Get("/breakdown", h.GetBreakdown)
		r.Get("/warnings", h.GetWarnings)
	})
	r.Get("/days/{date}", h.GetDay)
	r.Get("/search", h.Search)

	// Backup routes
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// Holiday routes
	r.Route("/holidays", func(r chi.Router) {
		r.Get("/", h.ListHolidays)
		r.Post("/", h.CreateHoliday)
		r.Post("/defaults", h.AddDefaultHolidays)
		r.Delete("/{id}", h.DeleteHoliday)
	})

	// Scenario routes
	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", h.ListScenarios)
		r.Get("/current", h.GetCurrentScenario)
		r.Post("/load", h.LoadScenario)
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	return r
}

// RequestLog logs one line per request at Info, or Error for 5xx.
func RequestLog(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			entry := log.WithFields(logrus.Fields{
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status(ww),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote":      r.RemoteAddr,
			})
			if status(ww) >= http.StatusInternalServerError {
				entry.Error("request failed")
				return
			}
			entry.Info("request served")
		})
	}
}

// Instrument records every request under its chi route pattern, so
// /events/{id} is one series however many ids are hit.
func Instrument(m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(route, r.Method, status(ww), time.Since(start))
		})
	}
}

// status defaults to 200 for handlers that never call WriteHeader.
func status(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
