// Package httpapi exposes the loadout widget over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/martinricard/d2loadout-widget/internal/observability"
	"github.com/martinricard/d2loadout-widget/internal/widget"
)

// Version is reported by the service descriptor.
const Version = "0.1.0"

// LoadoutService is what the handlers need from widget.Service.
type LoadoutService interface {
	Search(ctx context.Context, bungieName string) ([]widget.Player, error)
	Loadout(ctx context.Context, req widget.Request) (*widget.Result, error)
	Status(ctx context.Context) (*widget.Status, error)
}

// Options configures the router.
type Options struct {
	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string
	// RequestTimeout bounds each request; zero disables the timeout middleware.
	RequestTimeout time.Duration
	// AlwaysLink adds a DIM link to every loadout response.
	AlwaysLink bool
}

// NewRouter builds the HTTP handler with its middleware stack.
//
// Precondition: svc and logger must be non-nil.
// Postcondition: Returns a handler traced by otelhttp.
func NewRouter(svc LoadoutService, opts Options, logger *zap.Logger) http.Handler {
	h := &handlers{svc: svc, opts: opts, logger: logger, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(opts.CORSOrigin))
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/", h.describe)
	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/search/{displayName}", h.search)
		r.Get("/loadout/{platformOrName}", h.loadoutByName)
		r.Get("/loadout/{platform}/{membershipId}", h.loadoutByMembership)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "No route for "+r.URL.Path, nil)
	})

	return otelhttp.NewHandler(r, observability.ServiceName)
}

// cors allows the overlay host to call the API from the browser.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
