package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cafescout/cafe-scout-api/internal/platform/metrics"
)

// RouterOptions carries the middleware the router cannot build itself.
type RouterOptions struct {
	// IdentityMiddleware resolves the caller (see NewIdentityMiddleware).
	// Required for every route except /healthz and /metrics.
	IdentityMiddleware func(http.Handler) http.Handler

	// RequestLogger, when set, wraps every route.
	RequestLogger func(http.Handler) http.Handler
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: it wires routes and middleware and
// delegates to Server's handlers.
func NewRouter(srv *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if opts.RequestLogger != nil {
		r.Use(opts.RequestLogger)
	}

	// Infra endpoints are unauthenticated and identity-free.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if opts.IdentityMiddleware != nil {
			r.Use(opts.IdentityMiddleware)
		}

		r.Post("/rate-limit/check", srv.rateLimitCheck)

		r.Route("/searches", func(r chi.Router) {
			r.Post("/", srv.initializeSearch)
			r.Route("/{searchId}", func(r chi.Router) {
				r.Get("/", srv.getSearch)
				r.Post("/", srv.replaceSearch)
				r.Patch("/", srv.patchSearch)
				r.Post("/fail", srv.failSearch)
				r.Post("/success", srv.succeedSearch)
			})
		})

		r.Post("/place-interactions", srv.recordInteraction)
		r.Get("/place-interactions/filter", srv.filterInteractions)
		r.Post("/migrate-anonymous-data", srv.migrateAnonymousData)

		r.Route("/enrich", func(r chi.Router) {
			r.Post("/image-description", srv.imageDescription)
			r.Post("/social-mentions", srv.socialMentions)
			r.Post("/match-reasons", srv.matchReasons)
		})
	})

	return r
}
