package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/felixheck/bissle/internal/logging"
	"github.com/felixheck/bissle/internal/routes"
	"github.com/felixheck/bissle/internal/store"
	"github.com/felixheck/bissle/paging"
)

// Route ids of the paginated endpoints.
const (
	RouteItems           = "items"
	RouteCollectionItems = "collection-items"
)

// Deps holds all dependencies required to build the router.
type Deps struct {
	Paginator *paging.Paginator
	Routes    *routes.Registry
	Items     *store.ItemStore
	// RouteOptions holds per-route paging options; missing routes use the defaults.
	RouteOptions map[string]paging.Options
	Logger       zerolog.Logger
}

func (d Deps) options(id string) paging.Options {
	return d.RouteOptions[id].WithDefaults()
}

// NewRouter builds the HTTP handler of the demo service. Paginated routes are
// registered with the route registry so that the paginator can name them and
// build links back to them.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(deps.Logger)...)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	h := &itemsHandler{deps: deps}
	r.Group(func(r chi.Router) {
		r.Use(jsonContentType)

		deps.Routes.Get(r, RouteItems, "/items", h.List)
		deps.Routes.Get(
			r.With(deps.Paginator.ValidateQuery(deps.options(RouteCollectionItems))),
			RouteCollectionItems, "/collections/{collection}/items", h.ListCollection,
		)
		r.Post("/items", h.Create)

		// Deliberately left out of the registry: the paginator cannot name it.
		r.Get("/unnamed", h.List)

		r.Get("/paging/schema", h.Schema)
	})

	return r
}

// CheckRouteOptions reports paging options configured for a route id that is
// not registered, which would otherwise be silently ignored.
func CheckRouteOptions(reg *routes.Registry, opts map[string]paging.Options) error {
	unknown := lo.Filter(lo.Keys(opts), func(id string, _ int) bool {
		_, ok := reg.Pattern(id)
		return !ok
	})
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return errors.WithHintf(paging.ErrInvalidConfiguration, "paging.routes: unknown route ids: %s", strings.Join(unknown, ", "))
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
