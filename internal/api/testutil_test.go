package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/felixheck/bissle/internal/api"
	"github.com/felixheck/bissle/internal/routes"
	"github.com/felixheck/bissle/internal/store"
	"github.com/felixheck/bissle/internal/testutil"
	"github.com/felixheck/bissle/paging"
)

// testEnv holds the router and the store behind it.
type testEnv struct {
	Router http.Handler
	Items  *store.ItemStore
}

type envOption func(*api.Deps, *paging.Config)

func withConfig(cfg paging.Config) envOption {
	return func(_ *api.Deps, c *paging.Config) { *c = cfg }
}

func withRouteOptions(id string, o paging.Options) envOption {
	return func(d *api.Deps, _ *paging.Config) { d.RouteOptions[id] = o }
}

// newTestEnv creates an in-memory SQLite database and wires up the full
// router with a real registry, paginator and store.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	items := store.NewItemStore(testutil.NewTestDB(t))
	reg := routes.New()

	deps := api.Deps{
		Routes:       reg,
		Items:        items,
		RouteOptions: map[string]paging.Options{},
		Logger:       zerolog.Nop(),
	}
	cfg := paging.DefaultConfig()
	for _, opt := range opts {
		opt(&deps, &cfg)
	}

	p, err := paging.New(cfg, reg)
	require.NoError(t, err)
	deps.Paginator = p

	return &testEnv{Router: api.NewRouter(deps), Items: items}
}

func (env *testEnv) seed(t *testing.T, collection, prefix string, n int) {
	t.Helper()
	require.NoError(t, env.Items.Seed(context.Background(), collection, prefix, n))
}

func (env *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

// listResponse is the body of a paginated item list with default names.
type listResponse struct {
	Result     []store.Item   `json:"result"`
	Links      paging.LinkSet `json:"_links"`
	PerPage    int            `json:"per_page"`
	Page       int            `json:"page"`
	Total      int            `json:"total"`
	Collection string         `json:"collection"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func itemIDs(items []store.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func href(t *testing.T, ls paging.LinkSet, rel string) string {
	t.Helper()
	h, ok := ls.Get(rel)
	require.True(t, ok, "missing %q link, have %v", rel, ls.Rels())
	return h
}
