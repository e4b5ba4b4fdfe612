package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixheck/bissle/internal/api"
	"github.com/felixheck/bissle/internal/routes"
	"github.com/felixheck/bissle/paging"
)

func TestList_MiddlePage(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "default", "", 9)

	rr := env.do(t, http.MethodGet, "/items?page=2&per_page=3", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	resp := decode[listResponse](t, rr)
	assert.Equal(t, []string{"4", "5", "6"}, itemIDs(resp.Result))
	assert.Equal(t, 3, resp.PerPage)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 9, resp.Total)

	assert.Equal(t, []string{"self", "first", "prev", "next", "last"}, resp.Links.Rels())
	assert.Equal(t, "/items?page=2&per_page=3", href(t, resp.Links, paging.RelSelf))
	assert.Equal(t, "/items?per_page=3", href(t, resp.Links, paging.RelFirst))
	assert.Equal(t, "/items?per_page=3", href(t, resp.Links, paging.RelPrev))
	assert.Equal(t, "/items?page=3&per_page=3", href(t, resp.Links, paging.RelNext))
	assert.Equal(t, "/items?page=3&per_page=3", href(t, resp.Links, paging.RelLast))

	header, err := paging.ParseLinkHeader(rr.Header().Get("Link"))
	require.NoError(t, err)
	assert.Equal(t, resp.Links.Links(), header.Links())
}

func TestList_DefaultsSinglePage(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "default", "", 9)

	rr := env.do(t, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[listResponse](t, rr)
	assert.Len(t, resp.Result, 9)
	assert.Equal(t, paging.DefaultPerPage, resp.PerPage)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, []string{"self", "first", "last"}, resp.Links.Rels())
	assert.Equal(t, "/items", href(t, resp.Links, paging.RelFirst))
	assert.Equal(t, "/items", href(t, resp.Links, paging.RelLast))
}

func TestList_PageBeyondLast(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "default", "", 9)

	rr := env.do(t, http.MethodGet, "/items?page=4&per_page=3", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[listResponse](t, rr)
	assert.Empty(t, resp.Result)
	assert.Equal(t, []string{"self", "first", "last"}, resp.Links.Rels())
	assert.Equal(t, "/items?page=3&per_page=3", href(t, resp.Links, paging.RelLast))
}

func TestList_EmptyCollection(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[listResponse](t, rr)
	assert.Empty(t, resp.Result)
	assert.Zero(t, resp.Total)
	assert.Equal(t, "/items", href(t, resp.Links, paging.RelLast))
}

func TestList_KeepsForeignQueryParams(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "default", "", 9)

	rr := env.do(t, http.MethodGet, "/items?page=2&per_page=3&fields=foo", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[listResponse](t, rr)
	assert.Equal(t, "/items?page=2&per_page=3&fields=foo", href(t, resp.Links, paging.RelSelf))
	assert.Equal(t, "/items?fields=foo&per_page=3", href(t, resp.Links, paging.RelFirst))
	assert.Equal(t, "/items?fields=foo&page=3&per_page=3", href(t, resp.Links, paging.RelNext))
}

func TestList_InvalidQuery(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "default", "", 9)

	for _, q := range []string{"page=0", "page=-1", "per_page=0", "per_page=501", "page=abc"} {
		t.Run(q, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/items?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			body := decode[paging.ErrorBody](t, rr)
			assert.Equal(t, paging.CodeInvalidQuery, body.Code)
			assert.Empty(t, rr.Header().Get("Link"))
		})
	}
}

func TestList_RouteOptions(t *testing.T) {
	env := newTestEnv(t, withRouteOptions(api.RouteItems, paging.Options{Key: "items", PerPage: 3}))
	env.seed(t, "default", "", 9)

	rr := env.do(t, http.MethodGet, "/items", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	type keyedResponse struct {
		Items   []map[string]any `json:"items"`
		Links   paging.LinkSet   `json:"_links"`
		PerPage int              `json:"per_page"`
	}
	resp := decode[keyedResponse](t, rr)
	assert.Len(t, resp.Items, 3)
	assert.Equal(t, 3, resp.PerPage)
	assert.Equal(t, "/items?page=2", href(t, resp.Links, paging.RelNext))
	assert.Equal(t, "/items?page=3", href(t, resp.Links, paging.RelLast))
}

func TestList_ReservedKey(t *testing.T) {
	env := newTestEnv(t, withRouteOptions(api.RouteItems, paging.Options{Key: paging.LinksField}))

	rr := env.do(t, http.MethodGet, "/items", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, paging.CodeInvalidOptions, decode[paging.ErrorBody](t, rr).Code)
}

func TestList_CustomParamNames(t *testing.T) {
	cfg, err := paging.NewConfig(false, paging.ParamNames{PerPage: "pageSize", Page: "currentPage", Total: "totalCount"})
	require.NoError(t, err)
	env := newTestEnv(t, withConfig(cfg))
	env.seed(t, "default", "", 9)

	rr := env.do(t, http.MethodGet, "/items?currentPage=2&pageSize=3", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode[map[string]any](t, rr)
	assert.EqualValues(t, 3, body["pageSize"])
	assert.EqualValues(t, 2, body["currentPage"])
	assert.EqualValues(t, 9, body["totalCount"])
	assert.NotContains(t, body, "per_page")

	assert.Contains(t, rr.Header().Get("Link"), `</items?currentPage=3&pageSize=3>; rel="next"`)
}

func TestList_AbsoluteLinks(t *testing.T) {
	cfg, err := paging.NewConfig(true, paging.ParamNames{})
	require.NoError(t, err)
	env := newTestEnv(t, withConfig(cfg))
	env.seed(t, "default", "", 9)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/items?page=2&per_page=3", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[listResponse](t, rr)
	assert.Equal(t, "https://example.com/items?page=2&per_page=3", href(t, resp.Links, paging.RelSelf))
	assert.Equal(t, "https://example.com/items?per_page=3", href(t, resp.Links, paging.RelFirst))
	assert.Equal(t, "https://example.com/items?page=3&per_page=3", href(t, resp.Links, paging.RelNext))
}

func TestList_UnnamedRoute(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/unnamed", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, paging.CodeMissingRouteID, decode[paging.ErrorBody](t, rr).Code)
}

func TestListCollection(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "books", "b", 5)
	env.seed(t, "films", "f", 4)

	rr := env.do(t, http.MethodGet, "/collections/books/items?page=2&per_page=2", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[listResponse](t, rr)
	assert.Equal(t, "books", resp.Collection)
	assert.Equal(t, []string{"b3", "b4"}, itemIDs(resp.Result))
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, "/collections/books/items?per_page=2", href(t, resp.Links, paging.RelFirst))
	assert.Equal(t, "/collections/books/items?page=3&per_page=2", href(t, resp.Links, paging.RelNext))
	assert.Equal(t, "/collections/books/items?page=3&per_page=2", href(t, resp.Links, paging.RelLast))
}

func TestListCollection_Rejections(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{name: "bad page", target: "/collections/books/items?page=0", code: paging.CodeInvalidQuery},
		{name: "bad per_page", target: "/collections/books/items?per_page=1000", code: paging.CodeInvalidQuery},
		{name: "bad collection", target: "/collections/Books/items", code: "INVALID_COLLECTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, tt.target, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.code)
		})
	}
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/items", map[string]string{"collection": "books", "name": "dune"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[map[string]any](t, rr)
	assert.NotEmpty(t, created["_id"])

	rr = env.do(t, http.MethodGet, "/collections/books/items", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[listResponse](t, rr)
	require.Len(t, resp.Result, 1)
	assert.Equal(t, created["_id"], resp.Result[0].ID)
}

func TestCreate_DefaultCollection(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/items", map[string]string{"name": "dune"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, api.DefaultCollection, decode[map[string]any](t, rr)["collection"])
}

func TestCreate_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed json", body: "{", code: "BAD_REQUEST"},
		{name: "empty name", body: `{"name":" "}`, code: "INVALID_NAME"},
		{name: "bad collection", body: `{"name":"x","collection":"A B"}`, code: "INVALID_COLLECTION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			env.Router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.code)
		})
	}
}

func TestSchema(t *testing.T) {
	env := newTestEnv(t, withRouteOptions(api.RouteCollectionItems, paging.Options{PerPage: 20}))

	rr := env.do(t, http.MethodGet, "/paging/schema", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	schema := decode[paging.Schema](t, rr)
	assert.Equal(t, paging.DefaultPerPage, schema.Params["per_page"].Default)
	assert.Equal(t, paging.MaxPerPage, schema.Params["per_page"].Maximum)
	assert.Equal(t, 1, schema.Params["page"].Minimum)

	rr = env.do(t, http.MethodGet, "/paging/schema?route="+api.RouteCollectionItems, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 20, decode[paging.Schema](t, rr).Params["per_page"].Default)

	rr = env.do(t, http.MethodGet, "/paging/schema?route=nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCheckRouteOptions(t *testing.T) {
	reg := routes.New()
	p, err := paging.New(paging.DefaultConfig(), reg)
	require.NoError(t, err)
	api.NewRouter(api.Deps{Paginator: p, Routes: reg, Logger: zerolog.Nop()})

	assert.NoError(t, api.CheckRouteOptions(reg, nil))
	assert.NoError(t, api.CheckRouteOptions(reg, map[string]paging.Options{
		api.RouteItems:           {PerPage: 10},
		api.RouteCollectionItems: {Key: "items"},
	}))

	err = api.CheckRouteOptions(reg, map[string]paging.Options{
		api.RouteItems: {},
		"itmes":        {},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, paging.ErrInvalidConfiguration))
	assert.Contains(t, errors.FlattenHints(err), "itmes")
}
