// Package paging paginates HTTP list endpoints.
//
// Given the full collection (or an already sliced page plus a total) it
// validates the client's page and per-page parameters, cuts the page,
// and builds the self, first, prev, next and last links together with a
// Link header:
//
//	p, err := paging.New(paging.DefaultConfig(), registry)
//	...
//	func (h *handler) List(w http.ResponseWriter, r *http.Request) {
//	    p.Respond(w, r, map[string]any{"result": items}, paging.Options{PerPage: 25})
//	}
//
// The response body keeps every other payload field and adds "_links" plus
// the per-page, page and total values under their configured names.
//
// Links other than self are minimized: page 1 and the endpoint's default page
// size never appear in their query strings. self echoes the request as sent.
//
// Route identity and URL building are delegated to a Routes implementation,
// see internal/routes for the chi based one.
package paging
