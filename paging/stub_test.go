package paging

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// stubRoutes resolves every request to one route with a fixed pattern.
type stubRoutes struct {
	id      string
	pattern string
	params  map[string]string
	fail    bool
}

func (s stubRoutes) RouteID(*http.Request) (string, bool) { return s.id, s.id != "" }

func (s stubRoutes) PathParams(*http.Request) map[string]string { return s.params }

func (s stubRoutes) URLBuilder(r *http.Request) URLBuilder {
	scheme, host := RequestOrigin(r)
	pattern := s.pattern
	if pattern == "" {
		pattern = "/items"
	}
	return stubBuilder{pattern: pattern, scheme: scheme, host: host, fail: s.fail}
}

type stubBuilder struct {
	pattern string
	scheme  string
	host    string
	fail    bool
}

func (b stubBuilder) BuildURL(_ string, p URLParams, rel bool) (string, error) {
	if b.fail {
		return "", errors.New("no such route")
	}
	path := b.pattern
	for k, v := range p.Params {
		path = strings.ReplaceAll(path, "{"+k+"}", v)
	}
	if len(p.Query) > 0 {
		path += "?" + p.Query.Encode()
	}
	if rel {
		return path, nil
	}
	return b.scheme + "://" + b.host + path, nil
}

// recorder counts observer callbacks.
type recorder struct {
	served   []string
	rejected []error
}

func (r *recorder) Served(routeID string, _ PageState) { r.served = append(r.served, routeID) }

func (r *recorder) Rejected(err error) { r.rejected = append(r.rejected, err) }

func itoa(n int) string { return strconv.Itoa(n) }
