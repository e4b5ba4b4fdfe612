// Package routes names chi routes and builds URLs for them by name.
package routes

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/felixheck/bissle/paging"
)

// Registry maps route identifiers to chi patterns and back. Patterns are full
// paths, so routes have to be registered on the root router.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]string // id -> pattern
	ids      map[string]string // pattern -> id
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		patterns: make(map[string]string),
		ids:      make(map[string]string),
	}
}

// Register names pattern. Ids and patterns are unique.
func (reg *Registry) Register(id, pattern string) error {
	if id == "" {
		return fmt.Errorf("routes: empty id for pattern %q", pattern)
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if p, ok := reg.patterns[id]; ok {
		return fmt.Errorf("routes: id %q already names %q", id, p)
	}
	if other, ok := reg.ids[pattern]; ok {
		return fmt.Errorf("routes: pattern %q already named %q", pattern, other)
	}
	reg.patterns[id] = pattern
	reg.ids[pattern] = id
	return nil
}

// Method registers h on r for method and pattern under id. It panics on a
// duplicate id, the way chi panics on a malformed pattern.
func (reg *Registry) Method(r chi.Router, method, id, pattern string, h http.HandlerFunc) {
	if err := reg.Register(id, pattern); err != nil {
		panic(err)
	}
	r.Method(method, pattern, h)
}

// Get is Method with GET.
func (reg *Registry) Get(r chi.Router, id, pattern string, h http.HandlerFunc) {
	reg.Method(r, http.MethodGet, id, pattern, h)
}

// Pattern returns the pattern registered under id.
func (reg *Registry) Pattern(id string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	p, ok := reg.patterns[id]
	return p, ok
}

// RouteID returns the id of the route r was dispatched to.
func (reg *Registry) RouteID(r *http.Request) (string, bool) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "", false
	}
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	id, ok := reg.ids[rctx.RoutePattern()]
	return id, ok
}

// PathParams returns the URL parameters chi extracted for r.
func (reg *Registry) PathParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}
	return params
}

// URLBuilder returns a builder producing absolute URLs on the origin of r.
func (reg *Registry) URLBuilder(r *http.Request) paging.URLBuilder {
	scheme, host := paging.RequestOrigin(r)
	return &Builder{reg: reg, Scheme: scheme, Host: host}
}

// Builder resolves route ids against a registry for one origin.
type Builder struct {
	reg    *Registry
	Scheme string
	Host   string
}

// BuildURL fills the pattern of id with p.Params and appends p.Query.
func (b *Builder) BuildURL(id string, p paging.URLParams, rel bool) (string, error) {
	pattern, ok := b.reg.Pattern(id)
	if !ok {
		return "", fmt.Errorf("routes: unknown route %q", id)
	}
	path, err := expand(pattern, p.Params)
	if err != nil {
		return "", fmt.Errorf("routes: %q: %w", id, err)
	}
	if len(p.Query) > 0 {
		path += "?" + p.Query.Encode()
	}
	if rel {
		return path, nil
	}
	return b.Scheme + "://" + b.Host + path, nil
}

// expand substitutes {name} and {name:regexp} segments as well as a trailing
// wildcard with the given parameters.
func expand(pattern string, params map[string]string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(pattern); {
		switch c := pattern[i]; {
		case c == '{':
			end := closingBrace(pattern, i)
			if end < 0 {
				return "", fmt.Errorf("unbalanced braces in %q", pattern)
			}
			name, _, _ := strings.Cut(pattern[i+1:end], ":")
			value, ok := params[name]
			if !ok {
				return "", fmt.Errorf("missing path parameter %q", name)
			}
			sb.WriteString(url.PathEscape(value))
			i = end + 1
		case c == '*' && i == len(pattern)-1:
			sb.WriteString(params["*"])
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// closingBrace finds the brace closing the one at start; regexps inside a
// parameter may nest braces.
func closingBrace(pattern string, start int) int {
	depth := 0
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
