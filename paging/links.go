package paging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Link relations.
const (
	RelSelf  = "self"
	RelFirst = "first"
	RelPrev  = "prev"
	RelNext  = "next"
	RelLast  = "last"
)

// Link is one relation and its target.
type Link struct {
	Rel  string
	Href string
}

// LinkSet maps relations to hrefs and remembers insertion order. The builder
// always inserts self, first, prev, next, last.
type LinkSet struct {
	links []Link
}

// Add sets rel to href. An existing relation keeps its position.
func (ls *LinkSet) Add(rel, href string) {
	for i := range ls.links {
		if ls.links[i].Rel == rel {
			ls.links[i].Href = href
			return
		}
	}
	ls.links = append(ls.links, Link{Rel: rel, Href: href})
}

// Get returns the href of rel.
func (ls LinkSet) Get(rel string) (string, bool) {
	for _, l := range ls.links {
		if l.Rel == rel {
			return l.Href, true
		}
	}
	return "", false
}

// Has reports whether rel is present.
func (ls LinkSet) Has(rel string) bool {
	_, ok := ls.Get(rel)
	return ok
}

// Len is the number of relations.
func (ls LinkSet) Len() int { return len(ls.links) }

// Rels lists the relations in insertion order.
func (ls LinkSet) Rels() []string {
	return lo.Map(ls.links, func(l Link, _ int) string { return l.Rel })
}

// Links returns a copy of the links in insertion order.
func (ls LinkSet) Links() []Link {
	return append([]Link(nil), ls.links...)
}

type hrefObject struct {
	Href string `json:"href"`
}

// MarshalJSON renders {"rel": {"href": "..."}} in insertion order.
func (ls LinkSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range ls.links {
		if i > 0 {
			buf.WriteByte(',')
		}
		rel, err := json.Marshal(l.Rel)
		if err != nil {
			return nil, err
		}
		obj, err := json.Marshal(hrefObject{Href: l.Href})
		if err != nil {
			return nil, err
		}
		buf.Write(rel)
		buf.WriteByte(':')
		buf.Write(obj)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object form written by MarshalJSON, keeping order.
func (ls *LinkSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("paging: link set must be a JSON object")
	}
	links := LinkSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		rel, _ := tok.(string)
		var obj hrefObject
		if err := dec.Decode(&obj); err != nil {
			return fmt.Errorf("paging: link %q: %w", rel, err)
		}
		links.Add(rel, obj.Href)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*ls = links
	return nil
}

// URLParams are the overrides handed to a URLBuilder.
type URLParams struct {
	Query  url.Values
	Params map[string]string
}

// URLBuilder resolves a route identifier into a URL. With rel set the result
// is path and query only; otherwise it includes scheme and host.
type URLBuilder interface {
	BuildURL(routeID string, p URLParams, rel bool) (string, error)
}

// LinkRequest is what the link builder needs to know about the current request.
type LinkRequest struct {
	RouteID    string
	Scheme     string
	Host       string
	Path       string
	RawQuery   string
	Query      url.Values
	PathParams map[string]string
}

// NewLinkRequest captures r for link building.
func NewLinkRequest(r *http.Request, routeID string, params map[string]string) LinkRequest {
	scheme, host := RequestOrigin(r)
	return LinkRequest{
		RouteID:    routeID,
		Scheme:     scheme,
		Host:       host,
		Path:       r.URL.EscapedPath(),
		RawQuery:   r.URL.RawQuery,
		Query:      r.URL.Query(),
		PathParams: params,
	}
}

// RequestOrigin returns the scheme and host the client used to reach r.
// X-Forwarded-Proto is honored only when it names http or https; anything
// else falls back to what the connection itself says.
func RequestOrigin(r *http.Request) (scheme, host string) {
	scheme = "http"
	if r.TLS != nil {
		scheme = "https"
	} else if r.URL.Scheme == "https" {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		switch p := strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0])); p {
		case "http", "https":
			scheme = p
		}
	}
	host = r.Host
	if host == "" {
		host = r.URL.Host
	}
	return scheme, host
}

// BuildLinks computes the link set for st. self mirrors the request; first
// and last are always present, prev and next only while the page lies within
// the result set.
func BuildLinks(b URLBuilder, req LinkRequest, st PageState, o Options, cfg Config) (LinkSet, error) {
	var ls LinkSet
	ls.Add(RelSelf, selfLink(req, cfg.Absolute))

	rels := []struct {
		rel  string
		page int
		ok   bool
	}{
		{RelFirst, FirstPage, true},
		{RelPrev, st.Page - 1, st.HasPrev()},
		{RelNext, st.Page + 1, st.HasNext()},
		{RelLast, st.LastPage, true},
	}
	for _, r := range rels {
		if !r.ok {
			continue
		}
		href, err := pageLink(b, req, r.page, st.PerPage, o, cfg)
		if err != nil {
			return LinkSet{}, errors.Wrapf(err, "build %s link", r.rel)
		}
		ls.Add(r.rel, href)
	}
	return ls, nil
}

// selfLink reproduces the current request exactly as the client sent it.
// Paging parameters stay in place even when they equal their defaults; only
// the page links below are minimized.
func selfLink(req LinkRequest, absolute bool) string {
	href := req.Path
	if href == "" {
		href = "/"
	}
	if req.RawQuery != "" {
		href += "?" + req.RawQuery
	}
	if absolute {
		href = req.Scheme + "://" + req.Host + href
	}
	return href
}

// pageLink asks the URL builder for page of the current route. Every non-paging
// query parameter is carried over. page 1 and a per-page value equal to the
// endpoint default are left out so that default links stay parameter free.
func pageLink(b URLBuilder, req LinkRequest, page, perPage int, o Options, cfg Config) (string, error) {
	names := cfg.ParamNames
	q := url.Values(lo.OmitByKeys(req.Query, []string{names.Page, names.PerPage}))
	if page != FirstPage {
		q.Set(names.Page, strconv.Itoa(page))
	}
	if perPage != o.PerPage {
		q.Set(names.PerPage, strconv.Itoa(perPage))
	}
	return b.BuildURL(req.RouteID, URLParams{Query: q, Params: req.PathParams}, !cfg.Absolute)
}
