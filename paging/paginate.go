package paging

import (
	"maps"
	"net/http"
	"net/url"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Routes is the routing collaborator: it names the route a request matched,
// exposes its path parameters and builds URLs for named routes.
type Routes interface {
	RouteID(r *http.Request) (string, bool)
	PathParams(r *http.Request) map[string]string
	URLBuilder(r *http.Request) URLBuilder
}

// Observer is notified about every paginated request.
type Observer interface {
	Served(routeID string, st PageState)
	Rejected(err error)
}

// Responder writes paginated responses for handlers.
type Responder interface {
	Respond(w http.ResponseWriter, r *http.Request, payload map[string]any, o Options)
}

// Paginator turns collections into paginated responses. It is safe for
// concurrent use.
type Paginator struct {
	cfg       Config
	routes    Routes
	observers []Observer
}

// New validates cfg and returns a Paginator resolving routes through routes.
func New(cfg Config, routes Routes, observers ...Observer) (*Paginator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if routes == nil {
		return nil, errors.WithHint(ErrInvalidConfiguration, "a route resolver is required")
	}
	return &Paginator{cfg: cfg, routes: routes, observers: observers}, nil
}

// Config returns the configuration the paginator was built with.
func (p *Paginator) Config() Config { return p.cfg }

// Response is a paginated result ready to be written.
type Response struct {
	// Body is the caller's payload plus the page, the links and the paging values.
	Body   map[string]any
	Links  LinkSet
	Header string
	State  PageState
}

// Write sends the Link header, when there is one, and the JSON body.
func (res *Response) Write(w http.ResponseWriter) {
	if res.Header != "" {
		w.Header().Set("Link", res.Header)
	}
	writeJSON(w, http.StatusOK, res.Body)
}

// Parse validates o and the paging parameters of r without touching any
// data. Handlers that fetch only the requested slice call Parse first and
// then Paginate with Options.WithTotal.
func (p *Paginator) Parse(r *http.Request, o Options) (PageQuery, error) {
	o = o.WithDefaults()
	if err := p.checkOptions(o); err != nil {
		return PageQuery{}, err
	}
	pq, _, err := p.parseQuery(r, o)
	return pq, err
}

// Paginate cuts the collection stored under o.Key out of payload and
// decorates it with links and paging values. When o.Total is set the
// collection is taken as the already sliced page. payload is not modified.
func (p *Paginator) Paginate(r *http.Request, payload map[string]any, o Options) (*Response, error) {
	res, err := p.paginate(r, payload, o.WithDefaults())
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Str("code", Code(err)).Msg("paging: request rejected")
		for _, obs := range p.observers {
			obs.Rejected(err)
		}
		return nil, err
	}
	routeID, _ := p.routes.RouteID(r)
	for _, obs := range p.observers {
		obs.Served(routeID, res.State)
	}
	return res, nil
}

func (p *Paginator) paginate(r *http.Request, payload map[string]any, o Options) (*Response, error) {
	if err := p.checkOptions(o); err != nil {
		return nil, err
	}
	items := reflect.ValueOf(payload[o.Key])
	if k := items.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, errors.WithHintf(ErrInvalidOptions, "payload field %q is not a collection", o.Key)
	}

	pq, query, err := p.parseQuery(r, o)
	if err != nil {
		return nil, err
	}

	routeID, ok := p.routes.RouteID(r)
	if !ok || routeID == "" {
		return nil, errors.WithHintf(ErrMissingRouteID, "%s %s", r.Method, r.URL.Path)
	}

	var (
		total  int
		result any
	)
	if o.Total != nil {
		total = *o.Total
		result = payload[o.Key]
	} else {
		total = items.Len()
		result = window(items, pq.Offset(), pq.PerPage)
	}
	st := NewPageState(pq.Page, pq.PerPage, total)

	req := NewLinkRequest(r, routeID, p.routes.PathParams(r))
	req.Query = query
	links, err := BuildLinks(p.routes.URLBuilder(r), req, st, o, p.cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "route %q", routeID)
	}

	names := p.cfg.ParamNames
	body := make(map[string]any, len(payload)+4)
	maps.Copy(body, payload)
	body[o.Key] = result
	body[LinksField] = links
	body[names.PerPage] = st.PerPage
	body[names.Page] = st.Page
	body[names.Total] = st.Total

	return &Response{
		Body:   body,
		Links:  links,
		Header: FormatLinkHeader(links),
		State:  st,
	}, nil
}

// Respond paginates payload and writes either the page or a 400 error.
func (p *Paginator) Respond(w http.ResponseWriter, r *http.Request, payload map[string]any, o Options) {
	res, err := p.Paginate(r, payload, o)
	if err != nil {
		WriteError(w, err)
		return
	}
	res.Write(w)
}

// ValidateQuery is middleware rejecting requests whose paging parameters are
// invalid for o before the handler runs.
func (p *Paginator) ValidateQuery(o Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := p.Parse(r, o); err != nil {
				for _, obs := range p.observers {
					obs.Rejected(err)
				}
				WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (p *Paginator) checkOptions(o Options) error {
	return p.cfg.CheckOptions(o)
}

func (p *Paginator) parseQuery(r *http.Request, o Options) (PageQuery, url.Values, error) {
	names := p.cfg.ParamNames
	q := r.URL.Query()
	pq, normalized, ok := ValidateQuery(q, o, names)
	if !ok {
		return PageQuery{}, nil, errors.WithHintf(ErrInvalidQuery, "%s=%q %s=%q",
			names.Page, q.Get(names.Page), names.PerPage, q.Get(names.PerPage))
	}
	return pq, normalized, nil
}

// window copies entries [offset, offset+limit) of items into a new slice.
// A window past the end is empty rather than an error.
func window(items reflect.Value, offset, limit int) any {
	n := items.Len()
	start := min(offset, n)
	end := min(offset+limit, n)
	out := reflect.MakeSlice(reflect.SliceOf(items.Type().Elem()), 0, end-start)
	for i := start; i < end; i++ {
		out = reflect.Append(out, items.Index(i))
	}
	return out.Interface()
}
