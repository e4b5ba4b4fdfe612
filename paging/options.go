package paging

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Defaults and bounds shared by options, query validation and the schema.
const (
	DefaultKey     = "result"
	DefaultPerPage = 100
	MinPerPage     = 1
	MaxPerPage     = 500
	FirstPage      = 1

	DefaultPerPageParam = "per_page"
	DefaultPageParam    = "page"
	DefaultTotalParam   = "total"

	// LinksField is the response field holding the link set.
	LinksField = "_links"
)

var paramNameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-\[\]]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("paramname", func(fl validator.FieldLevel) bool {
		return paramNameRe.MatchString(fl.Field().String())
	})
	return v
}

// Options are the per-endpoint paging options. Zero values stand for the
// defaults; call WithDefaults before reading them.
type Options struct {
	// Key names the payload field holding the collection.
	Key string `validate:"required"`
	// PerPage is the page size used when the client sends none.
	PerPage int `validate:"min=1,max=500"`
	// Total, when set, declares that the collection is already the requested
	// page and Total is the size of the whole result set.
	Total *int `validate:"omitempty,min=0"`
}

// WithDefaults returns a copy of o with every unset field replaced by its
// default: Key "result", PerPage 100. Total stays nil when unset.
func (o Options) WithDefaults() Options {
	if o.Key == "" {
		o.Key = DefaultKey
	}
	if o.PerPage == 0 {
		o.PerPage = DefaultPerPage
	}
	return o
}

// WithTotal returns a copy of o declaring an externally sliced page out of
// total entries.
func (o Options) WithTotal(total int) Options {
	o.Total = &total
	return o
}

// ParamNames are the query-string names of the paging parameters.
type ParamNames struct {
	PerPage string `validate:"required,paramname,ne=_links,nefield=Page,nefield=Total"`
	Page    string `validate:"required,paramname,ne=_links,nefield=Total"`
	Total   string `validate:"required,paramname,ne=_links"`
}

// WithDefaults returns a copy of n with blank names replaced by
// "per_page", "page" and "total".
func (n ParamNames) WithDefaults() ParamNames {
	if n.PerPage == "" {
		n.PerPage = DefaultPerPageParam
	}
	if n.Page == "" {
		n.Page = DefaultPageParam
	}
	if n.Total == "" {
		n.Total = DefaultTotalParam
	}
	return n
}

// reserved reports whether field is written by the paginator itself.
func (n ParamNames) reserved(field string) bool {
	return field == LinksField || field == n.PerPage || field == n.Page || field == n.Total
}

// Config is the process-wide paging configuration. It is built once at
// startup and read-only afterwards.
type Config struct {
	// Absolute makes every generated href carry scheme and host.
	Absolute   bool
	ParamNames ParamNames
}

// DefaultConfig returns relative links and the default parameter names.
func DefaultConfig() Config {
	return Config{ParamNames: ParamNames{}.WithDefaults()}
}

// NewConfig merges names with the defaults and validates the result.
func NewConfig(absolute bool, names ParamNames) (Config, error) {
	cfg := Config{Absolute: absolute, ParamNames: names.WithDefaults()}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CheckOptions reports ErrInvalidOptions when o, with defaults applied, fails
// ValidateOptions or its key collides with a field the paginator writes.
func (c Config) CheckOptions(o Options) error {
	o = o.WithDefaults()
	if !ValidateOptions(o) {
		return errors.WithHintf(ErrInvalidOptions, "key=%q per_page=%d", o.Key, o.PerPage)
	}
	if c.ParamNames.reserved(o.Key) {
		return errors.WithHintf(ErrInvalidOptions, "key %q collides with a paging field", o.Key)
	}
	return nil
}

// Validate reports ErrInvalidConfiguration when a parameter name is blank,
// contains characters outside [A-Za-z0-9_.-[]], collides with another name or
// with the links field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			hints := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				hints = append(hints, fe.Namespace()+" fails "+fe.Tag())
			}
			return errors.WithHint(ErrInvalidConfiguration, strings.Join(hints, "; "))
		}
		return errors.Wrap(ErrInvalidConfiguration, err.Error())
	}
	return nil
}
