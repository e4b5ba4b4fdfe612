package paging

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// PageQuery is the normalized page and page size of one request.
type PageQuery struct {
	Page    int `validate:"min=1"`
	PerPage int `validate:"min=1,max=500"`
}

// Offset is the index of the first entry on the page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// ValidateOptions reports whether o is usable: a non-blank key, a page size
// in [1,500] and, if set, a non-negative total. Defaults must already be
// applied.
func ValidateOptions(o Options) bool {
	if strings.TrimSpace(o.Key) == "" {
		return false
	}
	return validate.Struct(o) == nil
}

// ValidateQuery reads the page and per-page parameters from q. Missing or
// empty values fall back to 1 and o.PerPage. Everything else is coerced to an
// integer, where anything non-numeric becomes 0. The returned copy of q carries
// the normalized values; q itself is left untouched. The query is valid iff
// page >= 1 and per-page is within [1,500].
func ValidateQuery(q url.Values, o Options, names ParamNames) (PageQuery, url.Values, bool) {
	pq := PageQuery{
		Page:    queryInteger(q[names.Page], FirstPage),
		PerPage: queryInteger(q[names.PerPage], o.PerPage),
	}

	normalized := make(url.Values, len(q)+2)
	for k, v := range q {
		normalized[k] = append([]string(nil), v...)
	}
	normalized.Set(names.Page, strconv.Itoa(pq.Page))
	normalized.Set(names.PerPage, strconv.Itoa(pq.PerPage))

	return pq, normalized, validate.Struct(pq) == nil
}

// queryInteger coerces a query parameter. Repeated parameters are ambiguous
// and coerce to 0, as do values outside the int32 range.
func queryInteger(values []string, fallback int) int {
	switch {
	case len(values) == 0 || (len(values) == 1 && values[0] == ""):
		return fallback
	case len(values) > 1:
		return 0
	}
	n := parseInteger(values[0])
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0
	}
	return n
}

// parseInteger converts s the way a loose numeric cast would: surrounding
// space is ignored, decimals are truncated toward zero and anything that is
// not a finite number yields 0.
func parseInteger(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n)
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(lower, "0x") {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return floatInteger(f)
}

func floatInteger(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int(math.Trunc(f))
}

// toInteger coerces a loosely typed option value. Booleans count as 0 and 1.
func toInteger(v any) int {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case int:
		return t
	case int8:
		return int(t)
	case int16:
		return int(t)
	case int32:
		return int(t)
	case int64:
		return int(t)
	case uint:
		return int(t)
	case uint8:
		return int(t)
	case uint16:
		return int(t)
	case uint32:
		return int(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0
		}
		return int(t)
	case float32:
		return floatInteger(float64(t))
	case float64:
		return floatInteger(t)
	case string:
		return parseInteger(t)
	default:
		return 0
	}
}

// isNumber reports whether v converts to a number without being parsed from
// text. Booleans count, as 0 and 1; numeric-looking strings do not.
func isNumber(v any) bool {
	switch v.(type) {
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// DecodeOptions builds Options from loosely typed input such as a config
// file section. Recognized keys are "key", "per_page" (or "perPage") and
// "total"; missing keys take the defaults. The key has to be a string, the
// page size is coerced to an integer and the total has to be a non-negative
// number or a boolean (0 or 1). Numeric-looking strings are rejected for the
// total so that "no total" and "a total" never get mixed up.
func DecodeOptions(raw map[string]any) (Options, error) {
	var o Options
	for k, v := range raw {
		switch strings.ReplaceAll(strings.ToLower(k), "_", "") {
		case "key":
			s, ok := v.(string)
			if !ok {
				return Options{}, errors.WithHintf(ErrInvalidOptions, "key must be a string, got %T", v)
			}
			if s == "" {
				return Options{}, errors.WithHint(ErrInvalidOptions, "key must not be empty")
			}
			o.Key = s
		case "perpage":
			o.PerPage = toInteger(v)
			if o.PerPage == 0 {
				return Options{}, errors.WithHintf(ErrInvalidOptions, "per_page %v is not an integer in [1,500]", v)
			}
		case "total":
			if v == nil {
				continue
			}
			if !isNumber(v) {
				return Options{}, errors.WithHintf(ErrInvalidOptions, "total must be a number or a boolean, got %T", v)
			}
			o = o.WithTotal(toInteger(v))
		default:
			return Options{}, errors.WithHintf(ErrInvalidOptions, "unknown option %q", k)
		}
	}

	o = o.WithDefaults()
	if !ValidateOptions(o) {
		return Options{}, errors.WithHintf(ErrInvalidOptions, "key=%q per_page=%d", o.Key, o.PerPage)
	}
	return o, nil
}
