package paging

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidOptions is returned when the per-endpoint paging options are malformed.
	ErrInvalidOptions = errors.New(`the "key" option has to be a non-empty string naming a collection, ` +
		`the "per_page" option an integer in the range of 1 to 500 and the "total" option a non-negative number`)

	// ErrInvalidQuery is returned when the client supplied page or per-page value is out of range.
	ErrInvalidQuery = errors.New(`the "page" parameter has to be an integer greater or equal 1 ` +
		`and the "per_page" parameter an integer in the range of 1 to 500`)

	// ErrMissingRouteID is returned when the paginated route carries no identifier.
	ErrMissingRouteID = errors.New("the route to be paginated has no ID")

	// ErrInvalidConfiguration is returned when the process-wide configuration is malformed.
	ErrInvalidConfiguration = errors.New("the paging configuration is invalid")
)

// Error codes sent to clients alongside the message.
const (
	CodeInvalidOptions       = "INVALID_OPTIONS"
	CodeInvalidQuery         = "INVALID_QUERY"
	CodeMissingRouteID       = "MISSING_ROUTE_ID"
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodeInternal             = "INTERNAL_ERROR"
)

// Code maps err to its client-facing error code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidOptions):
		return CodeInvalidOptions
	case errors.Is(err, ErrInvalidQuery):
		return CodeInvalidQuery
	case errors.Is(err, ErrMissingRouteID):
		return CodeMissingRouteID
	case errors.Is(err, ErrInvalidConfiguration):
		return CodeInvalidConfiguration
	default:
		return CodeInternal
	}
}

// StatusCode maps err to the HTTP status it is reported with. Every paging
// validation failure is a client error; anything else is a server fault.
func StatusCode(err error) int {
	if Code(err) == CodeInternal {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// ErrorBody is the JSON body written for a rejected request.
type ErrorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// NewErrorBody builds the client-facing body for err. Internal errors never
// leak their message.
func NewErrorBody(err error) ErrorBody {
	code := Code(err)
	if code == CodeInternal {
		return ErrorBody{Error: "internal error", Code: code}
	}
	return ErrorBody{Error: err.Error(), Code: code, Details: errors.GetAllHints(err)}
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), NewErrorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
