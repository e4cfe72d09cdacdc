package api

import (
	"errors"
	"net/http"

	service "github.com/okian/meetpoints/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrServe         = errors.New("http serve failed")
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeds maximum")
)

// Error is an API failure tagged with the operation that produced it.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap tags err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// NewKind returns an error of kind for op.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidMeasurementFormat):
		return http.StatusBadRequest, "invalid_measurement"
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidAthlete),
		errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, service.ErrInvalidTeam),
		errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrInvalidGender):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrUnknownAthlete),
		errors.Is(err, service.ErrUnknownTeam),
		errors.Is(err, service.ErrUnknownEvent),
		errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrDuplicateResult),
		errors.Is(err, service.ErrDuplicateAthlete),
		errors.Is(err, service.ErrDuplicateEvent),
		errors.Is(err, service.ErrDuplicateTeam):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrRelayMismatch):
		return http.StatusUnprocessableEntity, "relay_mismatch"
	case errors.Is(err, service.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
