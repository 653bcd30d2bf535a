package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// The gateway never lets an upstream failure propagate raw: every error a
// handler sees is one of the kinds below, each with a stable JSON shape and
// an HTTP status.

// ValidationError reports a missing or empty required field. No upstream
// call is made when one is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required parameters: " + strings.Join(e.Fields, ", ")
}

// NewValidationError lists the request fields that were absent or blank.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// UpstreamError carries the vendor status and message verbatim so the
// client can report provider-level detail.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

// EmptyResultError reports an upstream call that succeeded but produced no
// usable content. Treated as a server fault, not a client error.
type EmptyResultError struct {
	Provider string
}

func (e *EmptyResultError) Error() string {
	return "no content received from " + e.Provider
}

// ErrMissingCredential is returned when the upstream API key is not
// configured. Surfaced as a 500 on every request, never a boot failure.
var ErrMissingCredential = errors.New("API key not configured")

// HTTPStatus maps a gateway error to the response status for its JSON
// error body.
func HTTPStatus(err error) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		// Propagate the vendor status unchanged when it is an error status;
		// transport failures have no status and read as a bad gateway.
		if ue.Status >= 400 {
			return ue.Status
		}
		return http.StatusBadGateway
	}
	var ee *EmptyResultError
	if errors.As(err, &ee) {
		return http.StatusInternalServerError
	}
	if errors.Is(err, ErrMissingCredential) {
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
