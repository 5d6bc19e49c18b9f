package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx backend response. Detail carries the backend's
// human-readable explanation when one was provided.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// newAPIError decodes the backend's error envelope ({"detail": ...}) from a
// failed response. Unparseable bodies still produce a usable error.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}
	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err != nil {
		// Validation errors arrive as structured lists; keep them verbatim.
		detail = string(envelope.Detail)
	}
	apiErr.Detail = detail
	return apiErr
}

func statusIs(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsAuthFailure reports an authentication failure: the token is missing,
// expired, or rejected. Callers must clear the session on this signal.
func IsAuthFailure(err error) bool {
	return statusIs(err, http.StatusUnauthorized)
}

// IsForbidden reports an authorization failure: valid session, wrong role.
func IsForbidden(err error) bool {
	return statusIs(err, http.StatusForbidden)
}

// IsNotFound reports a missing record (unknown MRN, unknown analysis).
func IsNotFound(err error) bool {
	return statusIs(err, http.StatusNotFound)
}

// IsValidation reports a request the backend rejected as malformed.
func IsValidation(err error) bool {
	return statusIs(err, http.StatusBadRequest) || statusIs(err, http.StatusUnprocessableEntity)
}

// Detail extracts the backend-provided message, or a generic fallback for
// transport-level failures.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "the analysis service is unavailable, please try again"
}
