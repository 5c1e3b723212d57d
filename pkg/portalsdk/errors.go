package portalsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/campuskit/portalauth/pkg/httpx"
)

// Wire error codes, shared with the server middleware so both sides agree on
// the taxonomy.
const (
	ErrorCodeMissingCredential   = httpx.ErrorCodeMissingCredential
	ErrorCodeMalformedCredential = httpx.ErrorCodeMalformedCredential
	ErrorCodeExpiredCredential   = httpx.ErrorCodeExpiredCredential
	ErrorCodeUnknownIdentity     = httpx.ErrorCodeUnknownIdentity
	ErrorCodeAuthnRequired       = httpx.ErrorCodeAuthnRequired
	ErrorCodeInsufficientRole    = httpx.ErrorCodeInsufficientRole

	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidRefresh     = "invalid_refresh_credential"
	ErrorCodeWeakPassword       = "weak_password"
	ErrorCodeServerError        = "server_error"
)

// APIError is the JSON error envelope used on the wire. It is shared by the
// server handlers (to write responses) and the SDK (to represent failures).
type APIError struct {
	// StatusCode is the HTTP status for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

// Predefined errors used by the server handlers.
var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	ErrInvalidRefresh = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidRefresh,
		Description: "refresh credential rejected",
	}

	ErrWeakPassword = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeWeakPassword,
		Description: "new password does not meet the minimum length",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	ErrMethodNotAllowed = &APIError{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "method not allowed",
	}

	ErrInvalidJSONBody = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "request body is not valid JSON",
	}
)

// ErrSessionExpired is the terminal client-side failure: the refresh
// exchange was rejected or timed out, the local session has been cleared and
// the user must log in again.
var ErrSessionExpired = errors.New("portalsdk: session expired, login required")

// ErrNotAuthenticated is returned by authenticated operations on a session
// that holds no credentials.
var ErrNotAuthenticated = errors.New("portalsdk: not authenticated")

// parseError turns a non-2xx response body into an *APIError. Bodies that do
// not carry the envelope become a generic error with the raw status.
func parseError(statusCode int, body []byte) error {
	var envelope struct {
		Code        string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Code == "" {
		return &APIError{
			StatusCode:  statusCode,
			Code:        ErrorCodeServerError,
			Description: fmt.Sprintf("unexpected response (status %d)", statusCode),
		}
	}
	return &APIError{
		StatusCode:  statusCode,
		Code:        envelope.Code,
		Description: envelope.Description,
	}
}

// isRefreshTrigger reports whether an authenticated request failure should
// be repaired by exchanging the refresh credential. Expiry and a stale
// identity snapshot qualify; a malformed credential indicates tampering and
// must force logout without a refresh attempt.
func isRefreshTrigger(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case ErrorCodeExpiredCredential, ErrorCodeUnknownIdentity:
		return true
	default:
		return false
	}
}

// isTamperedCredential reports whether the server flagged the credential as
// malformed, which the client treats as unrecoverable.
func isTamperedCredential(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == ErrorCodeMalformedCredential
}
