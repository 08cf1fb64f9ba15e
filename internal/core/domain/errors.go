package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Session errors surfaced by the request client.
var (
	ErrNoRefreshToken        = errors.New("no refresh token found")
	ErrRefreshNotImplemented = errors.New("refresh token logic not implemented")
	ErrStaleResponse         = errors.New("response superseded by a newer request")
)

// GenericTransportMessage is the message for failures where no response arrived.
const GenericTransportMessage = "network error: no response from server"

// APIError is the normalized shape of every failed backend call.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	cause   error
}

// NewAPIError builds an error for an HTTP status.
func NewAPIError(code int, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// NewTransportError wraps a failure where the server never answered.
func NewTransportError(cause error) *APIError {
	return &APIError{
		Code:    http.StatusInternalServerError,
		Message: GenericTransportMessage,
		cause:   cause,
	}
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Code)
	}
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// IsUnauthorized reports a 401 from the backend.
func (e *APIError) IsUnauthorized() bool {
	return e.Code == http.StatusUnauthorized
}

// AsAPIError extracts an *APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err carries a 401 response.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsUnauthorized()
}
