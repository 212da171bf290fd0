// Package serviceerr defines the OAuth 2.0 error vocabulary used across the
// gateway. Codes follow RFC 6749 so they can be published verbatim in
// {error, error_description} response bodies.
package serviceerr

import "net/http"

// Code is an OAuth 2.0 error code as defined by RFC 6749 (sections 4.1.2.1
// and 5.2) and RFC 6750.
type Code string

const (
	// RFC 6749 authorization endpoint errors.
	CodeInvalidRequest          Code = "invalid_request"
	CodeUnauthorizedClient      Code = "unauthorized_client"
	CodeAccessDenied            Code = "access_denied"
	CodeUnsupportedResponseType Code = "unsupported_response_type"
	CodeInvalidScope            Code = "invalid_scope"
	CodeServerError             Code = "server_error"
	CodeTemporarilyUnavailable  Code = "temporarily_unavailable"

	// RFC 6749 token endpoint errors.
	CodeInvalidClient        Code = "invalid_client"
	CodeInvalidGrant         Code = "invalid_grant"
	CodeUnsupportedGrantType Code = "unsupported_grant_type"

	// RFC 6750 bearer token error.
	CodeInvalidToken Code = "invalid_token"
)

// Error carries an OAuth error code and an optional human readable
// description. It is the single error shape handlers translate into
// HTTP responses. Status, when set, fixes the HTTP status instead of
// deriving it from the code, so relayed upstream errors keep the status
// the upstream answered with.
type Error struct {
	Err         Code
	Description string
	Status      int
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Err)
	}

	return string(e.Err) + ": " + e.Description
}

// WithStatus returns a copy of the error pinned to the given HTTP status.
func (e *Error) WithStatus(status int) *Error {
	clone := *e
	clone.Status = status

	return &clone
}

// HTTPStatus maps the error code onto the HTTP status the endpoint
// publishes alongside the JSON error body. A pinned Status wins over
// the code mapping.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}

	switch e.Err {
	case CodeInvalidRequest,
		CodeUnsupportedResponseType,
		CodeInvalidScope,
		CodeInvalidClient,
		CodeInvalidGrant,
		CodeUnsupportedGrantType:
		return http.StatusBadRequest
	case CodeUnauthorizedClient, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeTemporarilyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates an Error with the given code and description.
func New(code Code, description string) *Error {
	return &Error{Err: code, Description: description}
}

// RFC 6749 errors without a fixed description.
var (
	ErrInvalidRequest          = &Error{Err: CodeInvalidRequest}
	ErrUnauthorizedClient      = &Error{Err: CodeUnauthorizedClient}
	ErrAccessDenied            = &Error{Err: CodeAccessDenied}
	ErrUnsupportedResponseType = &Error{Err: CodeUnsupportedResponseType}
	ErrInvalidScope            = &Error{Err: CodeInvalidScope}
	ErrServerError             = &Error{Err: CodeServerError}
	ErrTemporarilyUnavailable  = &Error{Err: CodeTemporarilyUnavailable}
	ErrInvalidClient           = &Error{Err: CodeInvalidClient}
	ErrInvalidGrant            = &Error{Err: CodeInvalidGrant}
	ErrUnsupportedGrantType    = &Error{Err: CodeUnsupportedGrantType}
)

// Errors with a fixed description, shared across handlers.
var (
	ErrStateExpired = &Error{Err: CodeInvalidRequest, Description: "state parameter has expired"}
	ErrUnauthorized = &Error{Err: CodeInvalidToken, Description: "token validation failed"}
)
