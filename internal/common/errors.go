// File: internal/common/errors.go
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// APIError represents a standard structure for API errors, both the ones returned by the
// remote backend and the ones this process answers with.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("APIError: StatusCode=%d, Code=%s, Message=%s", e.StatusCode, e.Code, e.Message)
}

// Is matches API errors by status code and code so copies made by WithDetails still
// compare equal to the package-level values.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Code == t.Code
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details. The receiver is left untouched.
func (e *APIError) WithDetails(details interface{}) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrBadRequest           = NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid.")
	ErrUnauthorized         = NewAPIError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required and has failed or has not yet been provided.")
	ErrForbidden            = NewAPIError(http.StatusForbidden, "FORBIDDEN", "You do not have permission to access this resource.")
	ErrNotFound             = NewAPIError(http.StatusNotFound, "NOT_FOUND", "The requested resource could not be found.")
	ErrConflict             = NewAPIError(http.StatusConflict, "CONFLICT", "A conflict occurred with the current state of the resource.")
	ErrConfirmationRequired = NewAPIError(http.StatusPreconditionRequired, "CONFIRMATION_REQUIRED", "This action is irreversible and must be explicitly confirmed.")
	ErrUnprocessableEntity  = NewAPIError(http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", "The request was well-formed but was unable to be followed due to semantic errors.")
	ErrInternalServer       = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred.")
	ErrBadGateway           = NewAPIError(http.StatusBadGateway, "BAD_GATEWAY", "The remote service could not be reached.")
	ErrServiceUnavailable   = NewAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "The service is currently unable to handle the request.")
)

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NewRemoteError builds the error for a non-2xx answer from the remote backend.
func NewRemoteError(statusCode int, message string) *APIError {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(statusCode)
	}
	return &APIError{StatusCode: statusCode, Code: "REMOTE_ERROR", Message: message}
}

func NewValidationAPIError(details interface{}) *APIError {
	return &APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "VALIDATION_ERROR",
		Message:    "Input validation failed.",
		Details:    details,
	}
}

// AuthErrorKind classifies failures reported by the auth provider.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthNetworkError       AuthErrorKind = "network_error"
)

// AuthError is returned by sign-in, registration and profile updates against the auth provider.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth: %s", e.Kind)
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an AuthError of the given kind.
func IsAuthError(err error, kind AuthErrorKind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == kind
}

// ErrInvalidTransition is the sentinel matched by every TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError is a client-side policy rejection. It is produced before any network call.
type TransitionError struct {
	RecordType string
	Role       string
	From       string
	To         string
	Reason     string
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("invalid transition on %s by %s: %s", e.RecordType, e.Role, e.Reason)
	}
	return fmt.Sprintf("invalid transition on %s from %q to %q by %s: %s", e.RecordType, e.From, e.To, e.Role, e.Reason)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// MutationError wraps the failure of a write path (patch or delete).
type MutationError struct {
	Op       string
	RecordID string
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.RecordID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// FormatValidationErrors converts validator.ValidationErrors into a map.
func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMap := make(map[string]string)
	for _, e := range errs {
		field := e.Field()
		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("The %s field is required.", strings.ToLower(field))
		case "email":
			message = fmt.Sprintf("The %s field must be a valid email address.", strings.ToLower(field))
		case "min":
			message = fmt.Sprintf("The %s field must be at least %s.", strings.ToLower(field), e.Param())
		case "max":
			message = fmt.Sprintf("The %s field may not be greater than %s.", strings.ToLower(field), e.Param())
		case "gt":
			message = fmt.Sprintf("The %s field must be greater than %s.", strings.ToLower(field), e.Param())
		case "oneof":
			message = fmt.Sprintf("The %s field must be one of the following values: %s.", strings.ToLower(field), e.Param())
		case "url":
			message = fmt.Sprintf("The %s field must be a valid URL.", strings.ToLower(field))
		case "datetime":
			message = fmt.Sprintf("The %s field must be a valid datetime in the format %s.", strings.ToLower(field), e.Param())
		default:
			message = fmt.Sprintf("Field validation for '%s' failed on the '%s' tag.", field, e.Tag())
		}
		errorMap[field] = message
	}
	return errorMap
}

// ValidationError turns a validator failure (or any other binding error) into an APIError.
func ValidationError(err error) *APIError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return NewValidationAPIError(FormatValidationErrors(ve))
	}
	return ErrBadRequest.WithDetails(err.Error())
}
