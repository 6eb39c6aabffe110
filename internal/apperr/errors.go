// Package apperr defines the error taxonomy shared by services and handlers:
// RequestError for business-rule violations, ValidationError for malformed
// input and InternalError for store or transport failures.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestError is a caller-fixable failure such as not-found or forbidden.
type RequestError struct {
	Status   int
	Message  string
	Internal error
}

func (e *RequestError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Internal }

// Is matches another RequestError with the same status and message, so a
// sentinel still matches after WithInternal copied it.
func (e *RequestError) Is(target error) bool {
	t, ok := target.(*RequestError)
	if !ok {
		return false
	}
	return e.Status == t.Status && e.Message == t.Message
}

// WithInternal returns a copy of e carrying the underlying cause.
func (e *RequestError) WithInternal(err error) *RequestError {
	return &RequestError{Status: e.Status, Message: e.Message, Internal: err}
}

func New(status int, message string) *RequestError {
	return &RequestError{Status: status, Message: message}
}

func BadRequest(message string) *RequestError   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *RequestError { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *RequestError    { return New(http.StatusForbidden, message) }
func NotFound(message string) *RequestError     { return New(http.StatusNotFound, message) }
func Conflict(message string) *RequestError     { return New(http.StatusConflict, message) }

// ValidationError reports malformed or missing input, keyed by field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// FromValidator converts validator/v10 output. Errors of any other type are
// reported under the "body" key.
func FromValidator(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Invalid("body", err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[lowerFirst(fe.Field())] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "email":
		return "must be a valid email"
	default:
		return "failed " + fe.Tag()
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// InternalError wraps an unexpected failure. Its message never reaches the caller.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *InternalError) Unwrap() error { return e.Err }

// Internal wraps err with the failing operation name. A nil err stays nil.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InternalError{Op: op, Err: err}
}

// HTTPStatus maps any error to the status the caller should see.
func HTTPStatus(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage is the message safe to show the caller.
func PublicMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status < 500 {
		return reqErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return "validation failed"
	}
	return http.StatusText(http.StatusInternalServerError)
}

// ShouldLog reports whether err needs a server-side log line: anything that
// maps to 5xx or carries an internal cause.
func ShouldLog(err error) bool {
	if HTTPStatus(err) >= 500 {
		return true
	}
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Internal != nil
}
