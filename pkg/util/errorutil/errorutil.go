package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// ScopeRequest is the default failure scope reported to clients.
const ScopeRequest = "request"

// DomainError standardizes application errors.
//
// Scope names the part of the request that failed (a field name such as
// "email", or "request" for the request as a whole). It is rendered as the
// "failed" member of the response body and omitted when empty.
type DomainError struct {
	Code       string
	Scope      string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, scope, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Scope: scope, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError reports invalid client input for the given scope.
func NewValidationError(scope, message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", scope, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Scope:      resource,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUnauthenticated is returned when the caller has no valid identity.
// The body carries no scope.
func NewUnauthenticated(message string) error {
	return NewDomainError("UNAUTHENTICATED", "", message, http.StatusUnauthorized, nil)
}

// NewForbidden is returned when an authenticated caller lacks permission.
// It shares the 401 status with NewUnauthenticated but is reported with the
// "request" scope so clients can tell the two apart.
func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", ScopeRequest, message, http.StatusUnauthorized, nil)
}

func NewConflict(scope, message string, details map[string]any) error {
	return NewDomainError("CONFLICT", scope, message, http.StatusBadRequest, details)
}

func NewTooManyRequests(message string, retryAfterSeconds int) error {
	return NewDomainError("RATE_LIMITED", ScopeRequest, message, http.StatusTooManyRequests, map[string]any{
		"retry_after": retryAfterSeconds,
	})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Scope:      ScopeRequest,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		scope := ScopeRequest
		if fiberErr.Code == http.StatusNotFound {
			scope = "route"
		}
		return &DomainError{
			Code:       fmt.Sprintf("HTTP_%d", fiberErr.Code),
			Scope:      scope,
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return NewInternalError(err).(*DomainError)
}

// Response renders the client-facing body for err.
func Response(err *DomainError) fiber.Map {
	body := fiber.Map{
		"success": false,
		"message": err.Message,
	}
	if err.Scope != "" {
		body["failed"] = err.Scope
	}
	if len(err.Details) > 0 {
		body["details"] = err.Details
	}
	return body
}
