package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a case-management failure carrying the HTTP status the API reports for it.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so a message override from Clone still matches its sentinel.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil {
		return false
	}
	return e.Code == other.Code
}

func define(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// API-facing sentinels. Handlers and services return these or a Clone of them.
var (
	ErrNotFound           = define("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = define("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = define("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = define("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = define("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = define("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = define("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrWrongStage         = define("WRONG_WORKFLOW_STAGE", http.StatusPreconditionFailed, "application is not at the required workflow stage")
	ErrStepLocked         = define("STEP_CANNOT_START", http.StatusPreconditionFailed, "review step cannot start yet")
	ErrLinkExpired        = define("LINK_EXPIRED", http.StatusUnauthorized, "access link expired")
)

// Cache signals. They never reach a response.
var (
	ErrCacheMiss  = errors.New("cache: entry not found")
	ErrCacheStale = errors.New("cache: entry superseded by an invalidation")
)

// Wrap attaches a cause to a new error with the given code and status.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Validation wraps a request binding or validator failure.
func Validation(err error, message string) *Error {
	return Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
}

// Internal wraps an unexpected failure behind the generic internal error.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// FromError maps any error onto an *Error, hiding unknown causes behind ErrInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, ErrInternal.Message)
}

// Clone copies a sentinel, replacing its message when one is given.
func Clone(err *Error, message string) *Error {
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
