package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on Code so clones and wrapped copies compare equal to the predefined values.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden  = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrLockHeld   = New("LOCK_HELD", http.StatusConflict, "operation already running")
)

// Validation errors are caller-correctable and never retried.
var (
	ErrInvalidDueDate           = New("INVALID_DUE_DATE", http.StatusBadRequest, "due date must be in the future")
	ErrMissingRoutingAttribute  = New("MISSING_ROUTING_ATTRIBUTE", http.StatusUnprocessableEntity, "submitter has no routing district")
	ErrCustomNumberNotPermitted = New("CUSTOM_NUMBER_NOT_PERMITTED", http.StatusBadRequest, "only government submitters may supply an appeal number")
)

// Conflict errors are expected business outcomes surfaced as guidance.
var (
	ErrActiveAppealExists       = New("ACTIVE_APPEAL_EXISTS", http.StatusConflict, "you already have an active appeal")
	ErrDuplicateApprovalRequest = New("DUPLICATE_APPROVAL_REQUEST", http.StatusConflict, "you already have a pending approval request")
	ErrRequestAlreadyResolved   = New("REQUEST_ALREADY_RESOLVED", http.StatusConflict, "approval request already resolved")
	ErrDuplicateAppealNumber    = New("DUPLICATE_APPEAL_NUMBER", http.StatusConflict, "appeal number already in use")
	ErrInvalidTransition        = New("INVALID_TRANSITION", http.StatusConflict, "transition not allowed in current status")
	ErrNoActiveAppeal           = New("NO_ACTIVE_APPEAL", http.StatusConflict, "you have no active appeal; file a new appeal instead")
)

// Not-found errors.
var (
	ErrAppealNotFound          = New("APPEAL_NOT_FOUND", http.StatusNotFound, "appeal not found")
	ErrSubmitterNotFound       = New("SUBMITTER_NOT_FOUND", http.StatusNotFound, "submitter not found")
	ErrAnswerNotFound          = New("ANSWER_NOT_FOUND", http.StatusNotFound, "answer not found")
	ErrApprovalRequestNotFound = New("APPROVAL_REQUEST_NOT_FOUND", http.StatusNotFound, "approval request not found")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps a store or infrastructure failure without altering the cause.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
