package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound      = errors.New("entity not found")
	ErrConflict      = errors.New("conflicting active record exists")
	ErrNotEligible   = errors.New("eligibility requirements not met")
	ErrLimitExceeded = errors.New("requested amount exceeds allowed limit")
	ErrNotAuthorized = errors.New("caller does not own the referenced record")
	ErrInvalidState  = errors.New("operation not permitted from current state")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeNotEligible   = "NOT_ELIGIBLE"
	ErrCodeLimitExceeded = "LIMIT_EXCEEDED"
	ErrCodeNotAuthorized = "NOT_AUTHORIZED"
	ErrCodeInvalidState  = "INVALID_STATE"
	ErrCodeDatabaseError = "DATABASE_ERROR"
)

// CodeOf extracts the business error code, or DATABASE_ERROR for anything else.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ErrCodeDatabaseError
}

// Wrap common errors with business context
func WrapNotFound(entity string, id any) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s %v not found", entity, id),
		ErrNotFound,
	)
}

func WrapActiveLoanExists(memberID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeConflict,
		fmt.Sprintf("member %d already has an active loan application", memberID),
		ErrConflict,
	)
}

func WrapConflict(message string) *BusinessError {
	return NewBusinessError(ErrCodeConflict, message, ErrConflict)
}

func WrapNotEligible(message string) *BusinessError {
	return NewBusinessError(ErrCodeNotEligible, message, ErrNotEligible)
}

func WrapLimitExceeded(requested, max string) *BusinessError {
	return NewBusinessError(
		ErrCodeLimitExceeded,
		fmt.Sprintf("requested amount %s exceeds the maximum limit %s", requested, max),
		ErrLimitExceeded,
	)
}

func WrapNotAuthorized(message string) *BusinessError {
	return NewBusinessError(ErrCodeNotAuthorized, message, ErrNotAuthorized)
}

// WrapInvalidState names the status the operation requires and the status it found.
func WrapInvalidState(required, actual string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidState,
		fmt.Sprintf("operation requires status %s but found %s", required, actual),
		ErrInvalidState,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}
