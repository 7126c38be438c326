package scheduling

import (
	"errors"
	"fmt"
)

// Code identifies a business rejection. Codes are stable and safe to show.
type Code string

const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInvalidDate         Code = "INVALID_DATE"
	CodeNotFound            Code = "NOT_FOUND"
	CodeForbidden           Code = "FORBIDDEN"
	CodePastDate            Code = "PAST_DATE"
	CodeTooFarAhead         Code = "TOO_FAR_AHEAD"
	CodeOutsideAvailability Code = "OUTSIDE_AVAILABILITY"
	CodeBlockedSlot         Code = "BLOCKED_SLOT"
	CodeProviderConflict    Code = "PROVIDER_CONFLICT"
	CodeCustomerConflict    Code = "CUSTOMER_CONFLICT"
	CodeAlreadyCompleted    Code = "ALREADY_COMPLETED"
	CodeTooLateToCancel     Code = "TOO_LATE_TO_CANCEL"
	CodeAvailabilityExists  Code = "AVAILABILITY_EXISTS"
	CodeTryAgain            Code = "TRY_AGAIN"
)

// Error is an expected, user facing outcome. Anything else returned by this
// package is an infrastructure failure.
type Error struct {
	Code    Code
	Message string
	Params  map[string]any
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func (e *Error) with(key string, v any) *Error {
	if e.Params == nil {
		e.Params = map[string]any{}
	}
	e.Params[key] = v
	return e
}

// CodeOf returns the business code of err, or "" for infrastructure errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func NotFound(what string) *Error {
	return newError(CodeNotFound, what+" not found")
}

func InvalidInput(msg string) *Error {
	return newError(CodeInvalidInput, msg)
}

func Forbidden(msg string) *Error {
	return newError(CodeForbidden, msg)
}

// Conflict is the outcome of the checks run inside the booking transaction.
type Conflict int

const (
	ConflictNone Conflict = iota
	ConflictOutsideAvailability
	ConflictBlockedSlot
	ConflictProvider
	ConflictCustomer
)

func (c Conflict) String() string {
	switch c {
	case ConflictNone:
		return "none"
	case ConflictOutsideAvailability:
		return string(CodeOutsideAvailability)
	case ConflictBlockedSlot:
		return string(CodeBlockedSlot)
	case ConflictProvider:
		return string(CodeProviderConflict)
	case ConflictCustomer:
		return string(CodeCustomerConflict)
	default:
		return fmt.Sprintf("Conflict(%d)", int(c))
	}
}

// Err converts a conflict into its rejection; ConflictNone yields nil.
func (c Conflict) Err() error {
	switch c {
	case ConflictOutsideAvailability:
		return newError(CodeOutsideAvailability, "time is outside the provider's availability")
	case ConflictBlockedSlot:
		return newError(CodeBlockedSlot, "time is blocked by the provider")
	case ConflictProvider:
		return newError(CodeProviderConflict, "provider already has an appointment at this time")
	case ConflictCustomer:
		return newError(CodeCustomerConflict, "you already have an appointment at this time")
	default:
		return nil
	}
}
