package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound        = errors.New("tenant not found")
	ErrBranchNotFound        = errors.New("branch not found")
	ErrApplicationNotFound   = errors.New("application not found")
	ErrBranchRequestNotFound = errors.New("branch request not found")

	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("access denied")
	ErrTenantInactive    = errors.New("tenant is inactive")
	ErrTenantNotRoutable = errors.New("tenant has no slug assigned")
)

// Validation reasons. They are stable identifiers callers can switch on.
const (
	ReasonRequired              = "required"
	ReasonTooShort              = "too_short"
	ReasonTooLong               = "too_long"
	ReasonInvalidChars          = "invalid_chars"
	ReasonReserved              = "reserved"
	ReasonOutOfRange            = "out_of_range"
	ReasonNameMismatch          = "name_mismatch"
	ReasonTransferRequired      = "transfer_required"
	ReasonTransferTargetInvalid = "transfer_target_invalid"
	ReasonBranchInactive        = "branch_inactive"
)

// Invariant rules.
const (
	RuleLastBranch     = "last_branch"
	RuleMainBranch     = "main_branch"
	RuleTenantMismatch = "tenant_mismatch"
)

// ValidationError is returned when caller input is malformed. It is recoverable
// by resubmitting corrected input.
type ValidationError struct {
	Field   string
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is invalid: %s", e.Field, e.Reason)
}

// SlugConflictError is returned when a tenant slug is already in use.
type SlugConflictError struct {
	Slug string
}

func (e *SlugConflictError) Error() string {
	return fmt.Sprintf("slug %q is already in use", e.Slug)
}

// ConflictError is returned when a unique value other than the slug is taken.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is already in use", e.Field, e.Value)
}

// InvariantError is returned when an operation would break a lifecycle rule.
// It is always raised before any write happens.
type InvariantError struct {
	Rule    string
	Message string
}

func (e *InvariantError) Error() string {
	return e.Message
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Machine Machine
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: event %q is not valid from state %q", e.Machine, e.Event, e.Current)
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: ReasonRequired, Message: field + " is required"}
}
