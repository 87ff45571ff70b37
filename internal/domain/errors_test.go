package domain_test

import (
	"testing"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

func TestSlugConflictError_Error(t *testing.T) {
	err := &domain.SlugConflictError{Slug: "acme"}
	want := `slug "acme" is already in use`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestConflictError_Error(t *testing.T) {
	err := &domain.ConflictError{Field: "business_name", Value: "Acme Shop"}
	want := `business_name "Acme Shop" is already in use`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		Machine: domain.MachineApplication,
		Event:   domain.EventReject,
		Current: domain.StatusApproved,
	}
	want := `application: event "reject" is not valid from state "APPROVED"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError_Error(t *testing.T) {
	withMessage := &domain.ValidationError{Field: "slug", Reason: domain.ReasonReserved, Message: "slug admin is reserved"}
	if got := withMessage.Error(); got != "slug admin is reserved" {
		t.Errorf("Error() = %q", got)
	}

	bare := &domain.ValidationError{Field: "months", Reason: domain.ReasonOutOfRange}
	if got, want := bare.Error(), "months is invalid: out_of_range"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
