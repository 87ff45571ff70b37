package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Application is a request from a business to become a tenant.
type Application struct {
	ID               string
	BusinessName     string
	BusinessCategory string
	OwnerName        string
	Email            string
	Phone            string
	Address          string
	Username         string
	PasswordHash     string
	Status           Status
	RejectionReason  string
	TenantID         string
	CreatedAt        time.Time
	DecidedAt        *time.Time
}

// ApplicationForm is the public submission before the credential is hashed.
type ApplicationForm struct {
	BusinessName     string
	BusinessCategory string
	OwnerName        string
	Email            string
	Phone            string
	Address          string
	Username         string
	Password         string
}

// Normalize trims the form and validates required fields.
func (f ApplicationForm) Normalize() (ApplicationForm, error) {
	f.BusinessName = strings.Join(strings.Fields(f.BusinessName), " ")
	f.BusinessCategory = strings.TrimSpace(f.BusinessCategory)
	f.OwnerName = strings.TrimSpace(f.OwnerName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.Username = strings.ToLower(strings.TrimSpace(f.Username))

	switch {
	case f.BusinessName == "":
		return f, required("business_name")
	case f.OwnerName == "":
		return f, required("owner_name")
	case f.Email == "":
		return f, required("email")
	case f.Username == "":
		return f, required("username")
	case f.Password == "":
		return f, required("password")
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return f, &ValidationError{Field: "email", Reason: ReasonInvalidChars, Message: "email address is not valid"}
	}
	if len(f.Username) < 3 {
		return f, &ValidationError{Field: "username", Reason: ReasonTooShort, Message: "username must be at least 3 characters"}
	}
	if len(f.Password) < 8 {
		return f, &ValidationError{Field: "password", Reason: ReasonTooShort, Message: "password must be at least 8 characters"}
	}
	return f, nil
}

// NewApplication creates a pending application from a normalized form.
func NewApplication(id string, f ApplicationForm, passwordHash string, now time.Time) Application {
	return Application{
		ID:               id,
		BusinessName:     f.BusinessName,
		BusinessCategory: f.BusinessCategory,
		OwnerName:        f.OwnerName,
		Email:            f.Email,
		Phone:            f.Phone,
		Address:          f.Address,
		Username:         f.Username,
		PasswordHash:     passwordHash,
		Status:           StatusPending,
		CreatedAt:        now,
	}
}

// BranchRequest asks the platform to add a branch to a tenant.
type BranchRequest struct {
	ID        string
	TenantID  string
	Attrs     BranchAttrs
	Status    Status
	Reason    string
	BranchID  string
	CreatedAt time.Time
	DecidedAt *time.Time
}

// RequestFilter holds optional criteria for listing applications or branch requests.
type RequestFilter struct {
	Status   *Status
	TenantID string
	Limit    int
	Offset   int
}

// NormalizeReason trims a rejection reason and requires it to be present.
func NormalizeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", required("reason")
	}
	return reason, nil
}
