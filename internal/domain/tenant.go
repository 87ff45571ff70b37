package domain

import (
	"strings"
	"time"
)

// Tenant is a subscribing business. An empty Slug means no routing key has been
// assigned yet; such a tenant is not reachable by any routable login.
type Tenant struct {
	ID                string
	BusinessName      string
	Slug              string
	Category          string
	CurrencyCode      string
	CurrencySymbol    string
	TaxRate           float64
	SubscriptionStart time.Time
	SubscriptionEnd   time.Time
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Routable reports whether logins can reach the tenant.
func (t Tenant) Routable() bool {
	return t.Active && t.Slug != ""
}

// Health classifies the tenant's subscription against now.
func (t Tenant) Health(now time.Time) Health {
	return Classify(t.SubscriptionEnd, now)
}

// Branch is a physical location owned by exactly one tenant.
type Branch struct {
	ID        string
	TenantID  string
	Name      string
	Address   string
	Phone     string
	IsMain    bool
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BranchAttrs holds the caller-supplied fields of a branch.
type BranchAttrs struct {
	Name    string
	Address string
	Phone   string
}

// Normalize trims the attributes and checks the name is present.
func (a BranchAttrs) Normalize() (BranchAttrs, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Address = strings.TrimSpace(a.Address)
	a.Phone = strings.TrimSpace(a.Phone)
	if a.Name == "" {
		return a, required("name")
	}
	if len(a.Name) > 100 {
		return a, &ValidationError{Field: "name", Reason: ReasonTooLong, Message: "branch name must be at most 100 characters"}
	}
	return a, nil
}

// NewBranch creates an active branch.
func NewBranch(id, tenantID string, attrs BranchAttrs, isMain bool, now time.Time) Branch {
	return Branch{
		ID:        id,
		TenantID:  tenantID,
		Name:      attrs.Name,
		Address:   attrs.Address,
		Phone:     attrs.Phone,
		IsMain:    isMain,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MatchesName reports whether a typed confirmation equals the branch name,
// ignoring case and surrounding whitespace.
func (b Branch) MatchesName(confirm string) bool {
	return strings.EqualFold(strings.TrimSpace(confirm), strings.TrimSpace(b.Name))
}

// Dependents counts the records that reference a branch.
type Dependents struct {
	Users    int
	Sales    int
	Products int
}

// Total is the sum of all dependent records.
func (d Dependents) Total() int {
	return d.Users + d.Sales + d.Products
}

// User is a staff login. The core only creates the owner at approval time.
type User struct {
	ID           string
	TenantID     string
	BranchID     string
	Username     string
	PasswordHash string
	Role         RoleName
	FullName     string
	Active       bool
	CreatedAt    time.Time
}

// TenantFilter holds optional criteria for listing tenants.
type TenantFilter struct {
	Active *bool
	Tier   *Tier
	Limit  int
	Offset int
}
