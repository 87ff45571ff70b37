package http

import (
	"time"

	"github.com/neomorfeo/tenantpos/internal/app"
	"github.com/neomorfeo/tenantpos/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// HealthResponse is the derived subscription state of a tenant.
type HealthResponse struct {
	Tier          string `json:"tier" enum:"healthy,warning,critical,expired" doc:"Subscription health tier"`
	DaysRemaining int    `json:"days_remaining" doc:"Whole days until the subscription ends, rounded up"`
}

func toHealthResponse(h domain.Health) HealthResponse {
	return HealthResponse{Tier: string(h.Tier), DaysRemaining: h.DaysRemaining}
}

// TenantResponse is the API representation of a tenant.
type TenantResponse struct {
	ID                string         `json:"id" doc:"Unique identifier"`
	BusinessName      string         `json:"business_name" doc:"Registered business name"`
	Slug              string         `json:"slug" doc:"Routing key, empty until assigned"`
	Category          string         `json:"category"`
	CurrencyCode      string         `json:"currency_code"`
	CurrencySymbol    string         `json:"currency_symbol"`
	TaxRate           float64        `json:"tax_rate"`
	SubscriptionStart string         `json:"subscription_start" doc:"Subscription start (ISO 8601)"`
	SubscriptionEnd   string         `json:"subscription_end" doc:"Subscription end (ISO 8601)"`
	Active            bool           `json:"active"`
	Health            HealthResponse `json:"health"`
	CreatedAt         string         `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt         string         `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toTenantResponse(t domain.Tenant, h domain.Health) TenantResponse {
	return TenantResponse{
		ID:                t.ID,
		BusinessName:      t.BusinessName,
		Slug:              t.Slug,
		Category:          t.Category,
		CurrencyCode:      t.CurrencyCode,
		CurrencySymbol:    t.CurrencySymbol,
		TaxRate:           t.TaxRate,
		SubscriptionStart: formatTime(t.SubscriptionStart),
		SubscriptionEnd:   formatTime(t.SubscriptionEnd),
		Active:            t.Active,
		Health:            toHealthResponse(h),
		CreatedAt:         formatTime(t.CreatedAt),
		UpdatedAt:         formatTime(t.UpdatedAt),
	}
}

func toSummaryResponse(s app.TenantSummary) TenantResponse {
	return toTenantResponse(s.Tenant, s.Health)
}

// BranchResponse is the API representation of a branch.
type BranchResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	IsMain    bool   `json:"is_main"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toBranchResponse(b domain.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		TenantID:  b.TenantID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		IsMain:    b.IsMain,
		IsActive:  b.IsActive,
		CreatedAt: formatTime(b.CreatedAt),
		UpdatedAt: formatTime(b.UpdatedAt),
	}
}

func toBranchResponses(branches []domain.Branch) []BranchResponse {
	resp := make([]BranchResponse, len(branches))
	for i, b := range branches {
		resp[i] = toBranchResponse(b)
	}
	return resp
}

// TenantDetailResponse is a tenant with its branches.
type TenantDetailResponse struct {
	TenantResponse
	Branches []BranchResponse `json:"branches"`
}

// ApplicationResponse is the API representation of a tenant application. The
// credential hash is never returned.
type ApplicationResponse struct {
	ID               string `json:"id"`
	BusinessName     string `json:"business_name"`
	BusinessCategory string `json:"business_category"`
	OwnerName        string `json:"owner_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	Username         string `json:"username"`
	Status           string `json:"status" enum:"PENDING,APPROVED,REJECTED"`
	Final            bool   `json:"final" doc:"True once the application can no longer change state"`
	RejectionReason  string `json:"rejection_reason,omitempty"`
	TenantID         string `json:"tenant_id,omitempty"`
	CreatedAt        string `json:"created_at"`
	DecidedAt        string `json:"decided_at,omitempty"`
}

func toApplicationResponse(a domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:               a.ID,
		BusinessName:     a.BusinessName,
		BusinessCategory: a.BusinessCategory,
		OwnerName:        a.OwnerName,
		Email:            a.Email,
		Phone:            a.Phone,
		Address:          a.Address,
		Username:         a.Username,
		Status:           string(a.Status),
		Final:            domain.IsTerminal(domain.MachineApplication, a.Status),
		RejectionReason:  a.RejectionReason,
		TenantID:         a.TenantID,
		CreatedAt:        formatTime(a.CreatedAt),
		DecidedAt:        formatNullTime(a.DecidedAt),
	}
}

// BranchRequestResponse is the API representation of a branch request.
type BranchRequestResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Status    string `json:"status" enum:"PENDING,APPROVED,REJECTED"`
	Final     bool   `json:"final" doc:"True once the request can no longer change state"`
	Reason    string `json:"reason,omitempty"`
	BranchID  string `json:"branch_id,omitempty"`
	CreatedAt string `json:"created_at"`
	DecidedAt string `json:"decided_at,omitempty"`
}

func toBranchRequestResponse(r domain.BranchRequest) BranchRequestResponse {
	return BranchRequestResponse{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Attrs.Name,
		Address:   r.Attrs.Address,
		Phone:     r.Attrs.Phone,
		Status:    string(r.Status),
		Final:     domain.IsTerminal(domain.MachineBranchRequest, r.Status),
		Reason:    r.Reason,
		BranchID:  r.BranchID,
		CreatedAt: formatTime(r.CreatedAt),
		DecidedAt: formatNullTime(r.DecidedAt),
	}
}

// DependentsResponse counts records referencing a branch.
type DependentsResponse struct {
	Users    int `json:"users"`
	Sales    int `json:"sales"`
	Products int `json:"products"`
	Total    int `json:"total"`
}

func toDependentsResponse(d domain.Dependents) DependentsResponse {
	return DependentsResponse{Users: d.Users, Sales: d.Sales, Products: d.Products, Total: d.Total()}
}

// ScopeResponse describes the routes a session may reach.
type ScopeResponse struct {
	Role           string          `json:"role"`
	UserID         string          `json:"user_id"`
	TenantID       string          `json:"tenant_id,omitempty"`
	TenantSlug     string          `json:"tenant_slug,omitempty"`
	BranchID       string          `json:"branch_id,omitempty"`
	Root           string          `json:"root"`
	Home           string          `json:"home"`
	Prefixes       []string        `json:"prefixes"`
	Impersonating  bool            `json:"impersonating"`
	ImpersonatorID string          `json:"impersonator_id,omitempty"`
	Health         *HealthResponse `json:"health,omitempty"`
}

func toScopeResponse(s domain.Scope) ScopeResponse {
	resp := ScopeResponse{
		Role:           string(s.Role.Name()),
		UserID:         s.UserID,
		TenantID:       s.TenantID,
		TenantSlug:     s.TenantSlug,
		BranchID:       s.BranchID,
		Root:           s.Root(),
		Home:           s.Home,
		Prefixes:       s.Prefixes,
		Impersonating:  s.Impersonating,
		ImpersonatorID: s.ImpersonatorID,
	}
	if s.Health != nil {
		h := toHealthResponse(*s.Health)
		resp.Health = &h
	}
	return resp
}
