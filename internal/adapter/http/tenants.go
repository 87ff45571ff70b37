package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// --- List Tenants ---

type ListTenantsInput struct {
	Active string `query:"active" required:"false" enum:"true,false" doc:"Filter by active flag"`
	Tier   string `query:"tier" required:"false" enum:"healthy,warning,critical,expired" doc:"Filter by subscription health"`
	Limit  int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListTenantsOutput struct {
	Body []TenantResponse
}

// --- Get Tenant ---

type TenantIDInput struct {
	ID string `path:"id" doc:"Tenant ID"`
}

type TenantOutput struct {
	Body TenantResponse
}

type TenantDetailOutput struct {
	Body TenantDetailResponse
}

// --- Mutations ---

type UpdateSlugInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Slug string `json:"slug" doc:"New routing key"`
	}
}

type ExtendSubscriptionInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Months int `json:"months" doc:"Months to add, 1 to 120"`
	}
}

type SetTenantStatusInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		Active bool `json:"active" doc:"Whether the tenant's users may log in"`
	}
}

type DeleteTenantInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body struct {
		ConfirmName string `json:"confirm_name" doc:"The tenant's business name, typed to confirm"`
	}
}

func (h *handlers) registerTenants(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants",
		Summary:     "List tenants with subscription health",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		filter := domain.TenantFilter{Limit: input.Limit, Offset: input.Offset}
		if input.Active != "" {
			active := input.Active == "true"
			filter.Active = &active
		}
		if input.Tier != "" {
			tier := domain.Tier(input.Tier)
			filter.Tier = &tier
		}

		summaries, err := h.governance.ListTenants(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TenantResponse, len(summaries))
		for i, s := range summaries {
			resp[i] = toSummaryResponse(s)
		}
		return &ListTenantsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}",
		Summary:     "Get a tenant with its branches",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *TenantIDInput) (*TenantDetailOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, false); err != nil {
			return nil, toHumaError(err)
		}

		d, err := h.governance.GetTenant(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantDetailOutput{Body: TenantDetailResponse{
			TenantResponse: toSummaryResponse(d.TenantSummary),
			Branches:       toBranchResponses(d.Branches),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant-slug",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/slug",
		Summary:     "Assign or change a tenant's slug",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateSlugInput) (*TenantOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		t, err := h.governance.UpdateSlug(ctx, input.ID, input.Body.Slug)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantOutput{Body: toTenantResponse(t, t.Health(h.clock.Now()))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "extend-subscription",
		Method:      http.MethodPost,
		Path:        "/api/v1/tenants/{id}/subscription/extend",
		Summary:     "Extend a tenant's subscription",
		Description: "An expired subscription restarts from now; an active one is extended from its end.",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ExtendSubscriptionInput) (*TenantOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		s, err := h.governance.ExtendSubscription(ctx, input.ID, input.Body.Months)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantOutput{Body: toSummaryResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-tenant-status",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/status",
		Summary:     "Activate or deactivate a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *SetTenantStatusInput) (*TenantOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		t, err := h.governance.SetStatus(ctx, input.ID, input.Body.Active)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TenantOutput{Body: toTenantResponse(t, t.Health(h.clock.Now()))}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-tenant",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tenants/{id}",
		Summary:       "Delete a tenant and everything it owns",
		Tags:          []string{"Tenants"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeleteTenantInput) (*struct{}, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		if err := h.governance.DeleteTenant(ctx, input.ID, input.Body.ConfirmName); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})
}
