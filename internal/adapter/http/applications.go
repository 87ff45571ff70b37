package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// --- Submit Application ---

type SubmitApplicationInput struct {
	Body struct {
		BusinessName     string `json:"business_name" maxLength:"255" doc:"Business name, unique across tenants"`
		BusinessCategory string `json:"business_category,omitempty" maxLength:"100"`
		OwnerName        string `json:"owner_name" maxLength:"255"`
		Email            string `json:"email" maxLength:"255"`
		Phone            string `json:"phone,omitempty" maxLength:"50"`
		Address          string `json:"address,omitempty" maxLength:"500"`
		Username         string `json:"username" maxLength:"100" doc:"Login of the owner account created on approval"`
		Password         string `json:"password" maxLength:"72" doc:"Owner password; stored hashed"`
	}
}

type ApplicationOutput struct {
	Body ApplicationResponse
}

// --- List / Get Applications ---

type ListApplicationsInput struct {
	Status string `query:"status" required:"false" enum:"PENDING,APPROVED,REJECTED" doc:"Filter by status"`
	Limit  int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListApplicationsOutput struct {
	Body []ApplicationResponse
}

type ApplicationIDInput struct {
	ID string `path:"id" doc:"Application ID"`
}

// --- Approve / Reject ---

type ApproveApplicationInput struct {
	ID   string `path:"id" doc:"Application ID"`
	Body struct {
		Slug   string `json:"slug" doc:"Slug assigned to the new tenant"`
		Months int    `json:"months" doc:"Initial subscription length in months"`
	}
}

type ApproveApplicationOutput struct {
	Body struct {
		Application ApplicationResponse `json:"application"`
		Tenant      TenantResponse      `json:"tenant"`
		Branch      BranchResponse      `json:"branch"`
		OwnerID     string              `json:"owner_id"`
	}
}

type RejectInput struct {
	ID   string `path:"id"`
	Body struct {
		Reason string `json:"reason" doc:"Why the request was rejected"`
	}
}

func (h *handlers) registerApplications(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-application",
		Method:        http.MethodPost,
		Path:          "/api/v1/applications",
		Summary:       "Apply to become a tenant",
		Tags:          []string{"Applications"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *SubmitApplicationInput) (*ApplicationOutput, error) {
		b := input.Body
		a, err := h.applications.Submit(ctx, domain.ApplicationForm{
			BusinessName:     b.BusinessName,
			BusinessCategory: b.BusinessCategory,
			OwnerName:        b.OwnerName,
			Email:            b.Email,
			Phone:            b.Phone,
			Address:          b.Address,
			Username:         b.Username,
			Password:         b.Password,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApplicationOutput{Body: toApplicationResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-applications",
		Method:      http.MethodGet,
		Path:        "/api/v1/applications",
		Summary:     "List tenant applications",
		Tags:        []string{"Applications"},
	}, func(ctx context.Context, input *ListApplicationsInput) (*ListApplicationsOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		filter := domain.RequestFilter{Limit: input.Limit, Offset: input.Offset}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		apps, err := h.applications.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]ApplicationResponse, len(apps))
		for i, a := range apps {
			resp[i] = toApplicationResponse(a)
		}
		return &ListApplicationsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-application",
		Method:      http.MethodGet,
		Path:        "/api/v1/applications/{id}",
		Summary:     "Get a tenant application",
		Tags:        []string{"Applications"},
	}, func(ctx context.Context, input *ApplicationIDInput) (*ApplicationOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		a, err := h.applications.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApplicationOutput{Body: toApplicationResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-application",
		Method:      http.MethodPost,
		Path:        "/api/v1/applications/{id}/approve",
		Summary:     "Approve an application and provision its tenant",
		Tags:        []string{"Applications"},
	}, func(ctx context.Context, input *ApproveApplicationInput) (*ApproveApplicationOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		p, err := h.applications.Approve(ctx, input.ID, input.Body.Slug, input.Body.Months)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ApproveApplicationOutput{}
		out.Body.Application = toApplicationResponse(p.Application)
		out.Body.Tenant = toTenantResponse(p.Tenant, p.Tenant.Health(h.clock.Now()))
		out.Body.Branch = toBranchResponse(p.Branch)
		out.Body.OwnerID = p.Owner.ID
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-application",
		Method:      http.MethodPost,
		Path:        "/api/v1/applications/{id}/reject",
		Summary:     "Reject an application",
		Tags:        []string{"Applications"},
	}, func(ctx context.Context, input *RejectInput) (*ApplicationOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		a, err := h.applications.Reject(ctx, input.ID, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ApplicationOutput{Body: toApplicationResponse(a)}, nil
	})
}
