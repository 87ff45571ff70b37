package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantpos/internal/app"
	"github.com/neomorfeo/tenantpos/internal/domain"
)

// BranchBody carries editable branch attributes.
type BranchBody struct {
	Name    string `json:"name" maxLength:"255" doc:"Branch name"`
	Address string `json:"address,omitempty" maxLength:"500"`
	Phone   string `json:"phone,omitempty" maxLength:"50"`
}

func (b BranchBody) attrs() domain.BranchAttrs {
	return domain.BranchAttrs{Name: b.Name, Address: b.Address, Phone: b.Phone}
}

// --- Branch Reads ---

type ListBranchesInput struct {
	ID         string `path:"id" doc:"Tenant ID"`
	ActiveOnly bool   `query:"active_only" required:"false" doc:"Only return active branches"`
}

type ListBranchesOutput struct {
	Body []BranchResponse
}

type BranchIDInput struct {
	ID       string `path:"id" doc:"Tenant ID"`
	BranchID string `path:"branchId" doc:"Branch ID"`
}

type BranchOutput struct {
	Body BranchResponse
}

type DependentsOutput struct {
	Body DependentsResponse
}

type SummarizeDependentsInput struct {
	ID       string `path:"id" doc:"Tenant ID"`
	BranchID string `query:"branch_id" required:"false" doc:"Restrict to one branch; all branches when empty"`
}

// --- Branch Mutations ---

type CreateBranchInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body BranchBody
}

type UpdateBranchInput struct {
	ID       string `path:"id" doc:"Tenant ID"`
	BranchID string `path:"branchId" doc:"Branch ID"`
	Body     BranchBody
}

type SetBranchActiveInput struct {
	ID       string `path:"id" doc:"Tenant ID"`
	BranchID string `path:"branchId" doc:"Branch ID"`
	Body     struct {
		Active bool `json:"active"`
	}
}

type RetireBranchInput struct {
	ID       string `path:"id" doc:"Tenant ID"`
	BranchID string `path:"branchId" doc:"Branch ID"`
	Body     struct {
		ConfirmName string `json:"confirm_name" doc:"The branch name, typed to confirm"`
		TransferTo  string `json:"transfer_to,omitempty" doc:"Branch that receives the retired branch's users, sales and products"`
		Strategy    string `json:"strategy,omitempty" doc:"explicit (default) or oldest_active"`
	}
}

type RetireBranchOutput struct {
	Body struct {
		Retired       BranchResponse     `json:"retired"`
		TransferredTo string             `json:"transferred_to,omitempty"`
		Moved         DependentsResponse `json:"moved"`
		NewMainID     string             `json:"new_main_id,omitempty" doc:"Set when the retired branch was the main branch"`
	}
}

// --- Branch Requests ---

type RequestBranchInput struct {
	ID   string `path:"id" doc:"Tenant ID"`
	Body BranchBody
}

type BranchRequestOutput struct {
	Body BranchRequestResponse
}

type ListBranchRequestsInput struct {
	Status   string `query:"status" required:"false" enum:"PENDING,APPROVED,REJECTED" doc:"Filter by status"`
	TenantID string `query:"tenant_id" required:"false" doc:"Filter by tenant"`
	Limit    int    `query:"limit" required:"false" default:"50" minimum:"0" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

type ListBranchRequestsOutput struct {
	Body []BranchRequestResponse
}

type BranchRequestIDInput struct {
	ID string `path:"id" doc:"Branch request ID"`
}

type ApproveBranchRequestOutput struct {
	Body struct {
		Request BranchRequestResponse `json:"request"`
		Branch  BranchResponse        `json:"branch"`
	}
}

func (h *handlers) registerBranches(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-branches",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/branches",
		Summary:     "List a tenant's branches, oldest first",
		Tags:        []string{"Branches"},
	}, func(ctx context.Context, input *ListBranchesInput) (*ListBranchesOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, false); err != nil {
			return nil, toHumaError(err)
		}

		list := h.branches.List
		if input.ActiveOnly {
			list = h.branches.ListActive
		}
		branches, err := list(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListBranchesOutput{Body: toBranchResponses(branches)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-branch",
		Method:        http.MethodPost,
		Path:          "/api/v1/tenants/{id}/branches",
		Summary:       "Create a branch",
		Description:   "The first branch of a tenant without a main branch becomes the main branch.",
		Tags:          []string{"Branches"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateBranchInput) (*BranchOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, true); err != nil {
			return nil, toHumaError(err)
		}

		b, err := h.branches.Create(ctx, input.ID, input.Body.attrs())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BranchOutput{Body: toBranchResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-branch",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/branches/{branchId}",
		Summary:     "Get a branch",
		Tags:        []string{"Branches"},
	}, func(ctx context.Context, input *BranchIDInput) (*BranchOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, false); err != nil {
			return nil, toHumaError(err)
		}

		b, err := h.branches.Get(ctx, input.ID, input.BranchID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BranchOutput{Body: toBranchResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-branch",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/branches/{branchId}",
		Summary:     "Update a branch's name, address and phone",
		Tags:        []string{"Branches"},
	}, func(ctx context.Context, input *UpdateBranchInput) (*BranchOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, true); err != nil {
			return nil, toHumaError(err)
		}

		b, err := h.branches.Update(ctx, input.ID, input.BranchID, input.Body.attrs())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BranchOutput{Body: toBranchResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-main-branch",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/branches/{branchId}/main",
		Summary:     "Make a branch the tenant's main branch",
		Tags:        []string{"Branches"},
	}, func(ctx context.Context, input *BranchIDInput) (*BranchOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, true); err != nil {
			return nil, toHumaError(err)
		}

		b, err := h.branches.SetMain(ctx, input.ID, input.BranchID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BranchOutput{Body: toBranchResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-branch-active",
		Method:      http.MethodPut,
		Path:        "/api/v1/tenants/{id}/branches/{branchId}/active",
		Summary:     "Activate or deactivate a branch",
		Tags:        []string{"Branches"},
	}, func(ctx context.Context, input *SetBranchActiveInput) (*BranchOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, true); err != nil {
			return nil, toHumaError(err)
		}

		b, err := h.branches.SetActive(ctx, input.ID, input.BranchID, input.Body.Active)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BranchOutput{Body: toBranchResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "count-branch-dependents",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/branches/{branchId}/dependents",
		Summary:     "Count the users, sales and products referencing a branch",
		Tags:        []string{"Branches"},
	}, func(ctx context.Context, input *BranchIDInput) (*DependentsOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, true); err != nil {
			return nil, toHumaError(err)
		}

		d, err := h.branches.CountDependents(ctx, input.ID, input.BranchID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DependentsOutput{Body: toDependentsResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "summarize-dependents",
		Method:      http.MethodGet,
		Path:        "/api/v1/tenants/{id}/dependents",
		Summary:     "Count dependents for the selected branch or for all branches",
		Tags:        []string{"Branches"},
	}, func(ctx context.Context, input *SummarizeDependentsInput) (*DependentsOutput, error) {
		acc, err := h.requireTenant(ctx, input.ID, false)
		if err != nil {
			return nil, toHumaError(err)
		}

		sel := domain.SelectBranch(input.BranchID)
		if !acc.Platform {
			sel, err = h.access.SelectBranch(ctx, acc.Scope, input.BranchID)
			if err != nil {
				return nil, toHumaError(err)
			}
		}

		d, err := h.branches.Summarize(ctx, input.ID, sel)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DependentsOutput{Body: toDependentsResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "retire-branch",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{id}/branches/{branchId}",
		Summary:     "Retire a branch, moving its dependents first",
		Description: "Dependents move to transfer_to, or with strategy oldest_active to the oldest other active branch. " +
			"Retiring the main branch promotes the receiving branch.",
		Tags: []string{"Branches"},
	}, func(ctx context.Context, input *RetireBranchInput) (*RetireBranchOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, true); err != nil {
			return nil, toHumaError(err)
		}

		strategy := app.TransferExplicit
		if input.Body.Strategy != "" {
			var err error
			if strategy, err = app.ParseTransferStrategy(input.Body.Strategy); err != nil {
				return nil, toHumaError(err)
			}
		}

		res, err := h.governance.RetireBranch(ctx, app.RetireRequest{
			TenantID:    input.ID,
			BranchID:    input.BranchID,
			ConfirmName: input.Body.ConfirmName,
			TransferTo:  input.Body.TransferTo,
			Strategy:    strategy,
		})
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &RetireBranchOutput{}
		out.Body.Retired = toBranchResponse(res.Retired)
		out.Body.TransferredTo = res.TransferredTo
		out.Body.Moved = toDependentsResponse(res.Moved)
		out.Body.NewMainID = res.NewMainID
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "request-branch",
		Method:        http.MethodPost,
		Path:          "/api/v1/tenants/{id}/branch-requests",
		Summary:       "Ask the platform to add a branch",
		Tags:          []string{"Branch Requests"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RequestBranchInput) (*BranchRequestOutput, error) {
		if _, err := h.requireTenant(ctx, input.ID, true); err != nil {
			return nil, toHumaError(err)
		}

		r, err := h.branches.RequestBranch(ctx, input.ID, input.Body.attrs())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BranchRequestOutput{Body: toBranchRequestResponse(r)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-branch-requests",
		Method:      http.MethodGet,
		Path:        "/api/v1/branch-requests",
		Summary:     "List branch requests",
		Tags:        []string{"Branch Requests"},
	}, func(ctx context.Context, input *ListBranchRequestsInput) (*ListBranchRequestsOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		filter := domain.RequestFilter{TenantID: input.TenantID, Limit: input.Limit, Offset: input.Offset}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		reqs, err := h.branches.ListRequests(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]BranchRequestResponse, len(reqs))
		for i, r := range reqs {
			resp[i] = toBranchRequestResponse(r)
		}
		return &ListBranchRequestsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-branch-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/branch-requests/{id}/approve",
		Summary:     "Approve a branch request and create the branch",
		Tags:        []string{"Branch Requests"},
	}, func(ctx context.Context, input *BranchRequestIDInput) (*ApproveBranchRequestOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		r, b, err := h.branches.ApproveBranchRequest(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ApproveBranchRequestOutput{}
		out.Body.Request = toBranchRequestResponse(r)
		out.Body.Branch = toBranchResponse(b)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-branch-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/branch-requests/{id}/reject",
		Summary:     "Reject a branch request",
		Tags:        []string{"Branch Requests"},
	}, func(ctx context.Context, input *RejectInput) (*BranchRequestOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}

		r, err := h.branches.RejectBranchRequest(ctx, input.ID, input.Body.Reason)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BranchRequestOutput{Body: toBranchRequestResponse(r)}, nil
	})
}
