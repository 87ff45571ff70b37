package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// --- Access Decision ---

type DecideAccessInput struct {
	Body struct {
		Path string `json:"path" doc:"Route the client is about to render"`
	}
}

type DecideAccessOutput struct {
	Body struct {
		Allowed  bool          `json:"allowed"`
		Redirect string        `json:"redirect,omitempty" doc:"Where to send the client when the route is not allowed"`
		Scope    ScopeResponse `json:"scope"`
	}
}

// --- Impersonation ---

type StartImpersonationInput struct {
	Body struct {
		TenantID string `json:"tenant_id" doc:"Tenant to act inside"`
	}
}

type SessionOutput struct {
	Body struct {
		Token string        `json:"token" doc:"Bearer token for the new session"`
		Scope ScopeResponse `json:"scope"`
	}
}

func (h *handlers) registerAccess(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "decide-access",
		Method:      http.MethodPost,
		Path:        "/api/v1/access/decide",
		Summary:     "Check a route against the caller's scope",
		Tags:        []string{"Access"},
	}, func(ctx context.Context, input *DecideAccessInput) (*DecideAccessOutput, error) {
		s, err := currentSession(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}

		scope, err := h.access.Resolve(ctx, s)
		if err != nil {
			return nil, toHumaError(err)
		}

		d := scope.Decide(input.Body.Path)
		out := &DecideAccessOutput{}
		out.Body.Allowed = d.Allowed
		out.Body.Redirect = d.Redirect
		out.Body.Scope = toScopeResponse(scope)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "start-impersonation",
		Method:        http.MethodPost,
		Path:          "/api/v1/impersonations",
		Summary:       "Act inside a tenant as its owner",
		Tags:          []string{"Access"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *StartImpersonationInput) (*SessionOutput, error) {
		if err := requireSuperAdmin(ctx); err != nil {
			return nil, toHumaError(err)
		}
		s, _ := currentSession(ctx)

		impersonated, scope, err := h.access.StartImpersonation(ctx, s, input.Body.TenantID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.sessionOutput(impersonated, scope)
	})

	huma.Register(api, huma.Operation{
		OperationID: "end-impersonation",
		Method:      http.MethodDelete,
		Path:        "/api/v1/impersonations",
		Summary:     "Return to the super-admin's own session",
		Tags:        []string{"Access"},
	}, func(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
		s, err := currentSession(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		if s.Identity.Role != domain.RoleSuperAdmin {
			return nil, toHumaError(domain.ErrForbidden)
		}

		base := s.EndImpersonation()
		scope, err := h.access.Resolve(ctx, base)
		if err != nil {
			return nil, toHumaError(err)
		}
		return h.sessionOutput(base, scope)
	})
}

func (h *handlers) sessionOutput(s domain.Session, scope domain.Scope) (*SessionOutput, error) {
	token, err := h.tokens.Sign(s, h.tokenTTL)
	if err != nil {
		return nil, toHumaError(fmt.Errorf("issuing session token: %w", err))
	}

	out := &SessionOutput{}
	out.Body.Token = token
	out.Body.Scope = toScopeResponse(scope)
	return out, nil
}
