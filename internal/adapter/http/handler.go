package http

import (
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantpos/internal/app"
	"github.com/neomorfeo/tenantpos/internal/domain"
)

// Services are the application services the API exposes.
type Services struct {
	Slugs        *app.SlugAllocator
	Applications *app.ApplicationWorkflow
	Branches     *app.BranchLedger
	Governance   *app.Governance
	Access       *app.AccessResolver
	Tokens       SessionTokens
	// Clock stamps derived health in responses; defaults to the wall clock.
	Clock domain.Clock
	// TokenTTL bounds the lifetime of tokens issued for impersonation.
	TokenTTL time.Duration
}

type handlers struct {
	slugs        *app.SlugAllocator
	applications *app.ApplicationWorkflow
	branches     *app.BranchLedger
	governance   *app.Governance
	access       *app.AccessResolver
	tokens       SessionTokens
	clock        domain.Clock
	tokenTTL     time.Duration
}

// Register installs the bearer authentication middleware and adds all API
// routes to the Huma API.
func Register(api huma.API, svc Services) {
	h := &handlers{
		slugs:        svc.Slugs,
		applications: svc.Applications,
		branches:     svc.Branches,
		governance:   svc.Governance,
		access:       svc.Access,
		tokens:       svc.Tokens,
		clock:        svc.Clock,
		tokenTTL:     svc.TokenTTL,
	}
	if h.clock == nil {
		h.clock = domain.SystemClock{}
	}
	if h.tokenTTL <= 0 {
		h.tokenTTL = time.Hour
	}

	api.UseMiddleware(authenticate(api, svc.Tokens))

	h.registerSlugs(api)
	h.registerApplications(api)
	h.registerTenants(api)
	h.registerBranches(api)
	h.registerAccess(api)
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTenantNotFound),
		errors.Is(err, domain.ErrBranchNotFound),
		errors.Is(err, domain.ErrApplicationNotFound),
		errors.Is(err, domain.ErrBranchRequestNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return huma.Error401Unauthorized("authentication required")
	case errors.Is(err, domain.ErrTenantInactive):
		return huma.Error403Forbidden("tenant is inactive")
	case errors.Is(err, domain.ErrTenantNotRoutable):
		return huma.Error403Forbidden("tenant has no slug assigned")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("access denied")
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error(), &huma.ErrorDetail{
			Message:  valErr.Reason,
			Location: "body." + valErr.Field,
		})
	}

	var slugErr *domain.SlugConflictError
	if errors.As(err, &slugErr) {
		return huma.Error409Conflict(slugErr.Error())
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var invErr *domain.InvariantError
	if errors.As(err, &invErr) {
		return huma.Error409Conflict(invErr.Error(), &huma.ErrorDetail{Message: invErr.Rule})
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
