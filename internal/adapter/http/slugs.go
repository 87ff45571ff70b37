package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// --- Slug Availability ---

type SlugAvailabilityInput struct {
	Slug     string `path:"slug" doc:"Candidate slug"`
	TenantID string `query:"tenant_id" required:"false" doc:"Tenant whose current slug does not count as taken"`
}

type SlugAvailabilityOutput struct {
	Body struct {
		Slug      string `json:"slug"`
		Available bool   `json:"available"`
		Reason    string `json:"reason,omitempty" doc:"Why the slug was rejected, when it is malformed"`
	}
}

// --- Slug Suggestion ---

type SlugSuggestionInput struct {
	Name string `query:"name" minLength:"1" doc:"Business name to derive a slug from"`
}

type SlugSuggestionOutput struct {
	Body struct {
		Slug string `json:"slug"`
	}
}

func (h *handlers) registerSlugs(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "check-slug-availability",
		Method:      http.MethodGet,
		Path:        "/api/v1/slugs/{slug}/availability",
		Summary:     "Check whether a slug is free",
		Description: "Advisory only: the slug can still be taken before it is assigned.",
		Tags:        []string{"Slugs"},
	}, func(ctx context.Context, input *SlugAvailabilityInput) (*SlugAvailabilityOutput, error) {
		out := &SlugAvailabilityOutput{}
		out.Body.Slug = input.Slug

		available, err := h.slugs.CheckAvailability(ctx, input.Slug, input.TenantID)
		var valErr *domain.ValidationError
		if errors.As(err, &valErr) {
			out.Body.Reason = valErr.Reason
			return out, nil
		}
		if err != nil {
			return nil, toHumaError(err)
		}

		out.Body.Available = available
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suggest-slug",
		Method:      http.MethodGet,
		Path:        "/api/v1/slugs/suggestion",
		Summary:     "Suggest a slug for a business name",
		Tags:        []string{"Slugs"},
	}, func(_ context.Context, input *SlugSuggestionInput) (*SlugSuggestionOutput, error) {
		out := &SlugSuggestionOutput{}
		out.Body.Slug = h.slugs.Suggest(input.Name)
		return out, nil
	})
}
