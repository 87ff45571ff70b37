package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// SessionTokens encodes sessions as bearer tokens.
type SessionTokens interface {
	Sign(s domain.Session, ttl time.Duration) (string, error)
	Verify(raw string) (domain.Session, error)
}

// authenticate attaches the bearer session to the request context. Requests
// without an Authorization header pass through anonymous; public operations
// accept them and guarded ones reject them.
func authenticate(api huma.API, tokens SessionTokens) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		if header == "" {
			next(ctx)
			return
		}

		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "authorization header must be 'Bearer <token>'")
			return
		}

		s, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			slog.DebugContext(ctx.Context(), "rejected bearer token", "error", err)
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next(huma.WithContext(ctx, domain.ContextWithSession(ctx.Context(), s)))
	}
}

func currentSession(ctx context.Context) (domain.Session, error) {
	s, ok := domain.SessionFromContext(ctx)
	if !ok {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	return s, nil
}

func isPlatformAdmin(s domain.Session) bool {
	return s.Identity.Role == domain.RoleSuperAdmin && !s.Impersonating()
}

// requireSuperAdmin admits super-admins acting as themselves.
func requireSuperAdmin(ctx context.Context) error {
	s, err := currentSession(ctx)
	if err != nil {
		return err
	}
	if !isPlatformAdmin(s) {
		return domain.ErrForbidden
	}
	return nil
}

// tenantAccess is the outcome of a tenant route guard. Platform is set when a
// super-admin acting as themselves governs the tenant directly.
type tenantAccess struct {
	Scope    domain.Scope
	Platform bool
}

// requireTenant admits platform super-admins and sessions whose resolved scope
// belongs to tenantID. With ownerOnly, tenant sessions must hold the owner role;
// an impersonating super-admin always resolves to one.
func (h *handlers) requireTenant(ctx context.Context, tenantID string, ownerOnly bool) (tenantAccess, error) {
	s, err := currentSession(ctx)
	if err != nil {
		return tenantAccess{}, err
	}
	if isPlatformAdmin(s) {
		return tenantAccess{Scope: domain.NewPlatformScope(s.Identity.UserID), Platform: true}, nil
	}

	scope, err := h.access.Resolve(ctx, s)
	if err != nil {
		return tenantAccess{}, err
	}
	if scope.TenantID != tenantID {
		return tenantAccess{}, domain.ErrForbidden
	}
	if _, owner := scope.Role.(domain.Owner); ownerOnly && !owner {
		return tenantAccess{}, domain.ErrForbidden
	}
	return tenantAccess{Scope: scope}, nil
}
