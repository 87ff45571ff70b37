package domain

import (
	"context"
	"time"
)

// Action names a governance or lifecycle mutation recorded by the audit sink.
type Action string

const (
	ActionApplicationSubmitted  Action = "application.submitted"
	ActionApplicationApproved   Action = "application.approved"
	ActionApplicationRejected   Action = "application.rejected"
	ActionTenantSlugChanged     Action = "tenant.slug_changed"
	ActionSubscriptionExtended  Action = "tenant.subscription_extended"
	ActionTenantStatusChanged   Action = "tenant.status_changed"
	ActionTenantDeleted         Action = "tenant.deleted"
	ActionBranchCreated         Action = "branch.created"
	ActionBranchUpdated         Action = "branch.updated"
	ActionBranchActivation      Action = "branch.activation_changed"
	ActionMainBranchChanged     Action = "branch.main_changed"
	ActionBranchRetired         Action = "branch.retired"
	ActionBranchRequested       Action = "branch_request.submitted"
	ActionBranchRequestApproved Action = "branch_request.approved"
	ActionBranchRequestRejected Action = "branch_request.rejected"
	ActionImpersonationStarted  Action = "impersonation.started"
)

// AuditEvent is a snapshot of one committed mutation.
type AuditEvent struct {
	Action     Action
	ActorID    string
	TenantID   string
	TenantSlug string
	EntityID   string
	Detail     string
	OccurredAt time.Time
}

type sessionKey struct{}

// ContextWithSession attaches the authenticated session to ctx.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached by ContextWithSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// ActorFromContext returns the acting user id, or "anonymous".
func ActorFromContext(ctx context.Context) string {
	if s, ok := SessionFromContext(ctx); ok && s.Identity.UserID != "" {
		return s.Identity.UserID
	}
	return "anonymous"
}
