package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// BranchLedger manages a tenant's branches and keeps exactly one active main
// branch per tenant.
type BranchLedger struct {
	store     domain.Store
	validator domain.TransitionValidator
	clock     domain.Clock
	audit     auditor
}

// NewBranchLedger creates a ledger with the given adapters.
func NewBranchLedger(store domain.Store, validator domain.TransitionValidator, publisher domain.EventPublisher, clock domain.Clock) *BranchLedger {
	return &BranchLedger{
		store:     store,
		validator: validator,
		clock:     clock,
		audit:     auditor{publisher: publisher, clock: clock},
	}
}

// ListActive returns the tenant's active branches, oldest first.
func (l *BranchLedger) ListActive(ctx context.Context, tenantID string) ([]domain.Branch, error) {
	if _, err := l.store.Tenants().GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return l.store.Branches().ListByTenant(ctx, tenantID, true)
}

// List returns every branch of the tenant, inactive ones included.
func (l *BranchLedger) List(ctx context.Context, tenantID string) ([]domain.Branch, error) {
	if _, err := l.store.Tenants().GetByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return l.store.Branches().ListByTenant(ctx, tenantID, false)
}

// Get returns a branch of the tenant. Branches of other tenants are not found.
func (l *BranchLedger) Get(ctx context.Context, tenantID, branchID string) (domain.Branch, error) {
	return tenantBranch(ctx, l.store, tenantID, branchID)
}

// Create adds a branch. The tenant's first branch, or any branch added while
// the tenant has no main, becomes main.
func (l *BranchLedger) Create(ctx context.Context, tenantID string, attrs domain.BranchAttrs) (domain.Branch, error) {
	attrs, err := attrs.Normalize()
	if err != nil {
		return domain.Branch{}, err
	}

	var branch domain.Branch
	err = l.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if _, err := tx.Tenants().GetByID(ctx, tenantID); err != nil {
			return err
		}
		branch, err = l.createBranch(ctx, tx, tenantID, attrs)
		return err
	})
	if err != nil {
		return domain.Branch{}, err
	}

	l.recordBranch(ctx, domain.ActionBranchCreated, branch, branch.Name)
	return branch, nil
}

func (l *BranchLedger) createBranch(ctx context.Context, tx domain.Repositories, tenantID string, attrs domain.BranchAttrs) (domain.Branch, error) {
	existing, err := tx.Branches().ListByTenant(ctx, tenantID, true)
	if err != nil {
		return domain.Branch{}, err
	}
	_, hasMain := mainOf(existing)

	id, err := generateID()
	if err != nil {
		return domain.Branch{}, fmt.Errorf("generating branch id: %w", err)
	}

	branch := domain.NewBranch(id, tenantID, attrs, !hasMain, l.clock.Now())
	if err := tx.Branches().Create(ctx, branch); err != nil {
		return domain.Branch{}, err
	}
	return branch, nil
}

// Update changes a branch's name, address and phone.
func (l *BranchLedger) Update(ctx context.Context, tenantID, branchID string, attrs domain.BranchAttrs) (domain.Branch, error) {
	attrs, err := attrs.Normalize()
	if err != nil {
		return domain.Branch{}, err
	}

	var branch domain.Branch
	err = l.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		branch, err = tenantBranch(ctx, tx, tenantID, branchID)
		if err != nil {
			return err
		}
		branch.Name, branch.Address, branch.Phone = attrs.Name, attrs.Address, attrs.Phone
		branch.UpdatedAt = l.clock.Now()
		return tx.Branches().Update(ctx, branch)
	})
	if err != nil {
		return domain.Branch{}, err
	}

	l.recordBranch(ctx, domain.ActionBranchUpdated, branch, branch.Name)
	return branch, nil
}

// SetMain makes branchID the tenant's main branch. It succeeds without writing
// when the branch is already main, and refuses inactive branches.
func (l *BranchLedger) SetMain(ctx context.Context, tenantID, branchID string) (domain.Branch, error) {
	var branch domain.Branch
	changed := false
	err := l.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		branch, err = tenantBranch(ctx, tx, tenantID, branchID)
		if err != nil {
			return err
		}
		if branch.IsMain {
			return nil
		}
		if !branch.IsActive {
			return &domain.ValidationError{Field: "branch_id", Reason: domain.ReasonBranchInactive,
				Message: "an inactive branch cannot become the main branch"}
		}
		now := l.clock.Now()
		if err := tx.Branches().SetMain(ctx, tenantID, branchID, now); err != nil {
			return err
		}
		branch.IsMain = true
		branch.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return domain.Branch{}, err
	}

	if changed {
		l.recordBranch(ctx, domain.ActionMainBranchChanged, branch, branch.Name)
	}
	return branch, nil
}

// SetActive opens or closes a branch. The main branch and the last active
// branch cannot be closed. Reopening a branch while the tenant has no active
// main makes it main.
func (l *BranchLedger) SetActive(ctx context.Context, tenantID, branchID string, active bool) (domain.Branch, error) {
	var branch domain.Branch
	changed := false
	err := l.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		branch, err = tenantBranch(ctx, tx, tenantID, branchID)
		if err != nil {
			return err
		}
		if branch.IsActive == active {
			return nil
		}

		actives, err := tx.Branches().ListByTenant(ctx, tenantID, true)
		if err != nil {
			return err
		}

		if !active {
			if branch.IsMain {
				return &domain.InvariantError{Rule: domain.RuleMainBranch,
					Message: "cannot deactivate the main branch; designate another main branch first"}
			}
			if len(actives) <= 1 {
				return &domain.InvariantError{Rule: domain.RuleLastBranch,
					Message: "cannot deactivate the only active branch"}
			}
		}

		branch.IsActive = active
		branch.UpdatedAt = l.clock.Now()
		if err := tx.Branches().Update(ctx, branch); err != nil {
			return err
		}
		changed = true

		if _, hasMain := mainOf(actives); active && !hasMain {
			if err := tx.Branches().SetMain(ctx, tenantID, branch.ID, branch.UpdatedAt); err != nil {
				return err
			}
			branch.IsMain = true
		}
		return nil
	})
	if err != nil {
		return domain.Branch{}, err
	}

	if changed {
		l.recordBranch(ctx, domain.ActionBranchActivation, branch, "active="+strconv.FormatBool(active))
	}
	return branch, nil
}

// CountDependents returns how many users, sales and products reference the branch.
func (l *BranchLedger) CountDependents(ctx context.Context, tenantID, branchID string) (domain.Dependents, error) {
	if _, err := tenantBranch(ctx, l.store, tenantID, branchID); err != nil {
		return domain.Dependents{}, err
	}
	return l.store.Dependents().Count(ctx, branchID)
}

// Summarize counts dependents for the selected branch, or for every branch of
// the tenant when the selection is the aggregate view.
func (l *BranchLedger) Summarize(ctx context.Context, tenantID string, sel domain.BranchSelection) (domain.Dependents, error) {
	if !sel.All() {
		return l.CountDependents(ctx, tenantID, sel.BranchID)
	}

	branches, err := l.List(ctx, tenantID)
	if err != nil {
		return domain.Dependents{}, err
	}
	var total domain.Dependents
	for _, b := range branches {
		d, err := l.store.Dependents().Count(ctx, b.ID)
		if err != nil {
			return domain.Dependents{}, err
		}
		total.Users += d.Users
		total.Sales += d.Sales
		total.Products += d.Products
	}
	return total, nil
}

// RequestBranch files a pending request for a new branch.
func (l *BranchLedger) RequestBranch(ctx context.Context, tenantID string, attrs domain.BranchAttrs) (domain.BranchRequest, error) {
	attrs, err := attrs.Normalize()
	if err != nil {
		return domain.BranchRequest{}, err
	}

	tenant, err := l.store.Tenants().GetByID(ctx, tenantID)
	if err != nil {
		return domain.BranchRequest{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.BranchRequest{}, fmt.Errorf("generating request id: %w", err)
	}

	req := domain.BranchRequest{
		ID:        id,
		TenantID:  tenantID,
		Attrs:     attrs,
		Status:    domain.StatusPending,
		CreatedAt: l.clock.Now(),
	}
	if err := l.store.BranchRequests().Create(ctx, req); err != nil {
		return domain.BranchRequest{}, fmt.Errorf("creating branch request: %w", err)
	}

	l.audit.record(ctx, domain.AuditEvent{
		Action:     domain.ActionBranchRequested,
		TenantID:   tenant.ID,
		TenantSlug: tenant.Slug,
		EntityID:   req.ID,
		Detail:     attrs.Name,
	})
	return req, nil
}

// ListRequests returns branch requests matching the filter, newest first.
func (l *BranchLedger) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]domain.BranchRequest, error) {
	return l.store.BranchRequests().List(ctx, filter)
}

// ApproveBranchRequest creates the requested branch under the usual ledger
// rules and closes the request in the same transaction.
func (l *BranchLedger) ApproveBranchRequest(ctx context.Context, requestID string) (domain.BranchRequest, domain.Branch, error) {
	var req domain.BranchRequest
	var branch domain.Branch
	err := l.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		req, err = tx.BranchRequests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}

		status, err := l.validator.Apply(ctx, domain.MachineBranchRequest, req.Status, domain.EventApprove)
		if err != nil {
			return err
		}

		branch, err = l.createBranch(ctx, tx, req.TenantID, req.Attrs)
		if err != nil {
			return err
		}

		now := l.clock.Now()
		req.Status = status
		req.BranchID = branch.ID
		req.DecidedAt = &now
		return tx.BranchRequests().Update(ctx, req)
	})
	if err != nil {
		return domain.BranchRequest{}, domain.Branch{}, err
	}

	l.recordBranch(ctx, domain.ActionBranchRequestApproved, branch, "request "+req.ID)
	return req, branch, nil
}

// RejectBranchRequest closes a pending request with a reason.
func (l *BranchLedger) RejectBranchRequest(ctx context.Context, requestID, reason string) (domain.BranchRequest, error) {
	reason, err := domain.NormalizeReason(reason)
	if err != nil {
		return domain.BranchRequest{}, err
	}

	var req domain.BranchRequest
	err = l.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		req, err = tx.BranchRequests().GetByID(ctx, requestID)
		if err != nil {
			return err
		}

		status, err := l.validator.Apply(ctx, domain.MachineBranchRequest, req.Status, domain.EventReject)
		if err != nil {
			return err
		}

		now := l.clock.Now()
		req.Status = status
		req.Reason = reason
		req.DecidedAt = &now
		return tx.BranchRequests().Update(ctx, req)
	})
	if err != nil {
		return domain.BranchRequest{}, err
	}

	l.audit.record(ctx, domain.AuditEvent{
		Action:   domain.ActionBranchRequestRejected,
		TenantID: req.TenantID,
		EntityID: req.ID,
		Detail:   reason,
	})
	return req, nil
}

func (l *BranchLedger) recordBranch(ctx context.Context, action domain.Action, b domain.Branch, detail string) {
	l.audit.record(ctx, domain.AuditEvent{
		Action:   action,
		TenantID: b.TenantID,
		EntityID: b.ID,
		Detail:   detail,
	})
}

// tenantBranch loads a branch and hides branches owned by other tenants.
func tenantBranch(ctx context.Context, repos domain.Repositories, tenantID, branchID string) (domain.Branch, error) {
	b, err := repos.Branches().GetByID(ctx, branchID)
	if err != nil {
		return domain.Branch{}, err
	}
	if b.TenantID != tenantID {
		return domain.Branch{}, domain.ErrBranchNotFound
	}
	return b, nil
}

// mainOf returns the main branch among branches.
func mainOf(branches []domain.Branch) (domain.Branch, bool) {
	for _, b := range branches {
		if b.IsMain {
			return b, true
		}
	}
	return domain.Branch{}, false
}
