package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// TransferStrategy decides where dependents go when no transfer target is given.
type TransferStrategy string

const (
	// TransferExplicit requires a target whenever the branch has dependents.
	TransferExplicit TransferStrategy = "explicit"
	// TransferOldestActive falls back to the tenant's oldest other active branch.
	TransferOldestActive TransferStrategy = "oldest_active"
)

// ParseTransferStrategy maps a wire value onto a strategy.
func ParseTransferStrategy(s string) (TransferStrategy, error) {
	switch ts := TransferStrategy(strings.TrimSpace(s)); ts {
	case TransferExplicit, TransferOldestActive:
		return ts, nil
	}
	return "", &domain.ValidationError{Field: "strategy", Reason: domain.ReasonInvalidChars,
		Message: fmt.Sprintf("strategy must be %q or %q", TransferExplicit, TransferOldestActive)}
}

// RetireRequest asks for a branch to be removed. It lives only for the
// duration of the call.
type RetireRequest struct {
	TenantID    string
	BranchID    string
	ConfirmName string
	TransferTo  string
	Strategy    TransferStrategy
}

// RetirementResult reports what a retirement changed.
type RetirementResult struct {
	Retired       domain.Branch
	TransferredTo string
	Moved         domain.Dependents
	NewMainID     string
}

// RetirementCoordinator removes branches without losing their dependents or
// leaving the tenant without a main branch.
type RetirementCoordinator struct {
	store domain.Store
	clock domain.Clock
	audit auditor
}

// NewRetirementCoordinator creates a coordinator over the given store.
func NewRetirementCoordinator(store domain.Store, publisher domain.EventPublisher, clock domain.Clock) *RetirementCoordinator {
	return &RetirementCoordinator{
		store: store,
		clock: clock,
		audit: auditor{publisher: publisher, clock: clock},
	}
}

// Retire confirms, transfers dependents, re-elects the main branch when needed
// and deletes the branch, all in one transaction.
func (c *RetirementCoordinator) Retire(ctx context.Context, req RetireRequest) (RetirementResult, error) {
	if _, err := ParseTransferStrategy(string(req.Strategy)); err != nil {
		return RetirementResult{}, err
	}
	if strings.TrimSpace(req.ConfirmName) == "" {
		return RetirementResult{}, &domain.ValidationError{Field: "confirm_name", Reason: domain.ReasonRequired,
			Message: "type the branch name to confirm deletion"}
	}

	var res RetirementResult
	err := c.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		branch, err := tenantBranch(ctx, tx, req.TenantID, req.BranchID)
		if err != nil {
			return err
		}
		if !branch.MatchesName(req.ConfirmName) {
			return &domain.ValidationError{Field: "confirm_name", Reason: domain.ReasonNameMismatch,
				Message: "confirmation does not match the branch name"}
		}

		actives, err := tx.Branches().ListByTenant(ctx, req.TenantID, true)
		if err != nil {
			return err
		}
		others := make([]domain.Branch, 0, len(actives))
		for _, b := range actives {
			if b.ID != branch.ID {
				others = append(others, b)
			}
		}
		if len(others) == 0 {
			return &domain.InvariantError{Rule: domain.RuleLastBranch,
				Message: "cannot delete the only active branch"}
		}

		target, err := resolveTarget(req, others)
		if err != nil {
			return err
		}

		deps, err := tx.Dependents().Count(ctx, branch.ID)
		if err != nil {
			return err
		}
		if deps.Total() > 0 {
			if target == nil {
				return &domain.ValidationError{Field: "transfer_to", Reason: domain.ReasonTransferRequired,
					Message: fmt.Sprintf("branch has %d dependent records; choose a branch to transfer them to", deps.Total())}
			}
			moved, err := tx.Dependents().Reassign(ctx, branch.ID, target.ID)
			if err != nil {
				return err
			}
			res.Moved = moved
			res.TransferredTo = target.ID
		}

		if branch.IsMain {
			successor := others[0]
			if target != nil {
				successor = *target
			}
			if err := tx.Branches().SetMain(ctx, req.TenantID, successor.ID, c.clock.Now()); err != nil {
				return err
			}
			res.NewMainID = successor.ID
		}

		if err := tx.Branches().Delete(ctx, branch.ID); err != nil {
			return err
		}
		res.Retired = branch
		return nil
	})
	if err != nil {
		return RetirementResult{}, err
	}

	c.audit.record(ctx, domain.AuditEvent{
		Action:   domain.ActionBranchRetired,
		TenantID: res.Retired.TenantID,
		EntityID: res.Retired.ID,
		Detail: fmt.Sprintf("%s; moved users=%d sales=%d products=%d to %q",
			res.Retired.Name, res.Moved.Users, res.Moved.Sales, res.Moved.Products, res.TransferredTo),
	})
	return res, nil
}

// resolveTarget picks the transfer target among the other active branches.
// A nil target means none was given and the strategy supplies no fallback.
func resolveTarget(req RetireRequest, others []domain.Branch) (*domain.Branch, error) {
	if req.TransferTo != "" {
		for i := range others {
			if others[i].ID == req.TransferTo {
				return &others[i], nil
			}
		}
		return nil, &domain.ValidationError{Field: "transfer_to", Reason: domain.ReasonTransferTargetInvalid,
			Message: "transfer target must be another active branch of the same tenant"}
	}
	if req.Strategy == TransferOldestActive {
		return &others[0], nil
	}
	return nil, nil
}
