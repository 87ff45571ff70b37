package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

// MainBranchName names the branch created when an application is approved.
const MainBranchName = "Main Branch"

// TenantDefaults seeds the commercial settings of newly provisioned tenants.
type TenantDefaults struct {
	CurrencyCode   string
	CurrencySymbol string
	TaxRate        float64
}

// Provisioned is everything an approval creates.
type Provisioned struct {
	Application domain.Application
	Tenant      domain.Tenant
	Branch      domain.Branch
	Owner       domain.User
}

// ApplicationWorkflow moves tenant applications from submission to a
// provisioned tenant or a rejection.
type ApplicationWorkflow struct {
	store     domain.Store
	validator domain.TransitionValidator
	hasher    domain.PasswordHasher
	clock     domain.Clock
	defaults  TenantDefaults
	audit     auditor
}

// NewApplicationWorkflow creates a workflow with the given adapters.
func NewApplicationWorkflow(
	store domain.Store,
	validator domain.TransitionValidator,
	hasher domain.PasswordHasher,
	publisher domain.EventPublisher,
	clock domain.Clock,
	defaults TenantDefaults,
) *ApplicationWorkflow {
	return &ApplicationWorkflow{
		store:     store,
		validator: validator,
		hasher:    hasher,
		clock:     clock,
		defaults:  defaults,
		audit:     auditor{publisher: publisher, clock: clock},
	}
}

// Submit records a new PENDING application. A business name that already
// belongs to a tenant or to another pending application is a conflict;
// rejected applications never block a resubmission.
func (w *ApplicationWorkflow) Submit(ctx context.Context, form domain.ApplicationForm) (domain.Application, error) {
	form, err := form.Normalize()
	if err != nil {
		return domain.Application{}, err
	}

	if err := w.checkBusinessNameFree(ctx, form.BusinessName); err != nil {
		return domain.Application{}, err
	}

	hash, err := w.hasher.Hash(form.Password)
	if err != nil {
		return domain.Application{}, fmt.Errorf("hashing password: %w", err)
	}

	id, err := generateID()
	if err != nil {
		return domain.Application{}, fmt.Errorf("generating application id: %w", err)
	}

	app := domain.NewApplication(id, form, hash, w.clock.Now())
	if err := w.store.Applications().Create(ctx, app); err != nil {
		return domain.Application{}, fmt.Errorf("creating application: %w", err)
	}

	w.audit.record(ctx, domain.AuditEvent{
		Action:   domain.ActionApplicationSubmitted,
		EntityID: app.ID,
		Detail:   app.BusinessName,
	})

	return app, nil
}

func (w *ApplicationWorkflow) checkBusinessNameFree(ctx context.Context, name string) error {
	_, err := w.store.Tenants().GetByBusinessName(ctx, name)
	switch {
	case err == nil:
		return &domain.ConflictError{Field: "business_name", Value: name}
	case !errors.Is(err, domain.ErrTenantNotFound):
		return fmt.Errorf("looking up business name: %w", err)
	}

	_, err = w.store.Applications().FindPendingByBusinessName(ctx, name)
	switch {
	case err == nil:
		return &domain.ConflictError{Field: "business_name", Value: name}
	case !errors.Is(err, domain.ErrApplicationNotFound):
		return fmt.Errorf("looking up pending applications: %w", err)
	}
	return nil
}

// Get returns an application by id.
func (w *ApplicationWorkflow) Get(ctx context.Context, id string) (domain.Application, error) {
	return w.store.Applications().GetByID(ctx, id)
}

// List returns applications matching the filter, newest first.
func (w *ApplicationWorkflow) List(ctx context.Context, filter domain.RequestFilter) ([]domain.Application, error) {
	return w.store.Applications().List(ctx, filter)
}

// Approve provisions a tenant from a pending application: the tenant with its
// slug, an active main branch and the owner login are created together with the
// status change, or nothing is.
func (w *ApplicationWorkflow) Approve(ctx context.Context, applicationID, slug string, months int) (Provisioned, error) {
	if err := domain.ValidateSlug(slug); err != nil {
		return Provisioned{}, err
	}
	if err := domain.ValidateMonths(months); err != nil {
		return Provisioned{}, err
	}

	var out Provisioned
	err := w.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		app, err := tx.Applications().GetByID(ctx, applicationID)
		if err != nil {
			return err
		}

		status, err := w.validator.Apply(ctx, domain.MachineApplication, app.Status, domain.EventApprove)
		if err != nil {
			return err
		}

		free, err := slugAvailable(ctx, tx.Tenants(), slug, "")
		if err != nil {
			return err
		}
		if !free {
			return &domain.SlugConflictError{Slug: slug}
		}

		now := w.clock.Now()
		ids, err := generateIDs(3)
		if err != nil {
			return fmt.Errorf("generating ids: %w", err)
		}

		tenant := domain.Tenant{
			ID:                ids[0],
			BusinessName:      app.BusinessName,
			Slug:              slug,
			Category:          app.BusinessCategory,
			CurrencyCode:      w.defaults.CurrencyCode,
			CurrencySymbol:    w.defaults.CurrencySymbol,
			TaxRate:           w.defaults.TaxRate,
			SubscriptionStart: now,
			SubscriptionEnd:   now.AddDate(0, months, 0),
			Active:            true,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.Tenants().Create(ctx, tenant); err != nil {
			return err
		}

		branch := domain.NewBranch(ids[1], tenant.ID, domain.BranchAttrs{
			Name:    MainBranchName,
			Address: app.Address,
			Phone:   app.Phone,
		}, true, now)
		if err := tx.Branches().Create(ctx, branch); err != nil {
			return err
		}

		owner := domain.User{
			ID:           ids[2],
			TenantID:     tenant.ID,
			BranchID:     branch.ID,
			Username:     app.Username,
			PasswordHash: app.PasswordHash,
			Role:         domain.RoleOwner,
			FullName:     app.OwnerName,
			Active:       true,
			CreatedAt:    now,
		}
		if err := tx.Users().Create(ctx, owner); err != nil {
			return err
		}

		app.Status = status
		app.TenantID = tenant.ID
		app.DecidedAt = &now
		if err := tx.Applications().Update(ctx, app); err != nil {
			return err
		}

		out = Provisioned{Application: app, Tenant: tenant, Branch: branch, Owner: owner}
		return nil
	})
	if err != nil {
		return Provisioned{}, err
	}

	w.audit.record(ctx, domain.AuditEvent{
		Action:     domain.ActionApplicationApproved,
		TenantID:   out.Tenant.ID,
		TenantSlug: out.Tenant.Slug,
		EntityID:   out.Application.ID,
		Detail:     fmt.Sprintf("%d months", months),
	})

	return out, nil
}

// Reject closes a pending application with a reason. No tenant is created.
func (w *ApplicationWorkflow) Reject(ctx context.Context, applicationID, reason string) (domain.Application, error) {
	reason, err := domain.NormalizeReason(reason)
	if err != nil {
		return domain.Application{}, err
	}

	var app domain.Application
	err = w.store.Atomic(ctx, func(ctx context.Context, tx domain.Repositories) error {
		app, err = tx.Applications().GetByID(ctx, applicationID)
		if err != nil {
			return err
		}

		status, err := w.validator.Apply(ctx, domain.MachineApplication, app.Status, domain.EventReject)
		if err != nil {
			return err
		}

		now := w.clock.Now()
		app.Status = status
		app.RejectionReason = reason
		app.DecidedAt = &now
		return tx.Applications().Update(ctx, app)
	})
	if err != nil {
		return domain.Application{}, err
	}

	w.audit.record(ctx, domain.AuditEvent{
		Action:   domain.ActionApplicationRejected,
		EntityID: app.ID,
		Detail:   reason,
	})

	return app, nil
}

func generateIDs(n int) ([]string, error) {
	ids := make([]string, n)
	for i := range ids {
		id, err := generateID()
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
