package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

type tenantRepository struct {
	q querier
}

const tenantColumns = `id, business_name, slug, category, currency_code, currency_symbol, tax_rate,
	subscription_start, subscription_end, active, created_at, updated_at`

func (r tenantRepository) Create(ctx context.Context, t domain.Tenant) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tenants (`+tenantColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BusinessName, nullString(t.Slug), t.Category, t.CurrencyCode, t.CurrencySymbol, t.TaxRate,
		formatTime(t.SubscriptionStart), formatTime(t.SubscriptionEnd), boolInt(t.Active),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return tenantWriteError(err, t)
	}
	return nil
}

func (r tenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return scanTenant(r.q.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id,
	))
}

func (r tenantRepository) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	return scanTenant(r.q.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = ?`, slug,
	))
}

func (r tenantRepository) GetByBusinessName(ctx context.Context, name string) (domain.Tenant, error) {
	return scanTenant(r.q.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE business_name = ? COLLATE NOCASE`, name,
	))
}

func (r tenantRepository) List(ctx context.Context, filter domain.TenantFilter) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	var args []any

	if filter.Active != nil {
		query += ` WHERE active = ?`
		args = append(args, boolInt(*filter.Active))
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}

	return tenants, rows.Err()
}

func (r tenantRepository) Update(ctx context.Context, t domain.Tenant) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE tenants SET business_name = ?, category = ?, currency_code = ?, currency_symbol = ?,
		 tax_rate = ?, subscription_start = ?, subscription_end = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		t.BusinessName, t.Category, t.CurrencyCode, t.CurrencySymbol, t.TaxRate,
		formatTime(t.SubscriptionStart), formatTime(t.SubscriptionEnd), boolInt(t.Active),
		formatTime(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return tenantWriteError(err, t)
	}
	return checkAffected(result, domain.ErrTenantNotFound)
}

// UpdateSlug is a single constrained write: the UNIQUE index on slug decides
// between concurrent writers.
func (r tenantRepository) UpdateSlug(ctx context.Context, id, slug string, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE tenants SET slug = ?, updated_at = ? WHERE id = ?`,
		nullString(slug), formatTime(at), id,
	)
	if err != nil {
		return tenantWriteError(err, domain.Tenant{ID: id, Slug: slug})
	}
	return checkAffected(result, domain.ErrTenantNotFound)
}

func (r tenantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	return checkAffected(result, domain.ErrTenantNotFound)
}

func tenantWriteError(err error, t domain.Tenant) error {
	if cols, ok := uniqueViolation(err); ok {
		if strings.Contains(cols, "tenants.slug") {
			return &domain.SlugConflictError{Slug: t.Slug}
		}
		if strings.Contains(cols, "tenants.business_name") {
			return &domain.ConflictError{Field: "business_name", Value: t.BusinessName}
		}
	}
	return fmt.Errorf("writing tenant: %w", err)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (domain.Tenant, error) {
	var t domain.Tenant
	var slug sql.NullString
	var active int
	var start, end, createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.BusinessName, &slug, &t.Category, &t.CurrencyCode, &t.CurrencySymbol, &t.TaxRate,
		&start, &end, &active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tenant{}, domain.ErrTenantNotFound
		}
		return domain.Tenant{}, fmt.Errorf("scanning tenant: %w", err)
	}

	t.Slug = slug.String
	t.Active = active == 1
	t.SubscriptionStart = parseTime(start)
	t.SubscriptionEnd = parseTime(end)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return t, nil
}
