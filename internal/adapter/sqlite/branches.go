package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

type branchRepository struct {
	q querier
}

const branchColumns = `id, tenant_id, name, address, phone, is_main, is_active, created_at, updated_at`

func (r branchRepository) Create(ctx context.Context, b domain.Branch) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO branches (`+branchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TenantID, b.Name, b.Address, b.Phone, boolInt(b.IsMain), boolInt(b.IsActive),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return branchWriteError(err, b.TenantID)
	}
	return nil
}

func (r branchRepository) GetByID(ctx context.Context, id string) (domain.Branch, error) {
	return scanBranch(r.q.QueryRowContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE id = ?`, id,
	))
}

func (r branchRepository) ListByTenant(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches WHERE tenant_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := r.q.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}

	return branches, rows.Err()
}

func (r branchRepository) Update(ctx context.Context, b domain.Branch) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE branches SET name = ?, address = ?, phone = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		b.Name, b.Address, b.Phone, boolInt(b.IsActive), formatTime(b.UpdatedAt), b.ID,
	)
	if err != nil {
		return branchWriteError(err, b.TenantID)
	}
	return checkAffected(result, domain.ErrBranchNotFound)
}

// SetMain demotes before it promotes: SQLite checks the one-main index per
// row, so the reverse order would always collide. Callers run it inside
// Store.Atomic so both statements commit together.
func (r branchRepository) SetMain(ctx context.Context, tenantID, branchID string, at time.Time) error {
	now := formatTime(at)

	if _, err := r.q.ExecContext(ctx,
		`UPDATE branches SET is_main = 0, updated_at = ?
		 WHERE tenant_id = ? AND is_main = 1 AND id <> ?`,
		now, tenantID, branchID,
	); err != nil {
		return fmt.Errorf("demoting main branch: %w", err)
	}

	result, err := r.q.ExecContext(ctx,
		`UPDATE branches SET is_main = 1, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		now, branchID, tenantID,
	)
	if err != nil {
		return branchWriteError(err, tenantID)
	}
	return checkAffected(result, domain.ErrBranchNotFound)
}

func (r branchRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM branches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting branch: %w", err)
	}
	return checkAffected(result, domain.ErrBranchNotFound)
}

func branchWriteError(err error, tenantID string) error {
	if _, ok := uniqueViolation(err); ok {
		return &domain.ConflictError{Field: "main_branch", Value: tenantID}
	}
	return fmt.Errorf("writing branch: %w", err)
}

func scanBranch(row rowScanner) (domain.Branch, error) {
	var b domain.Branch
	var isMain, isActive int
	var createdAt, updatedAt string

	err := row.Scan(&b.ID, &b.TenantID, &b.Name, &b.Address, &b.Phone, &isMain, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Branch{}, domain.ErrBranchNotFound
		}
		return domain.Branch{}, fmt.Errorf("scanning branch: %w", err)
	}

	b.IsMain = isMain == 1
	b.IsActive = isActive == 1
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)

	return b, nil
}
