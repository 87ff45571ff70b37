package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

type applicationRepository struct {
	q querier
}

const applicationColumns = `id, business_name, business_category, owner_name, email, phone, address,
	username, password_hash, status, rejection_reason, tenant_id, created_at, decided_at`

func (r applicationRepository) Create(ctx context.Context, a domain.Application) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.BusinessName, a.BusinessCategory, a.OwnerName, a.Email, a.Phone, a.Address,
		a.Username, a.PasswordHash, string(a.Status), a.RejectionReason, nullString(a.TenantID),
		formatTime(a.CreatedAt), formatNullTime(a.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting application: %w", err)
	}
	return nil
}

func (r applicationRepository) GetByID(ctx context.Context, id string) (domain.Application, error) {
	return scanApplication(r.q.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id,
	))
}

func (r applicationRepository) FindPendingByBusinessName(ctx context.Context, name string) (domain.Application, error) {
	return scanApplication(r.q.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE business_name = ? COLLATE NOCASE AND status = ?
		 ORDER BY created_at LIMIT 1`,
		name, string(domain.StatusPending),
	))
}

func (r applicationRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.Application, error) {
	query, args := requestListQuery(`SELECT `+applicationColumns+` FROM applications`, filter, false)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}

	return apps, rows.Err()
}

func (r applicationRepository) Update(ctx context.Context, a domain.Application) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE applications SET status = ?, rejection_reason = ?, tenant_id = ?, decided_at = ?
		 WHERE id = ?`,
		string(a.Status), a.RejectionReason, nullString(a.TenantID), formatNullTime(a.DecidedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating application: %w", err)
	}
	return checkAffected(result, domain.ErrApplicationNotFound)
}

func scanApplication(row rowScanner) (domain.Application, error) {
	var a domain.Application
	var status, createdAt string
	var tenantID, decidedAt sql.NullString

	err := row.Scan(&a.ID, &a.BusinessName, &a.BusinessCategory, &a.OwnerName, &a.Email, &a.Phone, &a.Address,
		&a.Username, &a.PasswordHash, &status, &a.RejectionReason, &tenantID, &createdAt, &decidedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Application{}, domain.ErrApplicationNotFound
		}
		return domain.Application{}, fmt.Errorf("scanning application: %w", err)
	}

	a.Status = domain.Status(status)
	a.TenantID = tenantID.String
	a.CreatedAt = parseTime(createdAt)
	a.DecidedAt = parseNullTime(decidedAt)

	return a, nil
}

type branchRequestRepository struct {
	q querier
}

const branchRequestColumns = `id, tenant_id, name, address, phone, status, reason, branch_id, created_at, decided_at`

func (r branchRequestRepository) Create(ctx context.Context, br domain.BranchRequest) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO branch_requests (`+branchRequestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		br.ID, br.TenantID, br.Attrs.Name, br.Attrs.Address, br.Attrs.Phone, string(br.Status), br.Reason,
		nullString(br.BranchID), formatTime(br.CreatedAt), formatNullTime(br.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting branch request: %w", err)
	}
	return nil
}

func (r branchRequestRepository) GetByID(ctx context.Context, id string) (domain.BranchRequest, error) {
	return scanBranchRequest(r.q.QueryRowContext(ctx,
		`SELECT `+branchRequestColumns+` FROM branch_requests WHERE id = ?`, id,
	))
}

func (r branchRequestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.BranchRequest, error) {
	query, args := requestListQuery(`SELECT `+branchRequestColumns+` FROM branch_requests`, filter, true)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing branch requests: %w", err)
	}
	defer rows.Close()

	var reqs []domain.BranchRequest
	for rows.Next() {
		br, err := scanBranchRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, br)
	}

	return reqs, rows.Err()
}

func (r branchRequestRepository) Update(ctx context.Context, br domain.BranchRequest) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE branch_requests SET status = ?, reason = ?, branch_id = ?, decided_at = ? WHERE id = ?`,
		string(br.Status), br.Reason, nullString(br.BranchID), formatNullTime(br.DecidedAt), br.ID,
	)
	if err != nil {
		return fmt.Errorf("updating branch request: %w", err)
	}
	return checkAffected(result, domain.ErrBranchRequestNotFound)
}

func scanBranchRequest(row rowScanner) (domain.BranchRequest, error) {
	var br domain.BranchRequest
	var status, createdAt string
	var branchID, decidedAt sql.NullString

	err := row.Scan(&br.ID, &br.TenantID, &br.Attrs.Name, &br.Attrs.Address, &br.Attrs.Phone, &status, &br.Reason,
		&branchID, &createdAt, &decidedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BranchRequest{}, domain.ErrBranchRequestNotFound
		}
		return domain.BranchRequest{}, fmt.Errorf("scanning branch request: %w", err)
	}

	br.Status = domain.Status(status)
	br.BranchID = branchID.String
	br.CreatedAt = parseTime(createdAt)
	br.DecidedAt = parseNullTime(decidedAt)

	return br, nil
}

// requestListQuery appends the shared status/tenant/paging criteria.
func requestListQuery(base string, filter domain.RequestFilter, hasTenant bool) (string, []any) {
	query := base
	var args []any
	where := " WHERE"

	if filter.Status != nil {
		query += where + ` status = ?`
		args = append(args, string(*filter.Status))
		where = " AND"
	}
	if hasTenant && filter.TenantID != "" {
		query += where + ` tenant_id = ?`
		args = append(args, filter.TenantID)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	return query, args
}
