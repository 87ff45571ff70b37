package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/neomorfeo/tenantpos/internal/domain"
)

type userRepository struct {
	q querier
}

func (r userRepository) Create(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, tenant_id, branch_id, username, password_hash, role, full_name, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.TenantID, nullString(u.BranchID), u.Username, u.PasswordHash, string(u.Role), u.FullName,
		boolInt(u.Active), formatTime(u.CreatedAt),
	)
	if err != nil {
		if cols, ok := uniqueViolation(err); ok && strings.Contains(cols, "users.username") {
			return &domain.ConflictError{Field: "username", Value: u.Username}
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// dependentTables hold the records that weakly reference a branch.
var dependentTables = [...]string{"users", "sales", "products"}

type dependentRepository struct {
	q querier
}

func (r dependentRepository) Count(ctx context.Context, branchID string) (domain.Dependents, error) {
	var d domain.Dependents
	err := r.q.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM users WHERE branch_id = ?),
		   (SELECT COUNT(*) FROM sales WHERE branch_id = ?),
		   (SELECT COUNT(*) FROM products WHERE branch_id = ?)`,
		branchID, branchID, branchID,
	).Scan(&d.Users, &d.Sales, &d.Products)
	if err != nil {
		return domain.Dependents{}, fmt.Errorf("counting branch dependents: %w", err)
	}
	return d, nil
}

// Reassign points every dependent of fromBranchID at toBranchID and reports how
// many rows moved per table.
func (r dependentRepository) Reassign(ctx context.Context, fromBranchID, toBranchID string) (domain.Dependents, error) {
	var moved [len(dependentTables)]int
	for i, table := range dependentTables {
		result, err := r.q.ExecContext(ctx,
			`UPDATE `+table+` SET branch_id = ? WHERE branch_id = ?`, toBranchID, fromBranchID,
		)
		if err != nil {
			return domain.Dependents{}, fmt.Errorf("reassigning %s: %w", table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return domain.Dependents{}, fmt.Errorf("checking rows affected: %w", err)
		}
		moved[i] = int(n)
	}
	return domain.Dependents{Users: moved[0], Sales: moved[1], Products: moved[2]}, nil
}
