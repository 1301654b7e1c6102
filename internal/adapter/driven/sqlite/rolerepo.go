package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RoleStore = (*RoleRepo)(nil)

// RoleRepo is the SQLite implementation of the RoleStore port interface.
type RoleRepo struct {
	db *DB
}

// NewRoleRepo creates a new RoleRepo backed by the given DB.
func NewRoleRepo(db *DB) *RoleRepo {
	return &RoleRepo{db: db}
}

// ListRoles returns all roles ordered by name.
func (r *RoleRepo) ListRoles(ctx context.Context) ([]model.Role, error) {
	const query = `SELECT name, description FROM roles ORDER BY name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("list roles", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.Name, &role.Description); err != nil {
			return nil, storeErr("scan role", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate roles", err)
	}

	return roles, nil
}

// GetRoleDetails returns the named role, or nil, nil if it does not exist.
func (r *RoleRepo) GetRoleDetails(ctx context.Context, name string) (*model.Role, error) {
	const query = `SELECT name, description FROM roles WHERE name = ?`

	var role model.Role
	err := r.db.Reader.QueryRowContext(ctx, query, name).Scan(&role.Name, &role.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get role %s", name), err)
	}

	return &role, nil
}

// UpdateRoleDetails inserts or replaces the role.
func (r *RoleRepo) UpdateRoleDetails(ctx context.Context, role model.Role) error {
	const query = `INSERT INTO roles (name, description) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET description = excluded.description`

	if _, err := r.db.Writer.ExecContext(ctx, query, role.Name, role.Description); err != nil {
		return storeErr(fmt.Sprintf("update role %s", role.Name), err)
	}
	return nil
}
