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
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// ListUsers returns all local users ordered by principal id.
func (r *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	const query = `SELECT principal_id, survey_principal_id FROM users ORDER BY principal_id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	var users []model.User
	index := make(map[string]int)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.PrincipalID, &u.SurveyPrincipalID); err != nil {
			return nil, storeErr("scan user", err)
		}
		index[u.PrincipalID] = len(users)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate users", err)
	}

	if err := r.loadAttributes(ctx, users, index, ""); err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, users, index, ""); err != nil {
		return nil, err
	}

	return users, nil
}

// GetUserDetails returns the user with its attributes and roles, or nil, nil
// if the principal does not exist.
func (r *UserRepo) GetUserDetails(ctx context.Context, principalID string) (*model.User, error) {
	const query = `SELECT principal_id, survey_principal_id FROM users WHERE principal_id = ?`

	var u model.User
	err := r.db.Reader.QueryRowContext(ctx, query, principalID).Scan(&u.PrincipalID, &u.SurveyPrincipalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get user %s", principalID), err)
	}

	users := []model.User{u}
	index := map[string]int{u.PrincipalID: 0}
	if err := r.loadAttributes(ctx, users, index, principalID); err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, users, index, principalID); err != nil {
		return nil, err
	}

	return &users[0], nil
}

// UpdateUserDetails inserts or replaces the user together with its attributes and roles.
func (r *UserRepo) UpdateUserDetails(ctx context.Context, user model.User) error {
	op := fmt.Sprintf("update user %s", user.PrincipalID)
	if user.PrincipalID == "" {
		return storeErr(op, errors.New("empty principal id"))
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT INTO users (principal_id, survey_principal_id, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(principal_id) DO UPDATE SET
			survey_principal_id = excluded.survey_principal_id,
			updated_at = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, upsert, user.PrincipalID, user.SurveyPrincipalID); err != nil {
		return storeErr(op, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_attributes WHERE principal_id = ?`, user.PrincipalID); err != nil {
		return storeErr(op, err)
	}
	for name, value := range user.Attributes {
		const insert = `INSERT INTO user_attributes (principal_id, name, value) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, insert, user.PrincipalID, name, value); err != nil {
			return storeErr(op, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE principal_id = ?`, user.PrincipalID); err != nil {
		return storeErr(op, err)
	}
	for i, role := range user.Roles {
		const insert = `INSERT OR IGNORE INTO user_roles (principal_id, role_name, position) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, insert, user.PrincipalID, role, i); err != nil {
			return storeErr(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr(op, err)
	}
	return nil
}

// loadAttributes fills Attributes of users; principalID restricts the query
// to one user when non-empty.
func (r *UserRepo) loadAttributes(ctx context.Context, users []model.User, index map[string]int, principalID string) error {
	query := `SELECT principal_id, name, value FROM user_attributes`
	var args []any
	if principalID != "" {
		query += ` WHERE principal_id = ?`
		args = append(args, principalID)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return storeErr("list user attributes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner, name, value string
		if err := rows.Scan(&owner, &name, &value); err != nil {
			return storeErr("scan user attribute", err)
		}
		i, ok := index[owner]
		if !ok {
			continue
		}
		if users[i].Attributes == nil {
			users[i].Attributes = make(map[string]string)
		}
		users[i].Attributes[name] = value
	}
	if err := rows.Err(); err != nil {
		return storeErr("iterate user attributes", err)
	}
	return nil
}

// loadRoles fills Roles of users in stored order.
func (r *UserRepo) loadRoles(ctx context.Context, users []model.User, index map[string]int, principalID string) error {
	query := `SELECT principal_id, role_name FROM user_roles`
	var args []any
	if principalID != "" {
		query += ` WHERE principal_id = ?`
		args = append(args, principalID)
	}
	query += ` ORDER BY principal_id, position`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return storeErr("list user roles", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner, role string
		if err := rows.Scan(&owner, &role); err != nil {
			return storeErr("scan user role", err)
		}
		if i, ok := index[owner]; ok {
			users[i].Roles = append(users[i].Roles, role)
		}
	}
	if err := rows.Err(); err != nil {
		return storeErr("iterate user roles", err)
	}
	return nil
}
