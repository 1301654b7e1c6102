package driven

import (
	"context"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// UserStore defines the driven port for local user persistence.
// GetUserDetails returns (nil, nil) if the principal does not exist.
type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserDetails(ctx context.Context, principalID string) (*model.User, error)
	// UpdateUserDetails inserts or replaces the user, including its attributes and roles.
	UpdateUserDetails(ctx context.Context, user model.User) error
}

// RoleStore defines the driven port for local role persistence.
// GetRoleDetails returns (nil, nil) if the role does not exist.
type RoleStore interface {
	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRoleDetails(ctx context.Context, name string) (*model.Role, error)
	UpdateRoleDetails(ctx context.Context, role model.Role) error
}
