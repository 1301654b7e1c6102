package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

func TestUserRepo_UpdateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	user := model.User{
		PrincipalID:       "alice",
		SurveyPrincipalID: "alice.remote",
		Attributes:        map[string]string{"email": "alice@example.com", "dept": "ops"},
		Roles:             []string{"viewer", "admin"},
	}
	require.NoError(t, repo.UpdateUserDetails(ctx, user))

	got, err := repo.GetUserDetails(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user, *got)
}

func TestUserRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)

	got, err := repo.GetUserDetails(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepo_UpdateReplacesAttributesAndRoles(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.UpdateUserDetails(ctx, model.User{
		PrincipalID: "bob",
		Attributes:  map[string]string{"email": "old@example.com", "phone": "1"},
		Roles:       []string{"viewer"},
	}))
	require.NoError(t, repo.UpdateUserDetails(ctx, model.User{
		PrincipalID:       "bob",
		SurveyPrincipalID: "bobby",
		Attributes:        map[string]string{"email": "new@example.com"},
		Roles:             []string{"editor", "viewer"},
	}))

	got, err := repo.GetUserDetails(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bobby", got.SurveyPrincipalID)
	assert.Equal(t, map[string]string{"email": "new@example.com"}, got.Attributes)
	assert.Equal(t, []string{"editor", "viewer"}, got.Roles)
}

func TestUserRepo_ListUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.UpdateUserDetails(ctx, model.User{PrincipalID: "carol", Roles: []string{"a"}}))
	require.NoError(t, repo.UpdateUserDetails(ctx, model.User{PrincipalID: "alice", Attributes: map[string]string{"k": "v"}}))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "alice", users[0].PrincipalID)
	assert.Equal(t, map[string]string{"k": "v"}, users[0].Attributes)
	assert.Nil(t, users[0].Roles)

	assert.Equal(t, "carol", users[1].PrincipalID)
	assert.Equal(t, []string{"a"}, users[1].Roles)
	assert.Nil(t, users[1].Attributes)
}

func TestUserRepo_EmptyPrincipal(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db)

	err := repo.UpdateUserDetails(context.Background(), model.User{})
	require.Error(t, err)
}

func TestRoleRepo(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoleRepo(db)
	ctx := context.Background()

	got, err := repo.GetRoleDetails(ctx, "admin")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.UpdateRoleDetails(ctx, model.Role{Name: "viewer", Description: "read only"}))
	require.NoError(t, repo.UpdateRoleDetails(ctx, model.Role{Name: "admin", Description: "old"}))
	require.NoError(t, repo.UpdateRoleDetails(ctx, model.Role{Name: "admin", Description: "everything"}))

	got, err = repo.GetRoleDetails(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "everything", got.Description)

	roles, err := repo.ListRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Role{
		{Name: "admin", Description: "everything"},
		{Name: "viewer", Description: "read only"},
	}, roles)
}
