package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

func localUsers() []model.User {
	return []model.User{
		{PrincipalID: "alice", Attributes: map[string]string{"email": "old@example.com", "dept": "ops"}, Roles: []string{"viewer"}},
		{PrincipalID: "bob"},
		{PrincipalID: "jdoe", SurveyPrincipalID: "john"},
	}
}

func remoteUsers() []model.User {
	return []model.User{
		{SurveyPrincipalID: "alice", Attributes: map[string]string{"email": "alice@example.com", "lang": "en"}, Roles: []string{"superadmin", "viewer"}},
		{SurveyPrincipalID: "carol", Attributes: map[string]string{"email": "carol@example.com"}},
		{SurveyPrincipalID: "john", Roles: []string{"auth_db"}},
		{SurveyPrincipalID: "dave"},
	}
}

func TestMergeUsers_MatchedRecords(t *testing.T) {
	merged := MergeUsers(localUsers(), remoteUsers(), false)
	require.Len(t, merged, 3)

	alice := merged[0]
	assert.Equal(t, "alice", alice.PrincipalID)
	assert.Equal(t, "alice", alice.SurveyPrincipalID)
	assert.Equal(t, map[string]string{"email": "alice@example.com", "dept": "ops", "lang": "en"}, alice.Attributes)
	assert.Equal(t, []string{"viewer", "superadmin"}, alice.Roles)

	bob := merged[1]
	assert.Empty(t, bob.SurveyPrincipalID)
	assert.Empty(t, bob.Roles)

	jdoe := merged[2]
	assert.Equal(t, "john", jdoe.SurveyPrincipalID, "explicit link")
	assert.Equal(t, []string{"auth_db"}, jdoe.Roles)
}

func TestMergeUsers_Counts(t *testing.T) {
	local, remote := localUsers(), remoteUsers()

	assert.LessOrEqual(t, len(MergeUsers(local, remote, false)), len(local))
	assert.Len(t, MergeUsers(local, remote, false), len(local))

	withRemote := MergeUsers(local, remote, true)
	require.Len(t, withRemote, len(local)+2)
	assert.Equal(t, "carol", withRemote[3].SurveyPrincipalID)
	assert.Empty(t, withRemote[3].PrincipalID)
	assert.Equal(t, "dave", withRemote[4].SurveyPrincipalID)

	assert.Empty(t, MergeUsers(nil, remote, false))
	assert.Len(t, MergeUsers(nil, remote, true), len(remote))
	assert.Len(t, MergeUsers(local, nil, true), len(local))
}

func TestMergeUsers_LinkedRemoteIsNotRemoteOnly(t *testing.T) {
	local := []model.User{{PrincipalID: "jdoe", SurveyPrincipalID: "john"}}
	remote := []model.User{{SurveyPrincipalID: "john", Roles: []string{"auth_db"}}}

	merged := MergeUsers(local, remote, true)
	require.Len(t, merged, 1)
	assert.Equal(t, "jdoe", merged[0].PrincipalID)
	assert.Equal(t, []string{"auth_db"}, merged[0].Roles)
}

func TestMergeUsers_Idempotent(t *testing.T) {
	remote := remoteUsers()

	once := MergeUsers(localUsers(), remote, false)
	twice := MergeUsers(once, remote, false)

	assert.Equal(t, once, twice)
}

func TestMergeUsers_DoesNotMutateInputs(t *testing.T) {
	local, remote := localUsers(), remoteUsers()

	merged := MergeUsers(local, remote, true)
	merged[0].Attributes["dept"] = "changed"
	merged[0].Roles[0] = "changed"
	merged[3].Attributes["email"] = "changed"

	assert.Equal(t, localUsers(), local)
	assert.Equal(t, remoteUsers(), remote)
}

func TestMergeUsers_LastRemoteValueWins(t *testing.T) {
	local := []model.User{{PrincipalID: "alice", SurveyPrincipalID: "alice"}}
	remote := []model.User{
		{SurveyPrincipalID: "alice", Attributes: map[string]string{"email": "first@example.com"}, Roles: []string{"a"}},
		{SurveyPrincipalID: "alice", Attributes: map[string]string{"email": "second@example.com"}, Roles: []string{"a", "b"}},
	}

	merged := MergeUsers(local, remote, true)
	require.Len(t, merged, 1)
	assert.Equal(t, "second@example.com", merged[0].Attributes["email"])
	assert.Equal(t, []string{"a", "b"}, merged[0].Roles)
}

func TestIdentityService_ListUsers(t *testing.T) {
	svc := NewIdentityService(
		&mockUserStore{users: localUsers()},
		&mockSurveySystem{listUsersFn: func(context.Context) ([]model.User, error) { return remoteUsers(), nil }},
	)

	users, err := svc.ListUsers(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, users, 5)
}

func TestIdentityService_ListUsers_RemoteFailure(t *testing.T) {
	remoteErr := errors.New("remote down")
	svc := NewIdentityService(
		&mockUserStore{users: localUsers()},
		&mockSurveySystem{listUsersFn: func(context.Context) ([]model.User, error) { return nil, remoteErr }},
	)

	_, err := svc.ListUsers(context.Background(), false)
	require.ErrorIs(t, err, remoteErr)
}

func TestIdentityService_GetUser(t *testing.T) {
	svc := NewIdentityService(
		&mockUserStore{users: localUsers()},
		&mockSurveySystem{listUsersFn: func(context.Context) ([]model.User, error) { return remoteUsers(), nil }},
	)
	ctx := context.Background()

	alice, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", alice.Attributes["email"])

	carol, err := svc.GetUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, carol.PrincipalID, "remote-only user")
	assert.Equal(t, "carol", carol.SurveyPrincipalID)

	_, err = svc.GetUser(ctx, "nobody")
	require.ErrorIs(t, err, driven.ErrUserNotFound)
}

func TestIdentityService_LinkUser(t *testing.T) {
	store := &mockUserStore{users: localUsers()}
	svc := NewIdentityService(
		store,
		&mockSurveySystem{listUsersFn: func(context.Context) ([]model.User, error) { return remoteUsers(), nil }},
	)
	ctx := context.Background()

	linked, err := svc.LinkUser(ctx, "bob", "dave")
	require.NoError(t, err)
	assert.Equal(t, "dave", linked.SurveyPrincipalID)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "bob", store.saved[0].PrincipalID)
	assert.Equal(t, "dave", store.saved[0].SurveyPrincipalID)

	_, err = svc.LinkUser(ctx, "nobody", "dave")
	require.ErrorIs(t, err, driven.ErrUserNotFound)

	_, err = svc.LinkUser(ctx, "bob", "ghost")
	require.ErrorIs(t, err, driven.ErrUserNotFound)
	assert.Len(t, store.saved, 1)
}
