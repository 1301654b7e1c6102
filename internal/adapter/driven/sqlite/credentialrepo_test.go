package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestCredentialRepo(t *testing.T, db *DB) *CredentialRepo {
	t.Helper()

	key, err := ParseSecretKey(testKeyHex)
	require.NoError(t, err)

	repo, err := NewCredentialRepo(db, key)
	require.NoError(t, err)
	return repo
}

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestCredentialRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, driven.CredentialRPCPassword, "hunter2"))

	val, err := repo.Get(ctx, driven.CredentialRPCPassword)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", val)

	var stored string
	require.NoError(t, db.Reader.QueryRow(`SELECT value FROM credentials WHERE service = ?`, driven.CredentialRPCPassword).Scan(&stored))
	assert.NotContains(t, stored, "hunter2", "stored encrypted")
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestCredentialRepo(t, db)

	val, err := repo.Get(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestCredentialRepo_OverwriteListDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestCredentialRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "b", "old"))
	require.NoError(t, repo.Set(ctx, "b", "new"))
	require.NoError(t, repo.Set(ctx, "a", "first"))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "a", creds[0].Service)
	assert.Equal(t, "first", creds[0].Value)
	assert.Equal(t, "new", creds[1].Value)
	assert.False(t, creds[1].UpdatedAt.IsZero())

	require.NoError(t, repo.Delete(ctx, "b"))
	val, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestCredentialRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo, err := NewCredentialRepo(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.ErrorIs(t, repo.Set(ctx, "a", "v"), driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "a")
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.List(ctx)
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCredentialRepo_WrongKey(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, newTestCredentialRepo(t, db).Set(ctx, "a", "secret"))

	other, err := ParseSecretKey(strings.Repeat("ff", 32))
	require.NoError(t, err)
	repo, err := NewCredentialRepo(db, other)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "a")
	require.Error(t, err)
}

func TestParseSecretKey(t *testing.T) {
	key, err := ParseSecretKey("")
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = ParseSecretKey("zz")
	require.Error(t, err)

	_, err = ParseSecretKey("abcd")
	require.Error(t, err)

	key, err = ParseSecretKey(testKeyHex)
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
