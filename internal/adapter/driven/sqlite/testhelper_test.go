package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared;
// the name derived from t.Name() isolates tests from each other.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		url.PathEscape(t.Name()),
	)

	ctx := context.Background()

	writer, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	writer.SetMaxOpenConns(1)
	require.NoError(t, writer.PingContext(ctx))

	reader, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	reader.SetMaxOpenConns(4)
	require.NoError(t, reader.PingContext(ctx))

	db := NewDBFromPools(writer, reader)
	t.Cleanup(func() { _ = db.Close() })

	_, err = RunMigrations(db.Writer)
	require.NoError(t, err)

	return db
}

// seedEntity creates an entity with one email assessor and one survey.
func seedEntity(t *testing.T, db *DB) model.Entity {
	t.Helper()

	e, err := NewEntityRepo(db).CreateEntity(context.Background(), model.Entity{
		Name:      "Seed",
		Assessors: []model.Assessor{{Type: model.AssessorTypeEmail, Value: "seed@example.com"}},
		SurveyIDs: []int64{10},
	})
	require.NoError(t, err)
	return e
}
