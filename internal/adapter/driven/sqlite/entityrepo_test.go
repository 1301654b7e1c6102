package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

func TestEntityRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepo(db)
	ctx := context.Background()

	created, err := repo.CreateEntity(ctx, model.Entity{
		Name:        "Team A",
		Description: "quarterly review",
		Creator:     "admin",
		Assessors: []model.Assessor{
			{Type: model.AssessorTypeEmail, Value: "a@example.com"},
			{Type: "sms", Value: "+100", Description: "on call"},
		},
		SurveyIDs: []int64{300, 100, 300},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	require.Len(t, created.Assessors, 2)
	assert.NotZero(t, created.Assessors[0].ID)
	assert.NotEqual(t, created.Assessors[0].ID, created.Assessors[1].ID)

	got, err := repo.GetEntity(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Team A", got.Name)
	assert.Equal(t, "admin", got.Creator)
	assert.Equal(t, created.Assessors, got.Assessors)
	assert.Equal(t, []int64{300, 100}, got.SurveyIDs, "duplicates ignored, order kept")
}

func TestEntityRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepo(db)

	got, err := repo.GetEntity(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEntityRepo_ListEntities(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepo(db)
	ctx := context.Background()

	_, err := repo.CreateEntity(ctx, model.Entity{Name: "first"})
	require.NoError(t, err)
	_, err = repo.CreateEntity(ctx, model.Entity{Name: "second", SurveyIDs: []int64{7}})
	require.NoError(t, err)

	entities, err := repo.ListEntities(ctx)
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "first", entities[0].Name)
	assert.Empty(t, entities[0].Assessors)
	assert.Empty(t, entities[0].SurveyIDs)
	assert.Equal(t, []int64{7}, entities[1].SurveyIDs)
}

func TestEntityRepo_CreateRequiresName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEntityRepo(db)

	_, err := repo.CreateEntity(context.Background(), model.Entity{Name: "  "})
	require.Error(t, err)
}
