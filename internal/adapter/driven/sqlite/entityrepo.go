package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.EntityStore = (*EntityRepo)(nil)

// EntityRepo is the SQLite implementation of the EntityStore port interface.
type EntityRepo struct {
	db *DB
}

// NewEntityRepo creates a new EntityRepo backed by the given DB.
func NewEntityRepo(db *DB) *EntityRepo {
	return &EntityRepo{db: db}
}

// ListEntities returns all entities with their assessors and survey ids, ordered by id.
func (r *EntityRepo) ListEntities(ctx context.Context) ([]model.Entity, error) {
	const query = `SELECT id, name, description, creator FROM entities ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("list entities", err)
	}
	defer rows.Close()

	var entities []model.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, storeErr("scan entity", err)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate entities", err)
	}

	for i := range entities {
		if err := r.loadChildren(ctx, &entities[i]); err != nil {
			return nil, err
		}
	}

	return entities, nil
}

// GetEntity returns the entity with its assessors and survey ids, or nil, nil
// if the id is unknown.
func (r *EntityRepo) GetEntity(ctx context.Context, id int64) (*model.Entity, error) {
	const query = `SELECT id, name, description, creator FROM entities WHERE id = ?`

	e, err := scanEntity(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get entity %d", id), err)
	}

	if err := r.loadChildren(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEntity inserts the entity, its assessors, and its survey ids in one
// transaction and returns the entity with the assigned ids.
func (r *EntityRepo) CreateEntity(ctx context.Context, entity model.Entity) (model.Entity, error) {
	op := fmt.Sprintf("create entity %q", entity.Name)
	if strings.TrimSpace(entity.Name) == "" {
		return model.Entity{}, storeErr(op, errors.New("empty name"))
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Entity{}, storeErr(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertEntity = `INSERT INTO entities (name, description, creator) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, insertEntity, entity.Name, entity.Description, entity.Creator)
	if err != nil {
		return model.Entity{}, storeErr(op, err)
	}
	entity.ID, err = res.LastInsertId()
	if err != nil {
		return model.Entity{}, storeErr(op, err)
	}

	assessors := make([]model.Assessor, len(entity.Assessors))
	for i, a := range entity.Assessors {
		const insertAssessor = `INSERT INTO assessors (entity_id, type, value, description) VALUES (?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, insertAssessor, entity.ID, string(a.Type), a.Value, a.Description)
		if err != nil {
			return model.Entity{}, storeErr(op, err)
		}
		a.ID, err = res.LastInsertId()
		if err != nil {
			return model.Entity{}, storeErr(op, err)
		}
		assessors[i] = a
	}
	entity.Assessors = assessors

	for i, surveyID := range entity.SurveyIDs {
		const insertSurvey = `INSERT OR IGNORE INTO entity_surveys (entity_id, survey_id, position) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, insertSurvey, entity.ID, surveyID, i); err != nil {
			return model.Entity{}, storeErr(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Entity{}, storeErr(op, err)
	}

	return entity, nil
}

func (r *EntityRepo) loadChildren(ctx context.Context, e *model.Entity) error {
	const assessorQuery = `SELECT id, type, value, description FROM assessors WHERE entity_id = ? ORDER BY id`

	rows, err := r.db.Reader.QueryContext(ctx, assessorQuery, e.ID)
	if err != nil {
		return storeErr(fmt.Sprintf("list assessors of entity %d", e.ID), err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Assessor
		var typ string
		if err := rows.Scan(&a.ID, &typ, &a.Value, &a.Description); err != nil {
			return storeErr("scan assessor", err)
		}
		a.Type = model.AssessorType(typ)
		e.Assessors = append(e.Assessors, a)
	}
	if err := rows.Err(); err != nil {
		return storeErr("iterate assessors", err)
	}

	const surveyQuery = `SELECT survey_id FROM entity_surveys WHERE entity_id = ? ORDER BY position`

	surveyRows, err := r.db.Reader.QueryContext(ctx, surveyQuery, e.ID)
	if err != nil {
		return storeErr(fmt.Sprintf("list surveys of entity %d", e.ID), err)
	}
	defer surveyRows.Close()

	for surveyRows.Next() {
		var id int64
		if err := surveyRows.Scan(&id); err != nil {
			return storeErr("scan entity survey", err)
		}
		e.SurveyIDs = append(e.SurveyIDs, id)
	}
	if err := surveyRows.Err(); err != nil {
		return storeErr("iterate entity surveys", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(s scanner) (*model.Entity, error) {
	var e model.Entity
	if err := s.Scan(&e.ID, &e.Name, &e.Description, &e.Creator); err != nil {
		return nil, err
	}
	return &e, nil
}
