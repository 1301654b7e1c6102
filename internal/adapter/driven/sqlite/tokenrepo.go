package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenStore = (*TokenRepo)(nil)

// TokenRepo is the SQLite implementation of the TokenStore port interface.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new TokenRepo backed by the given DB.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// AddSurveyToken stores a minted token under the next event id of the entity,
// which is one past the larger of priorEventID and the highest event id
// already stored for the entity. The new event id is returned.
func (r *TokenRepo) AddSurveyToken(ctx context.Context, token string, entityID, assessorID int64, principalID string, surveyID, priorEventID int64) (int64, error) {
	op := fmt.Sprintf("add token for entity %d survey %d", entityID, surveyID)

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	const maxQuery = `SELECT COALESCE(MAX(event_id), 0) FROM survey_tokens WHERE entity_id = ?`
	var stored int64
	if err := tx.QueryRowContext(ctx, maxQuery, entityID).Scan(&stored); err != nil {
		return 0, storeErr(op, err)
	}

	eventID := max(priorEventID, stored) + 1

	const insert = `INSERT INTO survey_tokens
		(id, entity_id, assessor_id, survey_id, principal_id, token, event_id, valid, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, 0, ?)`
	_, err = tx.ExecContext(ctx, insert,
		ulid.Make().String(), entityID, assessorID, surveyID, principalID, token, eventID, time.Now().UTC())
	if err != nil {
		return 0, storeErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr(op, err)
	}

	return eventID, nil
}

// ListTokensByEntity returns the entity's tokens ordered by event id.
func (r *TokenRepo) ListTokensByEntity(ctx context.Context, entityID int64) ([]model.Token, error) {
	const query = `SELECT id, assessor_id, entity_id, survey_id, principal_id, token, event_id, valid, completed, created_at
		FROM survey_tokens WHERE entity_id = ? ORDER BY event_id`

	rows, err := r.db.Reader.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("list tokens of entity %d", entityID), err)
	}
	defer rows.Close()

	var tokens []model.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, storeErr("scan token", err)
		}
		tokens = append(tokens, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate tokens", err)
	}

	return tokens, nil
}

// UpdateTokenStatus sets the valid and completed flags of a token.
func (r *TokenRepo) UpdateTokenStatus(ctx context.Context, id string, valid, completed bool) error {
	op := fmt.Sprintf("update token %s", id)
	const query = `UPDATE survey_tokens SET valid = ?, completed = ? WHERE id = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, valid, completed, id)
	if err != nil {
		return storeErr(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return storeErr(op, errors.New("token not found"))
	}
	return nil
}

func scanToken(s scanner) (*model.Token, error) {
	var t model.Token
	var createdAt string
	err := s.Scan(&t.ID, &t.AssessorID, &t.EntityID, &t.SurveyID, &t.PrincipalID, &t.Token,
		&t.EventID, &t.Valid, &t.Completed, &createdAt)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for token %s: %w", t.ID, err)
	}
	return &t, nil
}

// parseTime accepts the formats SQLite and the driver produce for DATETIME columns.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
