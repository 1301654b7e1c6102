package driven

import (
	"context"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// TokenStore defines the driven port for survey token persistence.
type TokenStore interface {
	// AddSurveyToken persists a minted token and returns the event id to pass as
	// priorEventID on the next call for the same entity. The returned value is
	// always greater than priorEventID.
	AddSurveyToken(ctx context.Context, token string, entityID, assessorID int64, principalID string, surveyID, priorEventID int64) (int64, error)
	// ListTokensByEntity returns the entity's tokens ordered by event id.
	ListTokensByEntity(ctx context.Context, entityID int64) ([]model.Token, error)
	// UpdateTokenStatus refreshes the only mutable fields of a persisted token.
	UpdateTokenStatus(ctx context.Context, id string, valid, completed bool) error
}
