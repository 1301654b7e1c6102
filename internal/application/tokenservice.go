package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

// RefreshResult summarizes a token status refresh.
type RefreshResult struct {
	Tokens  []model.Token // Tokens with refreshed flags, ordered by event id.
	Updated int           // Tokens whose flags changed.
	Skipped []int64       // Surveys whose participant table could not be read.
}

// TokenService keeps the valid/completed flags of persisted tokens in step
// with the remote participant tables.
type TokenService struct {
	survey driven.SurveySystem
	tokens driven.TokenStore
}

// NewTokenService creates a new TokenService with the required dependencies.
func NewTokenService(survey driven.SurveySystem, tokens driven.TokenStore) *TokenService {
	return &TokenService{
		survey: survey,
		tokens: tokens,
	}
}

// Refresh re-reads the participant table of every survey the entity has tokens
// for and stores the resulting flags. A token absent remotely becomes invalid.
// A survey whose table cannot be read is logged and skipped.
func (s *TokenService) Refresh(ctx context.Context, entityID int64) (RefreshResult, error) {
	tokens, err := s.tokens.ListTokensByEntity(ctx, entityID)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("listing tokens of entity %d: %w", entityID, err)
	}

	result := RefreshResult{Tokens: slices.Clone(tokens)}
	participants := make(map[int64]map[string]model.Participant)

	for i := range result.Tokens {
		t := &result.Tokens[i]

		byToken, ok := participants[t.SurveyID]
		if !ok {
			byToken, err = s.participantsByToken(ctx, t.SurveyID)
			if err != nil {
				slog.Warn("skipping token refresh for survey",
					"entity_id", entityID,
					"survey_id", t.SurveyID,
					"error", err,
				)
				result.Skipped = append(result.Skipped, t.SurveyID)
			}
			participants[t.SurveyID] = byToken
		}
		if byToken == nil {
			continue
		}

		p, found := byToken[t.Token]
		valid := found && p.Valid()
		completed := found && p.Completed
		if valid == t.Valid && completed == t.Completed {
			continue
		}

		if err := s.tokens.UpdateTokenStatus(ctx, t.ID, valid, completed); err != nil {
			return RefreshResult{}, fmt.Errorf("updating token %s: %w", t.ID, err)
		}
		t.Valid = valid
		t.Completed = completed
		result.Updated++
	}

	slog.Info("token status refreshed",
		"entity_id", entityID,
		"tokens", len(result.Tokens),
		"updated", result.Updated,
		"skipped_surveys", len(result.Skipped),
	)
	return result, nil
}

func (s *TokenService) participantsByToken(ctx context.Context, surveyID int64) (map[string]model.Participant, error) {
	list, err := s.survey.ListParticipants(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	byToken := make(map[string]model.Participant, len(list))
	for _, p := range list {
		byToken[p.Token] = p
	}
	return byToken, nil
}
