package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
	"github.com/ericfisherdev/surveybridge/internal/obs"
)

// ErrFatalWorkflow is matched by every FatalWorkflowError.
var ErrFatalWorkflow = errors.New("token issuance aborted")

// warningSeparator joins warnings in NotifyResult.Message.
const warningSeparator = "; "

// FatalWorkflowError reports a mint or persist failure that aborted the whole
// batch. Tokens persisted before the failure are kept.
type FatalWorkflowError struct {
	Stage      string // "mint" or "persist".
	EntityID   int64
	SurveyID   int64
	AssessorID int64
	Err        error
}

func (e *FatalWorkflowError) Error() string {
	return fmt.Sprintf("%s: %s token for entity %d survey %d assessor %d: %v",
		ErrFatalWorkflow, e.Stage, e.EntityID, e.SurveyID, e.AssessorID, e.Err)
}

func (e *FatalWorkflowError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFatalWorkflow) hold.
func (e *FatalWorkflowError) Is(target error) bool {
	return target == ErrFatalWorkflow
}

// NotifyResult is the outcome of a successful batch.
type NotifyResult struct {
	Entities []model.Entity // Processed entities, unmodified, in input order.
	Warnings []model.Warning
}

// Message joins all warnings into one line. It is empty when there are none.
func (r NotifyResult) Message() string {
	parts := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		parts = append(parts, w.String())
	}
	return strings.Join(parts, warningSeparator)
}

// NotifyService mints survey tokens for the assessors of entities and records
// them in the local store.
type NotifyService struct {
	survey      driven.SurveySystem
	tokens      driven.TokenStore
	entities    driven.EntityStore
	concurrency int
	metrics     *obs.Metrics
}

// NewNotifyService creates a new NotifyService. concurrency bounds how many
// entities are processed at once; values below 1 mean sequential processing.
func NewNotifyService(
	survey driven.SurveySystem,
	tokens driven.TokenStore,
	entities driven.EntityStore,
	concurrency int,
	metrics *obs.Metrics,
) *NotifyService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &NotifyService{
		survey:      survey,
		tokens:      tokens,
		entities:    entities,
		concurrency: concurrency,
		metrics:     metrics,
	}
}

// Notify mints and persists one token per (survey, email assessor) pair of
// every entity. The event id starts at 0 for each entity and is replaced by
// the value the store returns after every persisted token.
//
// Missing surveys or assessors and non-email assessors produce warnings and do
// not stop processing. A mint or persist failure cancels the batch and is
// returned as *FatalWorkflowError; no later mint or persist call is started.
func (s *NotifyService) Notify(ctx context.Context, entities []model.Entity, actingPrincipalID string) (NotifyResult, error) {
	perEntity := make([][]model.Warning, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range entities {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			warnings, err := s.notifyEntity(gctx, entities[i], actingPrincipalID)
			perEntity[i] = warnings
			return err
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("token issuance aborted", "principal_id", actingPrincipalID, "error", err)
		return NotifyResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return NotifyResult{}, err
	}

	result := NotifyResult{
		Entities: make([]model.Entity, len(entities)),
		Warnings: []model.Warning{},
	}
	copy(result.Entities, entities)
	for _, warnings := range perEntity {
		result.Warnings = append(result.Warnings, warnings...)
	}

	slog.Info("assessors notified",
		"entities", len(entities),
		"warnings", len(result.Warnings),
		"principal_id", actingPrincipalID,
	)
	return result, nil
}

// NotifyAll notifies every entity in the local store.
func (s *NotifyService) NotifyAll(ctx context.Context, actingPrincipalID string) (NotifyResult, error) {
	entities, err := s.entities.ListEntities(ctx)
	if err != nil {
		return NotifyResult{}, fmt.Errorf("listing entities: %w", err)
	}
	return s.Notify(ctx, entities, actingPrincipalID)
}

// NotifyByID loads the given entities from the local store and notifies them
// in the given order. Unknown ids are reported as warnings.
func (s *NotifyService) NotifyByID(ctx context.Context, ids []int64, actingPrincipalID string) (NotifyResult, error) {
	entities := make([]model.Entity, 0, len(ids))
	var missing []model.Warning

	for _, id := range ids {
		e, err := s.entities.GetEntity(ctx, id)
		if err != nil {
			return NotifyResult{}, fmt.Errorf("loading entity %d: %w", id, err)
		}
		if e == nil {
			missing = append(missing, s.warn(id, model.WarningUnknownEntity, "entity does not exist"))
			continue
		}
		entities = append(entities, *e)
	}

	result, err := s.Notify(ctx, entities, actingPrincipalID)
	if err != nil {
		return NotifyResult{}, err
	}
	result.Warnings = append(missing, result.Warnings...)
	return result, nil
}

// notifyEntity runs the sequential per-entity part of the workflow.
func (s *NotifyService) notifyEntity(ctx context.Context, e model.Entity, principalID string) ([]model.Warning, error) {
	var warnings []model.Warning

	if len(e.SurveyIDs) == 0 {
		warnings = append(warnings, s.warn(e.ID, model.WarningNoSurveys, fmt.Sprintf("%q has no surveys", e.Name)))
	}
	if len(e.Assessors) == 0 {
		warnings = append(warnings, s.warn(e.ID, model.WarningNoAssessors, fmt.Sprintf("%q has no assessors", e.Name)))
	}

	var eventID int64
	for _, surveyID := range e.SurveyIDs {
		for _, a := range e.Assessors {
			if a.Type != model.AssessorTypeEmail {
				warnings = append(warnings, s.warn(e.ID, model.WarningUnsupportedAssessorType,
					fmt.Sprintf("assessor %d has unsupported type %q for survey %d", a.ID, a.Type, surveyID)))
				continue
			}

			if err := ctx.Err(); err != nil {
				return nil, err
			}

			token, err := s.survey.GenerateToken(ctx, surveyID)
			if err != nil {
				return nil, &FatalWorkflowError{Stage: "mint", EntityID: e.ID, SurveyID: surveyID, AssessorID: a.ID, Err: err}
			}

			next, err := s.tokens.AddSurveyToken(ctx, token, e.ID, a.ID, principalID, surveyID, eventID)
			if err != nil {
				return nil, &FatalWorkflowError{Stage: "persist", EntityID: e.ID, SurveyID: surveyID, AssessorID: a.ID, Err: err}
			}
			eventID = next
			s.metrics.TokenIssued()

			slog.Debug("token issued",
				"entity_id", e.ID,
				"survey_id", surveyID,
				"assessor_id", a.ID,
				"event_id", eventID,
			)
		}
	}

	return warnings, nil
}

func (s *NotifyService) warn(entityID int64, kind model.WarningKind, detail string) model.Warning {
	s.metrics.Warning(string(kind))
	slog.Warn("notify warning", "entity_id", entityID, "kind", string(kind), "detail", detail)
	return model.Warning{EntityID: entityID, Kind: kind, Detail: detail}
}
