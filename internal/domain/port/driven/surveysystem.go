package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// Sentinel errors returned by SurveySystem implementations.
var (
	// ErrSurveyNotFound indicates the survey id does not exist in the remote system.
	ErrSurveyNotFound = errors.New("survey not found")

	// ErrNoParticipant indicates the remote system accepted a participant request
	// but returned no participant record.
	ErrNoParticipant = errors.New("no participant returned")
)

// SurveySystem defines the driven port for the remote survey-execution system.
// Every method returns either a populated result or a non-nil error; callers must
// check the error before trusting the result.
type SurveySystem interface {
	// ListSurveys returns all surveys with the derived Active flag and resolved owner.
	ListSurveys(ctx context.Context) ([]model.Survey, error)
	ListQuestions(ctx context.Context, surveyID int64) ([]model.Question, error)
	// ListAnswers returns one Answer per completed response of the survey.
	ListAnswers(ctx context.Context, surveyID int64) ([]model.Answer, error)
	// ListUsers returns remote users as model.User with SurveyPrincipalID set
	// and PrincipalID empty.
	ListUsers(ctx context.Context) ([]model.User, error)
	// GenerateToken adds a placeholder participant to the survey and returns
	// the token minted for it.
	GenerateToken(ctx context.Context, surveyID int64) (string, error)
	// UpdateSurveyDetails changes the remote survey so its derived Active flag
	// matches survey.Active. Returns ErrSurveyNotFound for unknown ids.
	UpdateSurveyDetails(ctx context.Context, survey model.Survey) error
	// ListParticipants returns the token table of the survey.
	ListParticipants(ctx context.Context, surveyID int64) ([]model.Participant, error)
}
