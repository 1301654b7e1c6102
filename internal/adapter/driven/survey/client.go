// Package survey implements the SurveySystem port on top of the remote
// system's session-keyed JSON-RPC API.
package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ericfisherdev/surveybridge/internal/adapter/driven/jsonrpc"
	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SurveySystem = (*Client)(nil)

// Placeholder identifies the participant record created for every minted token.
// The remote system requires a participant per token; the real assessor is
// tracked in the local store.
type Placeholder struct {
	FirstName string
	LastName  string
	Email     string
}

// Client implements driven.SurveySystem.
type Client struct {
	rpc          *jsonrpc.Client
	language     string
	csvDelimiter rune
	placeholder  Placeholder
	location     *time.Location
	now          func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLanguage sets the language code used for answer exports.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// WithCSVDelimiter sets the field delimiter of answer exports.
func WithCSVDelimiter(r rune) Option {
	return func(c *Client) {
		c.csvDelimiter = r
	}
}

// WithPlaceholder sets the participant data sent when minting tokens.
func WithPlaceholder(p Placeholder) Option {
	return func(c *Client) {
		c.placeholder = p
	}
}

// WithLocation sets the time zone remote timestamps are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.location = loc
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a SurveySystem backed by rpc.
func NewClient(rpc *jsonrpc.Client, opts ...Option) *Client {
	c := &Client{
		rpc:          rpc,
		language:     "en",
		csvDelimiter: ',',
		placeholder: Placeholder{
			FirstName: "Survey",
			LastName:  "Participant",
			Email:     "participant@example.invalid",
		},
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSurveys returns all surveys visible to the session user. Owners are
// resolved to remote usernames; an unknown owner id leaves Owner empty, and so
// does a user listing the remote rejects with a status.
func (c *Client) ListSurveys(ctx context.Context) ([]model.Survey, error) {
	remote, err := c.remoteSurveys(ctx)
	if err != nil {
		return nil, err
	}
	if len(remote) == 0 {
		return []model.Survey{}, nil
	}

	users, err := c.remoteUsers(ctx)
	var se *jsonrpc.StatusError
	if errors.As(err, &se) && !se.Expired {
		slog.Warn("owners not resolved: listing users rejected", "status", se.Status)
		users = nil
	} else if err != nil {
		return nil, err
	}

	owners := make(map[int64]string, len(users))
	for _, u := range users {
		owners[int64(u.UID)] = u.Username
	}

	now := c.now()
	surveys := make([]model.Survey, 0, len(remote))
	for _, rs := range remote {
		s := c.mapSurvey(rs, now)

		owner, ok := owners[int64(rs.OwnerID)]
		if !ok {
			slog.Warn("survey owner not resolved", "survey_id", s.ID, "owner_id", int64(rs.OwnerID))
		}
		s.Owner = owner

		surveys = append(surveys, s)
	}

	return surveys, nil
}

// ListQuestions returns the questions of a survey, sub-questions included.
func (c *Client) ListQuestions(ctx context.Context, surveyID int64) ([]model.Question, error) {
	remote, err := callList[remoteQuestion](ctx, c.rpc, "list_questions", surveyID)
	if err != nil {
		return nil, fmt.Errorf("listing questions of survey %d: %w", surveyID, err)
	}

	questions := make([]model.Question, 0, len(remote))
	for _, rq := range remote {
		questions = append(questions, model.Question{
			ID:       int64(rq.QID),
			SurveyID: int64(rq.SID),
			GroupID:  int64(rq.GID),
			ParentID: int64(rq.ParentQID),
			Title:    rq.Title,
			Text:     rq.Question,
			Type:     rq.Type,
		})
	}

	return questions, nil
}

// ListUsers returns the remote users. Only global permissions become roles.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	remote, err := c.remoteUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(remote))
	for _, ru := range remote {
		users = append(users, mapUser(ru))
	}

	return users, nil
}

// UpdateSurveyDetails brings the remote survey in line with survey.Active.
// Deactivation sets the expiry to now; the remote API has no reversible
// deactivate call.
func (c *Client) UpdateSurveyDetails(ctx context.Context, survey model.Survey) error {
	remote, err := c.remoteSurveys(ctx)
	if err != nil {
		return err
	}

	var current *remoteSurvey
	for i := range remote {
		if int64(remote[i].SID) == survey.ID {
			current = &remote[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("updating survey %d: %w", survey.ID, driven.ErrSurveyNotFound)
	}

	now := c.now()
	expires := parseRemoteTime(current.Expires, c.location)
	expired := expires != nil && expires.Before(now)

	if !strings.EqualFold(current.Active, "Y") {
		if !survey.Active {
			return nil
		}
		if err := jsonrpc.CallStatus(ctx, c.rpc, "activate_survey", survey.ID); err != nil {
			return fmt.Errorf("activating survey %d: %w", survey.ID, err)
		}
		slog.Info("survey activated", "survey_id", survey.ID)
		return nil
	}

	switch {
	case survey.Active && expired:
		if err := c.setExpires(ctx, survey.ID, nil); err != nil {
			return err
		}
		slog.Info("survey expiry cleared", "survey_id", survey.ID)
	case !survey.Active && !expired:
		stamp := now.In(c.location).Format(remoteTimeLayout)
		if err := c.setExpires(ctx, survey.ID, &stamp); err != nil {
			return err
		}
		slog.Info("survey expired", "survey_id", survey.ID, "expires", stamp)
	}

	return nil
}

func (c *Client) setExpires(ctx context.Context, surveyID int64, value *string) error {
	props := map[string]any{"expires": nil}
	if value != nil {
		props["expires"] = *value
	}

	res, err := jsonrpc.Call[map[string]bool](ctx, c.rpc, "set_survey_properties", surveyID, props)
	if err != nil {
		return fmt.Errorf("setting expiry of survey %d: %w", surveyID, err)
	}
	if !res["expires"] {
		return fmt.Errorf("setting expiry of survey %d: property not accepted", surveyID)
	}
	return nil
}

func (c *Client) remoteSurveys(ctx context.Context) ([]remoteSurvey, error) {
	remote, err := callList[remoteSurvey](ctx, c.rpc, "list_surveys")
	if err != nil {
		return nil, fmt.Errorf("listing surveys: %w", err)
	}
	return remote, nil
}

func (c *Client) remoteUsers(ctx context.Context) ([]remoteUser, error) {
	remote, err := callList[remoteUser](ctx, c.rpc, "list_users")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return remote, nil
}

func (c *Client) mapSurvey(rs remoteSurvey, now time.Time) model.Survey {
	expires := parseRemoteTime(rs.Expires, c.location)
	return model.Survey{
		ID:        int64(rs.SID),
		Title:     rs.Title,
		Active:    resolveActive(rs.Active, expires, now),
		StartDate: parseRemoteTime(rs.StartDate, c.location),
		Expires:   expires,
	}
}

func mapUser(ru remoteUser) model.User {
	attrs := make(map[string]string)
	for name, value := range map[string]string{
		"full_name": ru.FullName,
		"email":     ru.Email,
		"lang":      ru.Lang,
		"created":   ru.Created,
		"modified":  ru.Modified,
	} {
		if value != "" {
			attrs[name] = value
		}
	}

	var roles []string
	for _, p := range ru.Permissions {
		if !strings.EqualFold(p.Entity, "global") || p.Permission == "" {
			continue
		}
		if !slices.Contains(roles, p.Permission) {
			roles = append(roles, p.Permission)
		}
	}

	return model.User{
		SurveyPrincipalID: ru.Username,
		Attributes:        attrs,
		Roles:             roles,
	}
}

// callList calls a list method and maps the remote "nothing found" statuses
// to an empty slice.
func callList[T any](ctx context.Context, rpc *jsonrpc.Client, method string, params ...any) ([]T, error) {
	v, err := jsonrpc.Call[[]T](ctx, rpc, method, params...)

	var se *jsonrpc.StatusError
	if errors.As(err, &se) && isNoData(se.Status) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	if v == nil {
		v = []T{}
	}
	return v, nil
}
