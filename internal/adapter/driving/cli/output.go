package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ericfisherdev/surveybridge/internal/application"
	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", what, arg)
	}
	return id, nil
}

type surveyJSON struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Active    bool       `json:"active"`
	Owner     string     `json:"owner,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	Expires   *time.Time `json:"expires,omitempty"`
}

func toSurveyJSON(s model.Survey) surveyJSON {
	return surveyJSON{
		ID:        s.ID,
		Title:     s.Title,
		Active:    s.Active,
		Owner:     s.Owner,
		StartDate: s.StartDate,
		Expires:   s.Expires,
	}
}

type questionJSON struct {
	ID       int64  `json:"id"`
	GroupID  int64  `json:"group_id"`
	ParentID int64  `json:"parent_id,omitempty"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Type     string `json:"type"`
}

type answerJSON struct {
	ResponseID  string            `json:"response_id"`
	Token       string            `json:"token,omitempty"`
	SubmittedAt string            `json:"submitted_at,omitempty"`
	Answers     map[string]string `json:"answers"`
}

type userJSON struct {
	PrincipalID       string            `json:"principal_id,omitempty"`
	SurveyPrincipalID string            `json:"survey_principal_id,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	Roles             []string          `json:"roles"`
}

func toUserJSON(u model.User) userJSON {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userJSON{
		PrincipalID:       u.PrincipalID,
		SurveyPrincipalID: u.SurveyPrincipalID,
		Attributes:        u.Attributes,
		Roles:             roles,
	}
}

type assessorJSON struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

type entityJSON struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Creator     string         `json:"creator,omitempty"`
	SurveyIDs   []int64        `json:"survey_ids"`
	Assessors   []assessorJSON `json:"assessors"`
}

func toEntityJSON(e model.Entity) entityJSON {
	out := entityJSON{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Creator:     e.Creator,
		SurveyIDs:   e.SurveyIDs,
		Assessors:   make([]assessorJSON, 0, len(e.Assessors)),
	}
	if out.SurveyIDs == nil {
		out.SurveyIDs = []int64{}
	}
	for _, a := range e.Assessors {
		out.Assessors = append(out.Assessors, assessorJSON{
			ID:          a.ID,
			Type:        string(a.Type),
			Value:       a.Value,
			Description: a.Description,
		})
	}
	return out
}

type tokenJSON struct {
	ID          string    `json:"id"`
	EntityID    int64     `json:"entity_id"`
	AssessorID  int64     `json:"assessor_id"`
	SurveyID    int64     `json:"survey_id"`
	PrincipalID string    `json:"principal_id"`
	Token       string    `json:"token"`
	EventID     int64     `json:"event_id"`
	Valid       bool      `json:"valid"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTokenJSON(t model.Token) tokenJSON {
	return tokenJSON{
		ID:          t.ID,
		EntityID:    t.EntityID,
		AssessorID:  t.AssessorID,
		SurveyID:    t.SurveyID,
		PrincipalID: t.PrincipalID,
		Token:       t.Token,
		EventID:     t.EventID,
		Valid:       t.Valid,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
	}
}

type warningJSON struct {
	EntityID int64  `json:"entity_id"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail"`
}

type notifyJSON struct {
	Entities []int64       `json:"entities"`
	Warnings []warningJSON `json:"warnings"`
	Message  string        `json:"message"`
}

func toNotifyJSON(r application.NotifyResult) notifyJSON {
	out := notifyJSON{
		Entities: make([]int64, 0, len(r.Entities)),
		Warnings: make([]warningJSON, 0, len(r.Warnings)),
		Message:  r.Message(),
	}
	for _, e := range r.Entities {
		out.Entities = append(out.Entities, e.ID)
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, warningJSON{
			EntityID: w.EntityID,
			Kind:     string(w.Kind),
			Detail:   w.Detail,
		})
	}
	return out
}
