package survey

import (
	"context"
	"fmt"
	"strings"

	"github.com/ericfisherdev/surveybridge/internal/adapter/driven/jsonrpc"
	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

// participantPageSize bounds a single list_participants call.
const participantPageSize = 5000

// GenerateToken adds the placeholder participant to a survey and returns the
// access token the remote system minted for it.
func (c *Client) GenerateToken(ctx context.Context, surveyID int64) (string, error) {
	participant := participantData{
		FirstName: c.placeholder.FirstName,
		LastName:  c.placeholder.LastName,
		Email:     c.placeholder.Email,
	}

	added, err := jsonrpc.Call[[]addedParticipant](ctx, c.rpc, "add_participants",
		surveyID, []participantData{participant}, true)
	if err != nil {
		return "", fmt.Errorf("adding participant to survey %d: %w", surveyID, err)
	}
	if len(added) == 0 {
		return "", fmt.Errorf("adding participant to survey %d: %w", surveyID, driven.ErrNoParticipant)
	}

	p := added[0]
	if !isNull(p.Errors) {
		return "", fmt.Errorf("adding participant to survey %d: rejected: %s", surveyID, string(p.Errors))
	}
	if p.Token == "" {
		return "", fmt.Errorf("adding participant to survey %d: %w: empty token", surveyID, driven.ErrNoParticipant)
	}

	return p.Token, nil
}

// ListParticipants returns the token table of a survey, reading it page by
// page until the remote returns a short or empty page.
func (c *Client) ListParticipants(ctx context.Context, surveyID int64) ([]model.Participant, error) {
	var rows []participantRow
	start := 0
	for {
		page, err := callList[participantRow](ctx, c.rpc, "list_participants",
			surveyID, start, participantPageSize, false, []string{"completed", "usesleft"})
		if err != nil {
			return nil, fmt.Errorf("listing participants of survey %d: %w", surveyID, err)
		}

		rows = append(rows, page...)
		if len(page) < participantPageSize {
			break
		}
		start += len(page)
	}

	participants := make([]model.Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, model.Participant{
			TokenID:   int64(row.TID),
			Token:     row.Token,
			Email:     row.ParticipantInfo.Email,
			Completed: isCompleted(row.Completed),
			UsesLeft:  int(row.UsesLeft),
		})
	}

	return participants, nil
}

// isCompleted interprets the completed column, which holds "N" or a completion timestamp.
func isCompleted(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "N")
}
