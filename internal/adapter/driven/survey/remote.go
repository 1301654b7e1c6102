package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// remoteTimeLayout is the timestamp format used by the remote system.
const remoteTimeLayout = "2006-01-02 15:04:05"

// flexInt decodes identifiers the remote system sends either as numbers or as numeric strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing integer %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// remoteSurvey is one element of the list_surveys result.
type remoteSurvey struct {
	SID       flexInt `json:"sid"`
	Title     string  `json:"surveyls_title"`
	StartDate *string `json:"startdate"`
	Expires   *string `json:"expires"`
	Active    string  `json:"active"` // "Y" or "N".
	OwnerID   flexInt `json:"owner_id"`
}

// remotePermission is a permission entry of a remote user. Entity is "global"
// for system-wide permissions and e.g. "survey" for per-survey grants.
type remotePermission struct {
	Entity     string `json:"entity"`
	Permission string `json:"permission"`
}

// remoteUser is one element of the list_users result.
type remoteUser struct {
	UID         flexInt            `json:"uid"`
	Username    string             `json:"users_name"`
	FullName    string             `json:"full_name"`
	Email       string             `json:"email"`
	Lang        string             `json:"lang"`
	Created     string             `json:"created"`
	Modified    string             `json:"modified"`
	Permissions []remotePermission `json:"permissions"`
}

// remoteQuestion is one element of the list_questions result.
type remoteQuestion struct {
	QID       flexInt `json:"qid"`
	SID       flexInt `json:"sid"`
	GID       flexInt `json:"gid"`
	ParentQID flexInt `json:"parent_qid"`
	Title     string  `json:"title"`
	Question  string  `json:"question"`
	Type      string  `json:"type"`
}

// participantData is the participant payload sent to add_participants.
type participantData struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

// addedParticipant is one element of the add_participants result.
type addedParticipant struct {
	TID    flexInt         `json:"tid"`
	Token  string          `json:"token"`
	Email  string          `json:"email"`
	Errors json.RawMessage `json:"errors"`
}

// participantRow is one element of the list_participants result.
type participantRow struct {
	TID             flexInt `json:"tid"`
	Token           string  `json:"token"`
	Completed       string  `json:"completed"` // "N", "Y", or a completion timestamp.
	UsesLeft        flexInt `json:"usesleft"`
	ParticipantInfo struct {
		Email string `json:"email"`
	} `json:"participant_info"`
}

// parseRemoteTime parses an optional remote timestamp in loc. Empty and
// unparsable values yield nil.
func parseRemoteTime(v *string, loc *time.Location) *time.Time {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	t, err := time.ParseInLocation(remoteTimeLayout, strings.TrimSpace(*v), loc)
	if err != nil {
		return nil
	}
	return &t
}

// resolveActive derives the local active flag: inactive remotely, or active
// with an expiry in the past, means not active.
func resolveActive(active string, expires *time.Time, now time.Time) bool {
	if !strings.EqualFold(active, "Y") {
		return false
	}
	if expires != nil && expires.Before(now) {
		return false
	}
	return true
}

// noDataStatuses are status messages the remote system uses for empty results.
var noDataStatuses = []string{
	"no surveys found",
	"no data",
	"no response found",
	"no survey participants found",
	"no questions found",
	"no users found",
}

func isNoData(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, prefix := range noDataStatuses {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// isNull reports whether raw carries no value: absent, null, or an empty object or array.
func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	switch string(t) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
