package model

import "time"

// Token is a persisted survey invitation minted for one assessor of one entity.
// Only Valid and Completed change after creation.
type Token struct {
	ID          string // ULID assigned by the store.
	AssessorID  int64
	EntityID    int64
	SurveyID    int64
	PrincipalID string // Issuer.
	Token       string
	EventID     int64
	Valid       bool
	Completed   bool
	CreatedAt   time.Time
}
