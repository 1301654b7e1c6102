package model

import "time"

// Survey is a survey definition in the remote survey system.
type Survey struct {
	ID        int64
	Title     string
	Active    bool   // Derived: remote active flag combined with the expiry timestamp.
	Owner     string // Resolved remote username of the owner; empty when unresolved.
	StartDate *time.Time
	Expires   *time.Time
}

// Question is a single question of a survey.
type Question struct {
	ID       int64
	SurveyID int64
	GroupID  int64
	ParentID int64 // Non-zero for sub-questions.
	Title    string
	Text     string
	Type     string
}

// Answer is one response row of a survey export, keyed by question title.
type Answer struct {
	ResponseID  string
	Token       string
	SubmittedAt string
	Answers     map[string]string
}

// Participant is a token-table row of the remote survey system.
type Participant struct {
	TokenID   int64
	Token     string
	Email     string
	Completed bool
	UsesLeft  int
}

// Valid reports whether the participant's token can still be used to answer.
func (p Participant) Valid() bool {
	return p.UsesLeft > 0
}
