package model

// AssessorType identifies how an assessor is contacted.
type AssessorType string

// AssessorTypeEmail is the only assessor type that can receive a survey token.
const AssessorTypeEmail AssessorType = "email"

// Assessor is a contact invited to answer surveys on behalf of an entity.
type Assessor struct {
	ID          int64
	Type        AssessorType
	Value       string // e.g. an email address.
	Description string
}

// Entity is a subject being assessed. The issuance workflow reads SurveyIDs and
// Assessors and never modifies an entity.
type Entity struct {
	ID          int64
	Name        string
	Description string
	Creator     string // Local principal that created the entity.
	Assessors   []Assessor
	SurveyIDs   []int64
}
