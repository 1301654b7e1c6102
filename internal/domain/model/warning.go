package model

import "fmt"

// WarningKind classifies a non-fatal issue found while notifying assessors.
type WarningKind string

const (
	WarningNoSurveys               WarningKind = "no_surveys"
	WarningNoAssessors             WarningKind = "no_assessors"
	WarningUnsupportedAssessorType WarningKind = "unsupported_assessor_type"
	WarningUnknownEntity           WarningKind = "unknown_entity"
)

// Warning is a non-fatal issue attached to one entity.
type Warning struct {
	EntityID int64
	Kind     WarningKind
	Detail   string
}

// String renders the warning for display.
func (w Warning) String() string {
	return fmt.Sprintf("entity %d: %s", w.EntityID, w.Detail)
}
