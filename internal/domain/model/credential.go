package model

import "time"

// Credential is a stored secret, e.g. the survey-system RPC password.
type Credential struct {
	ID        int64
	Service   string
	Value     string
	UpdatedAt time.Time
}
