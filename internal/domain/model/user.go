package model

import "slices"

// User is an identity known to the local store, the remote survey system, or both.
// PrincipalID is empty for a remote-only identity produced by reconciliation.
type User struct {
	PrincipalID       string
	SurveyPrincipalID string            // Username in the remote survey system; empty if unlinked.
	Attributes        map[string]string // Profile fields keyed by attribute name.
	Roles             []string          // Set semantics: no duplicates, insertion order kept.
}

// Clone returns a deep copy of u so callers can merge into it without touching the original.
func (u User) Clone() User {
	c := u
	if u.Attributes != nil {
		c.Attributes = make(map[string]string, len(u.Attributes))
		for k, v := range u.Attributes {
			c.Attributes[k] = v
		}
	}
	if u.Roles != nil {
		c.Roles = slices.Clone(u.Roles)
	}
	return c
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(name string) bool {
	return slices.Contains(u.Roles, name)
}

// Role is a named permission group held by local users.
type Role struct {
	Name        string
	Description string
}
