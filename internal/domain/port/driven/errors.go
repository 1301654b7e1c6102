// Package driven defines secondary port interfaces for external adapters.
package driven

import "errors"

// ErrStore marks failures of the local store. Implementations wrap their
// underlying errors with it so callers can tell persistence failures apart
// from remote ones via errors.Is.
var ErrStore = errors.New("store error")

// ErrUserNotFound indicates the requested user does not exist locally or remotely.
var ErrUserNotFound = errors.New("user not found")
