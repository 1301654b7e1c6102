package jsonrpc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionExpired is matched by a StatusError whose status reports an invalid
// session key. The client retries such calls once; a second rejection reaches
// the caller.
var ErrSessionExpired = errors.New("session key no longer valid")

// StatusError is an application-level failure reported by the remote system
// through its status envelope.
type StatusError struct {
	Method  string
	Status  string
	Expired bool // Status reports an invalid session key.
}

func newStatusError(method, status string) *StatusError {
	return &StatusError{
		Method:  method,
		Status:  status,
		Expired: isSessionExpired(status),
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: remote status %q", e.Method, e.Status)
}

// Unwrap exposes ErrSessionExpired for expired-session statuses.
func (e *StatusError) Unwrap() error {
	if e.Expired {
		return ErrSessionExpired
	}
	return nil
}

// TransportError wraps connectivity, HTTP, and decoding failures. These are
// never retried by the client.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError is returned when the remote system refuses to issue a session key.
type AuthError struct {
	Status string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Status)
}

// isSessionExpired reports whether a status message means the session key was rejected.
func isSessionExpired(status string) bool {
	return strings.Contains(strings.ToLower(status), "invalid session key")
}
