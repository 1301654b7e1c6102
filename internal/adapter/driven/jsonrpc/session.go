package jsonrpc

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// session holds the single live session key. Refreshes are coalesced so that
// concurrent callers share one authentication call.
type session struct {
	mu    sync.RWMutex
	key   string
	group singleflight.Group
}

// current returns the held key, or "" when unauthenticated.
func (s *session) current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// acquire returns the held key or runs login to obtain one. At most one login
// is in flight; every waiter gives up on its own ctx without cancelling the
// shared login.
func (s *session) acquire(ctx context.Context, login func(context.Context) (string, error)) (string, error) {
	if key := s.current(); key != "" {
		return key, nil
	}

	ch := s.group.DoChan("session", func() (any, error) {
		if key := s.current(); key != "" {
			return key, nil
		}

		key, err := login(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		s.key = key
		s.mu.Unlock()
		return key, nil
	})

	select {
	case <-ctx.Done():
		return "", &TransportError{Method: methodGetSessionKey, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// invalidate clears the held key only if it is still stale, so a caller that
// observed an old key being rejected cannot discard a fresher one.
func (s *session) invalidate(stale string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stale == "" || s.key != stale {
		return false
	}
	s.key = ""
	return true
}

// clear drops the held key and returns it.
func (s *session) clear() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key
	s.key = ""
	return key
}
