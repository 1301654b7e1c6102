// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

// MergeUsers unifies local user records with remote survey-system users.
//
// A remote user matches a local one when its SurveyPrincipalID equals the
// local PrincipalID, or equals the local SurveyPrincipalID recorded by an
// explicit link. On a match the remote attributes overwrite local ones, remote
// roles are added to the local set, and SurveyPrincipalID is taken from the
// remote user. The output holds every local user in input order followed, when
// includeRemoteOnly is set, by the unmatched remote users in input order. A
// remote user matched only through a local SurveyPrincipalID link counts as
// matched and is not repeated in that tail.
//
// Inputs are never modified; every returned user is a deep copy.
func MergeUsers(local, remote []model.User, includeRemoteOnly bool) []model.User {
	merged := make([]model.User, 0, len(local))
	matched := make([]bool, len(remote))

	for _, l := range local {
		u := l.Clone()

		for i, r := range remote {
			if !matches(l, r) {
				continue
			}
			matched[i] = true

			if u.Attributes == nil && len(r.Attributes) > 0 {
				u.Attributes = make(map[string]string, len(r.Attributes))
			}
			for k, v := range r.Attributes {
				u.Attributes[k] = v
			}
			u.Roles = unionRoles(u.Roles, r.Roles)
			u.SurveyPrincipalID = r.SurveyPrincipalID
		}

		merged = append(merged, u)
	}

	if !includeRemoteOnly {
		return merged
	}

	for i, r := range remote {
		if !matched[i] {
			merged = append(merged, r.Clone())
		}
	}
	return merged
}

// matches compares against the local record as given, so a match found earlier
// in the scan never changes which remote records match later.
func matches(local, remote model.User) bool {
	if remote.SurveyPrincipalID == "" {
		return false
	}
	if local.PrincipalID == remote.SurveyPrincipalID {
		return true
	}
	return local.SurveyPrincipalID != "" && local.SurveyPrincipalID == remote.SurveyPrincipalID
}

// unionRoles appends the roles of add missing from roles, keeping first-seen order.
func unionRoles(roles, add []string) []string {
	seen := make(map[string]bool, len(roles)+len(add))
	out := make([]string, 0, len(roles)+len(add))
	for _, list := range [][]string{roles, add} {
		for _, r := range list {
			if seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return roles
	}
	return out
}

// IdentityService presents a unified view of local users and survey-system users.
type IdentityService struct {
	users  driven.UserStore
	survey driven.SurveySystem
}

// NewIdentityService creates a new IdentityService with the required dependencies.
func NewIdentityService(users driven.UserStore, survey driven.SurveySystem) *IdentityService {
	return &IdentityService{
		users:  users,
		survey: survey,
	}
}

// ListUsers fetches both user listings concurrently and merges them.
func (s *IdentityService) ListUsers(ctx context.Context, includeRemoteOnly bool) ([]model.User, error) {
	local, remote, err := s.fetchBoth(ctx)
	if err != nil {
		return nil, err
	}

	merged := MergeUsers(local, remote, includeRemoteOnly)
	slog.Debug("users merged",
		"local", len(local),
		"remote", len(remote),
		"merged", len(merged),
	)
	return merged, nil
}

// GetUser returns the merged view of one user. A principal unknown locally is
// looked up among the remote usernames. Returns driven.ErrUserNotFound if
// neither side knows it.
func (s *IdentityService) GetUser(ctx context.Context, principalID string) (model.User, error) {
	local, err := s.users.GetUserDetails(ctx, principalID)
	if err != nil {
		return model.User{}, fmt.Errorf("loading user %s: %w", principalID, err)
	}

	remote, err := s.survey.ListUsers(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("listing remote users: %w", err)
	}

	if local != nil {
		return MergeUsers([]model.User{*local}, remote, false)[0], nil
	}

	for _, r := range remote {
		if r.SurveyPrincipalID == principalID {
			return r.Clone(), nil
		}
	}
	return model.User{}, fmt.Errorf("user %s: %w", principalID, driven.ErrUserNotFound)
}

// LinkUser records that the local principal is known remotely as
// surveyPrincipalID and returns the merged result. Both users must exist.
func (s *IdentityService) LinkUser(ctx context.Context, principalID, surveyPrincipalID string) (model.User, error) {
	local, err := s.users.GetUserDetails(ctx, principalID)
	if err != nil {
		return model.User{}, fmt.Errorf("loading user %s: %w", principalID, err)
	}
	if local == nil {
		return model.User{}, fmt.Errorf("local user %s: %w", principalID, driven.ErrUserNotFound)
	}

	remote, err := s.survey.ListUsers(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("listing remote users: %w", err)
	}

	var found bool
	for _, r := range remote {
		if r.SurveyPrincipalID == surveyPrincipalID {
			found = true
			break
		}
	}
	if !found {
		return model.User{}, fmt.Errorf("remote user %s: %w", surveyPrincipalID, driven.ErrUserNotFound)
	}

	linked := local.Clone()
	linked.SurveyPrincipalID = surveyPrincipalID
	if err := s.users.UpdateUserDetails(ctx, linked); err != nil {
		return model.User{}, fmt.Errorf("linking user %s: %w", principalID, err)
	}

	slog.Info("user linked", "principal_id", principalID, "survey_principal_id", surveyPrincipalID)
	return MergeUsers([]model.User{linked}, remote, false)[0], nil
}

func (s *IdentityService) fetchBoth(ctx context.Context) ([]model.User, []model.User, error) {
	var local, remote []model.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		local, err = s.users.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("listing local users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		remote, err = s.survey.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("listing remote users: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return local, remote, nil
}
