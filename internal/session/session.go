// Package session wraps one durable session row behind a small mutable
// carrier. The active organization and the role within it are written as
// one pair, never separately.
package session

import (
	"context"
	"fmt"

	"tenantgate.app/api-server/internal/model"
	"tenantgate.app/api-server/internal/store"
)

// State is the per-request view of a session. Mutations go straight to the
// store; the in-memory copy tracks the last write.
type State struct {
	sessions store.SessionStore
	sess     *model.Session
}

// Load reads the session row behind id. Returns store.ErrNotFound when the
// session does not exist.
func Load(ctx context.Context, sessions store.SessionStore, id int64) (*State, error) {
	sess, err := sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return &State{sessions: sessions, sess: sess}, nil
}

func (s *State) ID() int64 {
	return s.sess.ID
}

func (s *State) UserID() int64 {
	return s.sess.UserID
}

// OrganizationID returns the external ID of the active organization, or ""
// when the session is not scoped to one.
func (s *State) OrganizationID() string {
	if s.sess.OrganizationID == nil {
		return ""
	}
	return *s.sess.OrganizationID
}

// Role returns the role held in the active organization, or "" when the
// session is not scoped to one.
func (s *State) Role() string {
	if s.sess.Role == nil {
		return ""
	}
	return *s.sess.Role
}

// SetActiveOrganization scopes the session to orgExternalID with role. The
// pair is persisted in a single statement.
func (s *State) SetActiveOrganization(ctx context.Context, orgExternalID, role string) error {
	if err := s.sessions.SetActiveOrganization(ctx, s.sess.ID, orgExternalID, role); err != nil {
		return fmt.Errorf("scoping session to organization: %w", err)
	}
	s.sess.OrganizationID = &orgExternalID
	s.sess.Role = &role
	return nil
}

// ClearActiveOrganization removes the organization scope from the session.
func (s *State) ClearActiveOrganization(ctx context.Context) error {
	if err := s.sessions.ClearActiveOrganization(ctx, s.sess.ID); err != nil {
		return fmt.Errorf("clearing session organization: %w", err)
	}
	s.sess.OrganizationID = nil
	s.sess.Role = nil
	return nil
}
