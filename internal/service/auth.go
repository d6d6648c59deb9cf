package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tenantgate.app/api-server/common/id"
	"tenantgate.app/api-server/internal/authbackend"
	"tenantgate.app/api-server/internal/model"
	"tenantgate.app/api-server/internal/store"
)

// AuthService handles login, signup and the callback that turns a provider
// code into a session. The session starts unscoped; picking an organization
// is a separate step.
type AuthService interface {
	LoginURL(state string) (string, error)
	SignupURL(state string) (string, error)
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
}

type authService struct {
	backend  authbackend.Backend
	users    store.UserStore
	sessions store.SessionStore
}

// NewAuthService creates an AuthService over the given backend and stores.
func NewAuthService(backend authbackend.Backend, users store.UserStore, sessions store.SessionStore) AuthService {
	return &authService{backend: backend, users: users, sessions: sessions}
}

func (s *authService) LoginURL(state string) (string, error) {
	url, err := s.backend.AuthorizationURL(state)
	if err != nil {
		return "", fmt.Errorf("building login URL: %w", err)
	}
	return url, nil
}

func (s *authService) SignupURL(state string) (string, error) {
	url, err := s.backend.SignupURL(state)
	if err != nil {
		return "", fmt.Errorf("building signup URL: %w", err)
	}
	return url, nil
}

// HandleCallback exchanges the provider code, resolves the local user row
// for the identity and opens a fresh session. Two callbacks racing on a new
// identity both succeed; the uniqueness constraint on external_id decides
// who inserts and the loser reads the winner's row.
func (s *authService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	identity, err := s.backend.HandleCallback(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging callback code: %w", err)
	}

	user, err := s.resolveUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	sess := &model.Session{
		ID:     id.New(),
		UserID: user.ID,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	slog.InfoContext(ctx, "session opened", "user_id", user.ID, "session_id", sess.ID)
	return sess, nil
}

func (s *authService) resolveUser(ctx context.Context, identity *authbackend.Identity) (*model.User, error) {
	user, err := s.users.GetByExternalID(ctx, identity.SubjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	user = &model.User{
		ID:         id.New(),
		ExternalID: identity.SubjectID,
		Email:      identity.Email,
	}
	err = s.users.Create(ctx, user)
	if err == nil {
		slog.InfoContext(ctx, "user created", "user_id", user.ID)
		return user, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	user, err = s.users.GetByExternalID(ctx, identity.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("loading user after create race: %w", err)
	}
	return user, nil
}
