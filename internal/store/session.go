package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tenantgate.app/api-server/core/db"
	"tenantgate.app/api-server/internal/model"
)

type sessionStore struct {
	q db.Querier
}

func newSessionStore(q db.Querier) SessionStore {
	return &sessionStore{q: q}
}

const sessionColumns = "id, user_id, organization_id, role, created_at"

func (s *sessionStore) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	row := s.q.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id)
	return scanSession(row)
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	row := s.q.QueryRow(ctx,
		`INSERT INTO sessions (id, user_id, organization_id, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+sessionColumns,
		session.ID, session.UserID, session.OrganizationID, session.Role)

	created, err := scanSession(row)
	if err != nil {
		return mappedInsertErr(err)
	}
	*session = *created
	return nil
}

// SetActiveOrganization writes the organization and role in one statement so
// the pair can never be observed half-updated.
func (s *sessionStore) SetActiveOrganization(ctx context.Context, id int64, orgExternalID, role string) error {
	tag, err := s.q.Exec(ctx,
		"UPDATE sessions SET organization_id = $2, role = $3 WHERE id = $1",
		id, orgExternalID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sessionStore) ClearActiveOrganization(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx,
		"UPDATE sessions SET organization_id = NULL, role = NULL WHERE id = $1", id)
	return err
}

func (s *sessionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return err
}

func scanSession(row pgx.Row) (*model.Session, error) {
	var sess model.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.OrganizationID, &sess.Role, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}
