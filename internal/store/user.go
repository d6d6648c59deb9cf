package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tenantgate.app/api-server/core/db"
	"tenantgate.app/api-server/internal/model"
)

type userStore struct {
	q db.Querier
}

func newUserStore(q db.Querier) UserStore {
	return &userStore{q: q}
}

const userColumns = "id, external_id, email, created_at, updated_at"

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (s *userStore) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	row := s.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE external_id = $1", externalID)
	return scanUser(row)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.q.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return scanUser(row)
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	row := s.q.QueryRow(ctx,
		`INSERT INTO users (id, external_id, email)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		user.ID, user.ExternalID, user.Email)

	created, err := scanUser(row)
	if err != nil {
		return mappedInsertErr(err)
	}
	*user = *created
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
