package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tenantgate.app/api-server/core/db"
)

// Stores bundles the typed stores over a shared querier. Bind it to a
// transaction by constructing it with the tx-scoped querier.
type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.q)
}

func (s *Stores) Organizations() OrganizationStore {
	return newOrganizationStore(s.q)
}

func (s *Stores) Members() MemberStore {
	return newMemberStore(s.q)
}

func (s *Stores) Sessions() SessionStore {
	return newSessionStore(s.q)
}

func (s *Stores) PlatformKeys() PlatformKeyStore {
	return newPlatformKeyStore(s.q)
}

const uniqueViolationCode = "23505"

func mappedInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrDuplicate
	}
	return err
}
