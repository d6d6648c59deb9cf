package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tenantgate.app/api-server/core/db"
	"tenantgate.app/api-server/internal/model"
)

type organizationStore struct {
	q db.Querier
}

func newOrganizationStore(q db.Querier) OrganizationStore {
	return &organizationStore{q: q}
}

const organizationColumns = "id, external_id, name, display_name, created_at, updated_at"

func (s *organizationStore) GetByID(ctx context.Context, id int64) (*model.Organization, error) {
	row := s.q.QueryRow(ctx,
		"SELECT "+organizationColumns+" FROM organizations WHERE id = $1", id)
	return scanOrganization(row)
}

func (s *organizationStore) GetByExternalID(ctx context.Context, externalID string) (*model.Organization, error) {
	row := s.q.QueryRow(ctx,
		"SELECT "+organizationColumns+" FROM organizations WHERE external_id = $1", externalID)
	return scanOrganization(row)
}

func (s *organizationStore) Create(ctx context.Context, org *model.Organization) error {
	row := s.q.QueryRow(ctx,
		`INSERT INTO organizations (id, external_id, name, display_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+organizationColumns,
		org.ID, org.ExternalID, org.Name, org.DisplayName)

	created, err := scanOrganization(row)
	if err != nil {
		return mappedInsertErr(err)
	}
	*org = *created
	return nil
}

func scanOrganization(row pgx.Row) (*model.Organization, error) {
	var o model.Organization
	err := row.Scan(&o.ID, &o.ExternalID, &o.Name, &o.DisplayName, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
