package store

import (
	"context"
	"encoding/json"
	"fmt"

	"tenantgate.app/api-server/core/db"
	"tenantgate.app/api-server/internal/model"
)

type platformKeyStore struct {
	q db.Querier
}

func newPlatformKeyStore(q db.Querier) PlatformKeyStore {
	return &platformKeyStore{q: q}
}

func (s *platformKeyStore) GetByOrganization(ctx context.Context, orgID int64) ([]model.PlatformKey, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, organization_id, name, credentials, created_at
		 FROM platform_keys WHERE organization_id = $1`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []model.PlatformKey
	for rows.Next() {
		var (
			k   model.PlatformKey
			raw []byte
		)
		if err := rows.Scan(&k.ID, &k.OrganizationID, &k.Name, &raw, &k.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &k.Credentials); err != nil {
			return nil, fmt.Errorf("decoding credentials for key %d: %w", k.ID, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *platformKeyStore) Create(ctx context.Context, key *model.PlatformKey) error {
	raw, err := json.Marshal(key.Credentials)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	row := s.q.QueryRow(ctx,
		`INSERT INTO platform_keys (id, organization_id, name, credentials)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		key.ID, key.OrganizationID, key.Name, raw)

	if err := row.Scan(&key.CreatedAt); err != nil {
		return mappedInsertErr(err)
	}
	return nil
}
