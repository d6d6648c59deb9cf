package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tenantgate.app/api-server/core/db"
	"tenantgate.app/api-server/internal/model"
)

type memberStore struct {
	q db.Querier
}

func newMemberStore(q db.Querier) MemberStore {
	return &memberStore{q: q}
}

const memberColumns = "id, user_id, organization_id, role, login_notice_seen, guide_notice_seen, created_at, updated_at"

func (s *memberStore) GetByUserAndOrg(ctx context.Context, userID, orgID int64) (*model.OrganizationMember, error) {
	row := s.q.QueryRow(ctx,
		"SELECT "+memberColumns+" FROM organization_members WHERE user_id = $1 AND organization_id = $2",
		userID, orgID)
	return scanMember(row)
}

func (s *memberStore) GetByEmails(ctx context.Context, orgID int64, emails []string) ([]model.MemberAccount, error) {
	rows, err := s.q.Query(ctx,
		`SELECT m.id, u.id, u.external_id, u.email, m.role
		 FROM organization_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.organization_id = $1 AND u.email = ANY($2)`,
		orgID, emails)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []model.MemberAccount
	for rows.Next() {
		var a model.MemberAccount
		if err := rows.Scan(&a.MemberID, &a.UserID, &a.UserExternalID, &a.Email, &a.Role); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *memberStore) Create(ctx context.Context, member *model.OrganizationMember) error {
	row := s.q.QueryRow(ctx,
		`INSERT INTO organization_members (id, user_id, organization_id, role, login_notice_seen, guide_notice_seen)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+memberColumns,
		member.ID, member.UserID, member.OrganizationID, member.Role,
		member.LoginNoticeSeen, member.GuideNoticeSeen)

	created, err := scanMember(row)
	if err != nil {
		return mappedInsertErr(err)
	}
	*member = *created
	return nil
}

func (s *memberStore) UpdateRole(ctx context.Context, id int64, role string) error {
	tag, err := s.q.Exec(ctx,
		"UPDATE organization_members SET role = $2, updated_at = now() WHERE id = $1",
		id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetNoticesSeen only ever raises the flags; an acknowledgement cannot be
// taken back.
func (s *memberStore) SetNoticesSeen(ctx context.Context, id int64, loginSeen, guideSeen bool) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE organization_members
		 SET login_notice_seen = login_notice_seen OR $2,
		     guide_notice_seen = guide_notice_seen OR $3,
		     updated_at = now()
		 WHERE id = $1`,
		id, loginSeen, guideSeen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *memberStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	_, err := s.q.Exec(ctx,
		"DELETE FROM organization_members WHERE id = ANY($1)", ids)
	return err
}

func scanMember(row pgx.Row) (*model.OrganizationMember, error) {
	var m model.OrganizationMember
	err := row.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role,
		&m.LoginNoticeSeen, &m.GuideNoticeSeen, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
