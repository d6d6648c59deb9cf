package store

import (
	"context"
	"errors"

	"tenantgate.app/api-server/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
// Callers racing on create are expected to absorb it with a follow-up read.
var ErrDuplicate = errors.New("duplicate record")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// OrganizationStore defines the contract for organization data access
type OrganizationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Organization, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Organization, error)
	Create(ctx context.Context, org *model.Organization) error
}

// MemberStore defines the contract for organization membership data access.
// Uniqueness on (user_id, organization_id) is enforced by the schema.
type MemberStore interface {
	GetByUserAndOrg(ctx context.Context, userID, orgID int64) (*model.OrganizationMember, error)
	GetByEmails(ctx context.Context, orgID int64, emails []string) ([]model.MemberAccount, error)
	Create(ctx context.Context, member *model.OrganizationMember) error
	UpdateRole(ctx context.Context, id int64, role string) error
	SetNoticesSeen(ctx context.Context, id int64, loginSeen, guideSeen bool) error
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	Create(ctx context.Context, session *model.Session) error
	SetActiveOrganization(ctx context.Context, id int64, orgExternalID, role string) error
	ClearActiveOrganization(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// PlatformKeyStore defines the contract for platform key data access
type PlatformKeyStore interface {
	GetByOrganization(ctx context.Context, orgID int64) ([]model.PlatformKey, error)
	Create(ctx context.Context, key *model.PlatformKey) error
}
