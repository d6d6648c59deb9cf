package authbackend

import (
	"context"
	"errors"
	"fmt"

	"tenantgate.app/api-server/internal/model"
)

// ErrNotImplemented signals that a backend declines an optional capability.
// Callers recover it as a no-op, never as a failure.
var ErrNotImplemented = errors.New("method not implemented by auth backend")

// ErrOrganizationNotFound is returned when the identity provider has no
// organization with the requested ID.
var ErrOrganizationNotFound = errors.New("organization not found in auth backend")

// Identity is the authenticated principal returned by a login callback.
type Identity struct {
	SubjectID string
	Email     string
	Name      string
}

// Invitation is a pending membership invitation held by the provider.
// ExpiresAt is the provider's RFC 3339 timestamp, passed through untouched.
type Invitation struct {
	ID        string
	Email     string
	State     string
	ExpiresAt string
}

// Backend is the capability interface every identity backend implements.
// Exactly one backend is selected at process start: a registered plugin if
// present, otherwise the built-in WorkOS backend. Role lists are ordered;
// callers treat the first entry as authoritative.
type Backend interface {
	AuthorizationURL(state string) (string, error)
	SignupURL(state string) (string, error)
	HandleCallback(ctx context.Context, code string) (*Identity, error)
	Logout(ctx context.Context, userExternalID string) error

	ListUserOrganizations(ctx context.Context, userExternalID string) ([]model.OrganizationData, error)
	GetOrganizationByID(ctx context.Context, orgExternalID string) (*model.OrganizationData, error)
	GetRolesForUser(ctx context.Context, userExternalID, orgExternalID string) ([]string, error)

	InviteUser(ctx context.Context, adminExternalID, orgExternalID, email, role string) error
	RemoveUsers(ctx context.Context, adminExternalID, orgExternalID string, userExternalIDs []string) (bool, error)
	AddRole(ctx context.Context, adminExternalID, orgExternalID, userExternalID, role string) ([]string, error)
	RemoveRole(ctx context.Context, adminExternalID, orgExternalID, userExternalID, role string) ([]string, error)
	IsAdminByRole(role string) bool

	ListInvitations(ctx context.Context, orgExternalID string) ([]Invitation, error)
	RevokeInvitation(ctx context.Context, orgExternalID, invitationID string) error
}

// FrictionlessOnboarder is an optional capability a backend may provide for
// newly created organizations. Backends opt in by implementing it; the
// built-in backend does not.
type FrictionlessOnboarder interface {
	FrictionlessOnboarding(ctx context.Context, org *model.Organization, user *model.User) error
}

// AuthorizationError is a provider failure carrying a domain-specific code
// the dashboard understands. Anything without a known code is reported to
// callers as a generic failure.
type AuthorizationError struct {
	Code   string
	Domain string
	Err    error
}

func (e *AuthorizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authorization failed (%s): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("authorization failed (%s)", e.Code)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}

var domainCodes = map[string]struct{}{
	"USF":    {},
	"USR":    {},
	"INE001": {},
	"INE002": {},
	"INS":    {},
}

// IsDomainCode reports whether a code belongs to the fixed set of
// authorization error codes surfaced to callers as structured data.
func IsDomainCode(code string) bool {
	_, ok := domainCodes[code]
	return ok
}
