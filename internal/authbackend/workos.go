package authbackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/workos/workos-go/v6/pkg/organizations"
	"github.com/workos/workos-go/v6/pkg/usermanagement"
	"github.com/workos/workos-go/v6/pkg/workos_errors"

	"tenantgate.app/api-server/core/config"
	"tenantgate.app/api-server/internal/model"
)

// AdminRoleSlug is the provider role treated as admin-capable.
const AdminRoleSlug = "admin"

// DefaultRoleSlug is the role a member falls back to when their last
// explicit role is removed.
const DefaultRoleSlug = "member"

const inviteExpiryDays = 7

type workosBackend struct {
	cfg config.WorkOSConfig
}

// NewWorkOSBackend builds the built-in backend over WorkOS user management.
func NewWorkOSBackend(cfg config.WorkOSConfig) (Backend, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("WORKOS_API_KEY and WORKOS_CLIENT_ID are required when no auth plugin is registered")
	}
	usermanagement.SetAPIKey(cfg.APIKey)
	organizations.SetAPIKey(cfg.APIKey)
	return &workosBackend{cfg: cfg}, nil
}

func (b *workosBackend) AuthorizationURL(state string) (string, error) {
	url, err := usermanagement.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    b.cfg.ClientID,
		RedirectURI: b.cfg.RedirectURI,
		State:       state,
		Provider:    "authkit",
	})
	if err != nil {
		return "", fmt.Errorf("generating authorization URL: %w", err)
	}
	return url.String(), nil
}

func (b *workosBackend) SignupURL(state string) (string, error) {
	url, err := usermanagement.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    b.cfg.ClientID,
		RedirectURI: b.cfg.RedirectURI,
		State:       state,
		Provider:    "authkit",
		ScreenHint:  "sign-up",
	})
	if err != nil {
		return "", fmt.Errorf("generating signup URL: %w", err)
	}
	return url.String(), nil
}

func (b *workosBackend) HandleCallback(ctx context.Context, code string) (*Identity, error) {
	resp, err := usermanagement.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: b.cfg.ClientID,
		Code:     code,
	})
	if err != nil {
		return nil, fmt.Errorf("authenticating with code: %w", err)
	}

	return &Identity{
		SubjectID: resp.User.ID,
		Email:     resp.User.Email,
		Name:      buildUserName(resp.User),
	}, nil
}

func (b *workosBackend) Logout(ctx context.Context, userExternalID string) error {
	// AuthKit sessions are ended by the dashboard redirect; there is nothing
	// to revoke server-side for this backend.
	slog.DebugContext(ctx, "backend logout is a no-op for workos", "user_id", userExternalID)
	return nil
}

func (b *workosBackend) ListUserOrganizations(ctx context.Context, userExternalID string) ([]model.OrganizationData, error) {
	memberships, err := usermanagement.ListOrganizationMemberships(ctx, usermanagement.ListOrganizationMembershipsOpts{
		UserID: userExternalID,
	})
	if err != nil {
		return nil, fmt.Errorf("listing organization memberships: %w", err)
	}

	orgs := make([]model.OrganizationData, 0, len(memberships.Data))
	for _, m := range memberships.Data {
		org, err := b.GetOrganizationByID(ctx, m.OrganizationID)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *org)
	}
	return orgs, nil
}

func (b *workosBackend) GetOrganizationByID(ctx context.Context, orgExternalID string) (*model.OrganizationData, error) {
	org, err := organizations.GetOrganization(ctx, organizations.GetOrganizationOpts{
		Organization: orgExternalID,
	})
	if err != nil {
		var httpErr workos_errors.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == 404 {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("getting organization %s: %w", orgExternalID, err)
	}

	return &model.OrganizationData{
		ID:          org.ID,
		Name:        org.Name,
		DisplayName: org.Name,
	}, nil
}

func (b *workosBackend) GetRolesForUser(ctx context.Context, userExternalID, orgExternalID string) ([]string, error) {
	memberships, err := usermanagement.ListOrganizationMemberships(ctx, usermanagement.ListOrganizationMembershipsOpts{
		UserID:         userExternalID,
		OrganizationID: orgExternalID,
	})
	if err != nil {
		return nil, fmt.Errorf("listing memberships for roles: %w", err)
	}

	roles := make([]string, 0, len(memberships.Data))
	for _, m := range memberships.Data {
		if m.Role.Slug != "" {
			roles = append(roles, m.Role.Slug)
		}
	}
	if len(roles) == 0 {
		roles = append(roles, DefaultRoleSlug)
	}
	return roles, nil
}

func (b *workosBackend) InviteUser(ctx context.Context, adminExternalID, orgExternalID, email, role string) error {
	if role == "" {
		role = DefaultRoleSlug
	}
	_, err := usermanagement.SendInvitation(ctx, usermanagement.SendInvitationOpts{
		Email:          email,
		OrganizationID: orgExternalID,
		InviterUserID:  adminExternalID,
		ExpiresInDays:  inviteExpiryDays,
		RoleSlug:       role,
	})
	if err != nil {
		return fmt.Errorf("sending invitation to %s: %w", email, err)
	}
	return nil
}

func (b *workosBackend) RemoveUsers(ctx context.Context, adminExternalID, orgExternalID string, userExternalIDs []string) (bool, error) {
	if len(userExternalIDs) == 0 {
		return false, nil
	}

	for _, userID := range userExternalIDs {
		memberships, err := usermanagement.ListOrganizationMemberships(ctx, usermanagement.ListOrganizationMembershipsOpts{
			UserID:         userID,
			OrganizationID: orgExternalID,
		})
		if err != nil {
			return false, fmt.Errorf("resolving membership for %s: %w", userID, err)
		}
		for _, m := range memberships.Data {
			err := usermanagement.DeleteOrganizationMembership(ctx, usermanagement.DeleteOrganizationMembershipOpts{
				OrganizationMembership: m.ID,
			})
			if err != nil {
				return false, fmt.Errorf("deleting membership %s: %w", m.ID, err)
			}
		}
	}
	return true, nil
}

func (b *workosBackend) AddRole(ctx context.Context, adminExternalID, orgExternalID, userExternalID, role string) ([]string, error) {
	return b.setRole(ctx, orgExternalID, userExternalID, role)
}

func (b *workosBackend) RemoveRole(ctx context.Context, adminExternalID, orgExternalID, userExternalID, role string) ([]string, error) {
	// Single-role provider: removing a role demotes the member to the
	// default role rather than leaving them roleless.
	return b.setRole(ctx, orgExternalID, userExternalID, DefaultRoleSlug)
}

func (b *workosBackend) setRole(ctx context.Context, orgExternalID, userExternalID, role string) ([]string, error) {
	memberships, err := usermanagement.ListOrganizationMemberships(ctx, usermanagement.ListOrganizationMembershipsOpts{
		UserID:         userExternalID,
		OrganizationID: orgExternalID,
	})
	if err != nil {
		return nil, fmt.Errorf("resolving membership: %w", err)
	}
	if len(memberships.Data) == 0 {
		return nil, ErrOrganizationNotFound
	}

	updated, err := usermanagement.UpdateOrganizationMembership(
		ctx,
		memberships.Data[0].ID,
		usermanagement.UpdateOrganizationMembershipOpts{RoleSlug: role},
	)
	if err != nil {
		return nil, fmt.Errorf("updating membership role: %w", err)
	}
	return []string{updated.Role.Slug}, nil
}

func (b *workosBackend) IsAdminByRole(role string) bool {
	return role == AdminRoleSlug
}

func (b *workosBackend) ListInvitations(ctx context.Context, orgExternalID string) ([]Invitation, error) {
	resp, err := usermanagement.ListInvitations(ctx, usermanagement.ListInvitationsOpts{
		OrganizationID: orgExternalID,
	})
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}

	invites := make([]Invitation, 0, len(resp.Data))
	for _, inv := range resp.Data {
		invites = append(invites, Invitation{
			ID:        inv.ID,
			Email:     inv.Email,
			State:     string(inv.State),
			ExpiresAt: inv.ExpiresAt,
		})
	}
	return invites, nil
}

func (b *workosBackend) RevokeInvitation(ctx context.Context, orgExternalID, invitationID string) error {
	_, err := usermanagement.RevokeInvitation(ctx, usermanagement.RevokeInvitationOpts{
		Invitation: invitationID,
	})
	if err != nil {
		return fmt.Errorf("revoking invitation %s: %w", invitationID, err)
	}
	return nil
}

func buildUserName(user usermanagement.User) string {
	if user.FirstName != "" && user.LastName != "" {
		return user.FirstName + " " + user.LastName
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.LastName != "" {
		return user.LastName
	}
	return user.Email
}
