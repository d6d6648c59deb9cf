package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tenantgate.app/api-server/common/id"
	"tenantgate.app/api-server/internal/authbackend"
	"tenantgate.app/api-server/internal/cache"
	"tenantgate.app/api-server/internal/crypto"
	"tenantgate.app/api-server/internal/logretention"
	"tenantgate.app/api-server/internal/model"
	"tenantgate.app/api-server/internal/session"
	"tenantgate.app/api-server/internal/store"
)

// Invite is one invitation request. An empty Role falls back to the
// backend's default member role.
type Invite struct {
	Email string
	Role  string
}

// InviteResult reports the outcome for one invitee. A user who already
// belongs to the organization is reported, not treated as a failure.
type InviteResult struct {
	Email   string
	Invited bool
	Message string
}

// OrganizationService carries a session through the organization lifecycle:
// listing the organizations a user may enter, switching the session into
// one, administering its members and ending the session.
type OrganizationService interface {
	Organizations(ctx context.Context, st *session.State) ([]model.OrganizationData, error)
	Switch(ctx context.Context, st *session.State, orgExternalID string) (*model.Organization, error)
	Logout(ctx context.Context, st *session.State) error

	Invite(ctx context.Context, st *session.State, invites []Invite) ([]InviteResult, error)
	Remove(ctx context.Context, st *session.State, emails []string) (bool, error)
	AssignRole(ctx context.Context, st *session.State, email, role string) (string, error)
	UnassignRole(ctx context.Context, st *session.State, email, role string) (string, error)

	Membership(ctx context.Context, st *session.State) (*model.OrganizationMember, error)
	AcknowledgeNotices(ctx context.Context, st *session.State, loginSeen, guideSeen bool) (*model.OrganizationMember, error)

	Invitations(ctx context.Context, st *session.State) ([]authbackend.Invitation, error)
	RevokeInvitation(ctx context.Context, st *session.State, invitationID string) error
}

type organizationService struct {
	backend      authbackend.Backend
	users        store.UserStore
	orgs         store.OrganizationStore
	members      store.MemberStore
	sessions     store.SessionStore
	platformKeys store.PlatformKeyStore
	membership   cache.MembershipCache
	logs         logretention.Retention
	codec        *crypto.FieldCodec
}

// NewOrganizationService creates an OrganizationService.
func NewOrganizationService(
	backend authbackend.Backend,
	users store.UserStore,
	orgs store.OrganizationStore,
	members store.MemberStore,
	sessions store.SessionStore,
	platformKeys store.PlatformKeyStore,
	membership cache.MembershipCache,
	logs logretention.Retention,
	codec *crypto.FieldCodec,
) OrganizationService {
	return &organizationService{
		backend:      backend,
		users:        users,
		orgs:         orgs,
		members:      members,
		sessions:     sessions,
		platformKeys: platformKeys,
		membership:   membership,
		logs:         logs,
		codec:        codec,
	}
}

// Organizations returns the organizations the session's user may enter and
// refreshes the cached set wholesale. A backend failure ends the session
// before the error is reported; the caller must re-authenticate.
func (s *organizationService) Organizations(ctx context.Context, st *session.State) ([]model.OrganizationData, error) {
	user, err := s.users.GetByID(ctx, st.UserID())
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	orgs, err := s.backend.ListUserOrganizations(ctx, user.ExternalID)
	if err != nil {
		slog.WarnContext(ctx, "organization listing failed, ending session",
			"user_id", user.ID, "error", err)
		if logoutErr := s.Logout(ctx, st); logoutErr != nil {
			slog.ErrorContext(ctx, "forced logout failed", "session_id", st.ID(), "error", logoutErr)
		}
		var authErr *authbackend.AuthorizationError
		if errors.As(err, &authErr) && authbackend.IsDomainCode(authErr.Code) {
			return nil, authErr
		}
		return nil, fmt.Errorf("listing organizations: %w", err)
	}

	orgIDs := make([]string, 0, len(orgs))
	for _, o := range orgs {
		orgIDs = append(orgIDs, o.ID)
	}
	if err := s.membership.SetUserOrganizations(ctx, user.ExternalID, orgIDs); err != nil {
		slog.WarnContext(ctx, "caching organization set failed", "user_id", user.ID, "error", err)
	}

	return orgs, nil
}

// Switch scopes the session to orgExternalID. The user must be a member
// according to the backend, the organization and membership rows are
// created on first entry, and the active marker ends up on exactly the new
// organization or, when persisting the session fails, back on the one the
// session still names.
func (s *organizationService) Switch(ctx context.Context, st *session.State, orgExternalID string) (*model.Organization, error) {
	user, err := s.users.GetByID(ctx, st.UserID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotExist
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	allowed, err := s.isMember(ctx, user.ExternalID, orgExternalID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	data, err := s.backend.GetOrganizationByID(ctx, orgExternalID)
	if err != nil {
		if errors.Is(err, authbackend.ErrOrganizationNotFound) {
			return nil, ErrOrganizationNotExist
		}
		return nil, fmt.Errorf("fetching organization: %w", err)
	}

	org, created, err := s.resolveOrganization(ctx, data)
	if err != nil {
		return nil, err
	}

	roles, err := s.backend.GetRolesForUser(ctx, user.ExternalID, orgExternalID)
	if err != nil {
		return nil, fmt.Errorf("fetching roles: %w", err)
	}
	if len(roles) == 0 {
		roles = []string{authbackend.DefaultRoleSlug}
	}
	// Only the first role is persisted; the ordering is the backend's.
	role := roles[0]

	if err := s.reconcileMembership(ctx, user, org, role); err != nil {
		return nil, err
	}

	if created {
		s.onboard(ctx, org, user)
	}

	// Marking displaces any previous organization's marker in one write.
	if err := s.membership.MarkActive(ctx, user.ExternalID, orgExternalID); err != nil {
		return nil, fmt.Errorf("marking organization active: %w", err)
	}
	if err := st.SetActiveOrganization(ctx, orgExternalID, role); err != nil {
		// The session still reflects the previous scope, so the marker
		// has to go back to where the session says it is.
		var restoreErr error
		if prev := st.OrganizationID(); prev != "" {
			restoreErr = s.membership.MarkActive(ctx, user.ExternalID, prev)
		} else {
			restoreErr = s.membership.ClearActive(ctx, user.ExternalID, orgExternalID)
		}
		if restoreErr != nil {
			slog.ErrorContext(ctx, "restoring active marker failed",
				"user_id", user.ID, "organization_id", orgExternalID, "error", restoreErr)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "session scoped to organization",
		"user_id", user.ID, "organization_id", orgExternalID, "role", role)
	return org, nil
}

// Logout ends the session. Session logs and the active marker are cleared
// first, then the backend is told, then the session row goes away. Only
// the final delete can fail the call.
func (s *organizationService) Logout(ctx context.Context, st *session.State) error {
	if err := s.logs.RemoveSessionLogs(ctx, st.ID()); err != nil {
		slog.WarnContext(ctx, "removing session logs failed", "session_id", st.ID(), "error", err)
	}

	user, err := s.users.GetByID(ctx, st.UserID())
	if err != nil {
		slog.WarnContext(ctx, "loading user for logout failed", "session_id", st.ID(), "error", err)
	} else {
		if orgExternalID := st.OrganizationID(); orgExternalID != "" {
			if err := s.membership.ClearActive(ctx, user.ExternalID, orgExternalID); err != nil {
				slog.WarnContext(ctx, "clearing active marker failed",
					"user_id", user.ID, "organization_id", orgExternalID, "error", err)
			}
		}
		if err := s.backend.Logout(ctx, user.ExternalID); err != nil {
			slog.WarnContext(ctx, "backend logout failed", "user_id", user.ID, "error", err)
		}
	}

	if err := s.sessions.Delete(ctx, st.ID()); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	slog.InfoContext(ctx, "session closed", "session_id", st.ID())
	return nil
}

// Invite sends invitations for the active organization. Each invitee is
// handled independently; one failure never discards the rest.
func (s *organizationService) Invite(ctx context.Context, st *session.State, invites []Invite) ([]InviteResult, error) {
	user, org, err := s.requireAdmin(ctx, st)
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(invites))
	for _, inv := range invites {
		emails = append(emails, inv.Email)
	}
	existing, err := s.members.GetByEmails(ctx, org.ID, emails)
	if err != nil {
		return nil, fmt.Errorf("resolving existing members: %w", err)
	}
	alreadyMember := make(map[string]bool, len(existing))
	for _, account := range existing {
		alreadyMember[account.Email] = true
	}

	results := make([]InviteResult, 0, len(invites))
	for _, inv := range invites {
		if alreadyMember[inv.Email] {
			results = append(results, InviteResult{
				Email:   inv.Email,
				Message: "user is already a member of the organization",
			})
			continue
		}

		role := inv.Role
		if role == "" {
			role = authbackend.DefaultRoleSlug
		}
		if err := s.backend.InviteUser(ctx, user.ExternalID, org.ExternalID, inv.Email, role); err != nil {
			slog.WarnContext(ctx, "sending invitation failed",
				"organization_id", org.ExternalID, "email", inv.Email, "error", err)
			results = append(results, InviteResult{
				Email:   inv.Email,
				Message: "sending invitation failed",
			})
			continue
		}
		results = append(results, InviteResult{
			Email:   inv.Email,
			Invited: true,
			Message: "invitation sent",
		})
	}
	return results, nil
}

// Remove takes the named users out of the active organization. When none
// of the emails resolve to members the backend is never called and the
// result is false. Removed users lose their active markers so a stale
// session cannot keep acting in the organization.
func (s *organizationService) Remove(ctx context.Context, st *session.State, emails []string) (bool, error) {
	user, org, err := s.requireAdmin(ctx, st)
	if err != nil {
		return false, err
	}

	accounts, err := s.members.GetByEmails(ctx, org.ID, emails)
	if err != nil {
		return false, fmt.Errorf("resolving members: %w", err)
	}
	if len(accounts) == 0 {
		return false, nil
	}

	externalIDs := make([]string, 0, len(accounts))
	memberIDs := make([]int64, 0, len(accounts))
	for _, account := range accounts {
		externalIDs = append(externalIDs, account.UserExternalID)
		memberIDs = append(memberIDs, account.MemberID)
	}

	removed, err := s.backend.RemoveUsers(ctx, user.ExternalID, org.ExternalID, externalIDs)
	if err != nil {
		return false, fmt.Errorf("removing users from backend: %w", err)
	}
	if !removed {
		return false, nil
	}

	if err := s.members.DeleteByIDs(ctx, memberIDs); err != nil {
		return false, fmt.Errorf("deleting memberships: %w", err)
	}
	for _, account := range accounts {
		if err := s.membership.ClearActive(ctx, account.UserExternalID, org.ExternalID); err != nil {
			slog.WarnContext(ctx, "clearing active marker for removed user failed",
				"user_id", account.UserID, "organization_id", org.ExternalID, "error", err)
		}
	}
	return true, nil
}

// AssignRole grants role to the member behind email and returns the role
// that was persisted.
func (s *organizationService) AssignRole(ctx context.Context, st *session.State, email, role string) (string, error) {
	return s.changeRole(ctx, st, email, role, s.backend.AddRole)
}

// UnassignRole takes role away from the member behind email and returns
// the role that was persisted.
func (s *organizationService) UnassignRole(ctx context.Context, st *session.State, email, role string) (string, error) {
	return s.changeRole(ctx, st, email, role, s.backend.RemoveRole)
}

type roleChange func(ctx context.Context, adminExternalID, orgExternalID, userExternalID, role string) ([]string, error)

func (s *organizationService) changeRole(ctx context.Context, st *session.State, email, role string, change roleChange) (string, error) {
	user, org, err := s.requireAdmin(ctx, st)
	if err != nil {
		return "", err
	}

	accounts, err := s.members.GetByEmails(ctx, org.ID, []string{email})
	if err != nil {
		return "", fmt.Errorf("resolving member: %w", err)
	}
	if len(accounts) == 0 {
		return "", ErrUserNotExist
	}
	target := accounts[0]

	roles, err := change(ctx, user.ExternalID, org.ExternalID, target.UserExternalID, role)
	if err != nil {
		return "", fmt.Errorf("changing role: %w", err)
	}
	if len(roles) == 0 {
		return "", fmt.Errorf("auth backend returned no roles for %s", email)
	}

	// Only the first role is persisted; the ordering is the backend's.
	final := roles[0]
	if err := s.members.UpdateRole(ctx, target.MemberID, final); err != nil {
		return "", fmt.Errorf("persisting role: %w", err)
	}
	return final, nil
}

// Membership returns the caller's membership row in the active
// organization, including the onboarding notice flags.
func (s *organizationService) Membership(ctx context.Context, st *session.State) (*model.OrganizationMember, error) {
	_, _, member, err := s.requireMember(ctx, st)
	return member, err
}

// AcknowledgeNotices records which onboarding notices the caller has seen
// and returns the membership with the updated flags. Flags only ever move
// to seen.
func (s *organizationService) AcknowledgeNotices(ctx context.Context, st *session.State, loginSeen, guideSeen bool) (*model.OrganizationMember, error) {
	_, _, member, err := s.requireMember(ctx, st)
	if err != nil {
		return nil, err
	}

	if err := s.members.SetNoticesSeen(ctx, member.ID, loginSeen, guideSeen); err != nil {
		return nil, fmt.Errorf("recording notice acknowledgement: %w", err)
	}
	member.LoginNoticeSeen = member.LoginNoticeSeen || loginSeen
	member.GuideNoticeSeen = member.GuideNoticeSeen || guideSeen
	return member, nil
}

// Invitations lists the pending invitations for the active organization.
func (s *organizationService) Invitations(ctx context.Context, st *session.State) ([]authbackend.Invitation, error) {
	_, org, err := s.requireAdmin(ctx, st)
	if err != nil {
		return nil, err
	}
	invitations, err := s.backend.ListInvitations(ctx, org.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	return invitations, nil
}

// RevokeInvitation withdraws a pending invitation for the active
// organization.
func (s *organizationService) RevokeInvitation(ctx context.Context, st *session.State, invitationID string) error {
	_, org, err := s.requireAdmin(ctx, st)
	if err != nil {
		return err
	}
	if err := s.backend.RevokeInvitation(ctx, org.ExternalID, invitationID); err != nil {
		return fmt.Errorf("revoking invitation: %w", err)
	}
	return nil
}

// isMember answers from the cache when it has an entry for the user and
// falls back to the backend otherwise, refreshing the cache on the way.
func (s *organizationService) isMember(ctx context.Context, userExternalID, orgExternalID string) (bool, error) {
	orgIDs, ok, err := s.membership.GetUserOrganizations(ctx, userExternalID)
	if err != nil {
		slog.WarnContext(ctx, "reading cached organization set failed", "error", err)
		ok = false
	}
	if !ok {
		orgs, err := s.backend.ListUserOrganizations(ctx, userExternalID)
		if err != nil {
			return false, fmt.Errorf("listing organizations: %w", err)
		}
		orgIDs = make([]string, 0, len(orgs))
		for _, o := range orgs {
			orgIDs = append(orgIDs, o.ID)
		}
		if err := s.membership.SetUserOrganizations(ctx, userExternalID, orgIDs); err != nil {
			slog.WarnContext(ctx, "caching organization set failed", "error", err)
		}
	}

	for _, orgID := range orgIDs {
		if orgID == orgExternalID {
			return true, nil
		}
	}
	return false, nil
}

// resolveOrganization maps backend organization data onto the local row,
// creating it on first sight. Two switches racing on the same new
// organization both succeed; the loser of the insert reads the winner's
// row and reports created=false.
func (s *organizationService) resolveOrganization(ctx context.Context, data *model.OrganizationData) (*model.Organization, bool, error) {
	org, err := s.orgs.GetByExternalID(ctx, data.ID)
	if err == nil {
		return org, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("loading organization: %w", err)
	}

	org = &model.Organization{
		ID:          id.New(),
		ExternalID:  data.ID,
		Name:        data.Name,
		DisplayName: data.DisplayName,
	}
	err = s.orgs.Create(ctx, org)
	if err == nil {
		slog.InfoContext(ctx, "organization created", "organization_id", data.ID)
		return org, true, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return nil, false, fmt.Errorf("creating organization: %w", err)
	}

	org, err = s.orgs.GetByExternalID(ctx, data.ID)
	if err != nil {
		return nil, false, fmt.Errorf("loading organization after create race: %w", err)
	}
	return org, false, nil
}

// reconcileMembership makes the local membership row match the backend's
// role, creating the row on first entry. A concurrent create is absorbed
// the same way as for organizations.
func (s *organizationService) reconcileMembership(ctx context.Context, user *model.User, org *model.Organization, role string) error {
	member, err := s.members.GetByUserAndOrg(ctx, user.ID, org.ID)
	if err == nil {
		if member.Role != role {
			if err := s.members.UpdateRole(ctx, member.ID, role); err != nil {
				return fmt.Errorf("updating membership role: %w", err)
			}
		}
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("loading membership: %w", err)
	}

	member = &model.OrganizationMember{
		ID:             id.New(),
		UserID:         user.ID,
		OrganizationID: org.ID,
		Role:           role,
	}
	err = s.members.Create(ctx, member)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("creating membership: %w", err)
	}

	member, err = s.members.GetByUserAndOrg(ctx, user.ID, org.ID)
	if err != nil {
		return fmt.Errorf("loading membership after create race: %w", err)
	}
	if member.Role != role {
		if err := s.members.UpdateRole(ctx, member.ID, role); err != nil {
			return fmt.Errorf("updating membership role: %w", err)
		}
	}
	return nil
}

// onboard runs once per newly created organization. The backend gets first
// refusal through FrictionlessOnboarder; if it declines, or does not
// implement it, a platform key is provisioned locally. Failures are logged
// and never fail the switch.
func (s *organizationService) onboard(ctx context.Context, org *model.Organization, user *model.User) {
	if onboarder, ok := s.backend.(authbackend.FrictionlessOnboarder); ok {
		err := onboarder.FrictionlessOnboarding(ctx, org, user)
		if err == nil {
			return
		}
		if !errors.Is(err, authbackend.ErrNotImplemented) {
			slog.WarnContext(ctx, "frictionless onboarding failed",
				"organization_id", org.ExternalID, "error", err)
			return
		}
	}
	s.provisionPlatformKey(ctx, org)
}

func (s *organizationService) provisionPlatformKey(ctx context.Context, org *model.Organization) {
	keys, err := s.platformKeys.GetByOrganization(ctx, org.ID)
	if err != nil {
		slog.WarnContext(ctx, "loading platform keys failed", "organization_id", org.ExternalID, "error", err)
		return
	}
	if len(keys) > 0 {
		return
	}

	credentials, err := s.codec.EncodeFields(map[string]string{"api_key": uuid.NewString()})
	if err != nil {
		slog.WarnContext(ctx, "encoding platform key failed", "organization_id", org.ExternalID, "error", err)
		return
	}
	key := &model.PlatformKey{
		ID:             id.New(),
		OrganizationID: org.ID,
		Name:           "default",
		Credentials:    credentials,
	}
	if err := s.platformKeys.Create(ctx, key); err != nil && !errors.Is(err, store.ErrDuplicate) {
		slog.WarnContext(ctx, "creating platform key failed", "organization_id", org.ExternalID, "error", err)
		return
	}
	slog.InfoContext(ctx, "platform key provisioned", "organization_id", org.ExternalID)
}

// requireMember resolves the caller's membership row in the session's
// active organization. A session without an organization scope, or whose
// membership row is gone, gets ErrForbidden.
func (s *organizationService) requireMember(ctx context.Context, st *session.State) (*model.User, *model.Organization, *model.OrganizationMember, error) {
	orgExternalID := st.OrganizationID()
	if orgExternalID == "" {
		return nil, nil, nil, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, st.UserID())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading user: %w", err)
	}
	org, err := s.orgs.GetByExternalID(ctx, orgExternalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, nil, ErrOrganizationNotExist
		}
		return nil, nil, nil, fmt.Errorf("loading organization: %w", err)
	}
	member, err := s.members.GetByUserAndOrg(ctx, user.ID, org.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, nil, ErrForbidden
		}
		return nil, nil, nil, fmt.Errorf("loading membership: %w", err)
	}
	return user, org, member, nil
}

// requireAdmin checks that the session is scoped to an organization and
// holds an admin role in it, then loads the caller and the organization.
func (s *organizationService) requireAdmin(ctx context.Context, st *session.State) (*model.User, *model.Organization, error) {
	orgExternalID := st.OrganizationID()
	if orgExternalID == "" || !s.backend.IsAdminByRole(st.Role()) {
		return nil, nil, ErrForbidden
	}

	user, err := s.users.GetByID(ctx, st.UserID())
	if err != nil {
		return nil, nil, fmt.Errorf("loading user: %w", err)
	}
	org, err := s.orgs.GetByExternalID(ctx, orgExternalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrOrganizationNotExist
		}
		return nil, nil, fmt.Errorf("loading organization: %w", err)
	}
	return user, org, nil
}
