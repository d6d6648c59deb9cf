package dto

import (
	"tenantgate.app/api-server/internal/authbackend"
	"tenantgate.app/api-server/internal/model"
	"tenantgate.app/api-server/internal/service"
)

type OrganizationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

func ToOrganizationResponse(org *model.Organization) *OrganizationResponse {
	return &OrganizationResponse{
		ID:          org.ExternalID,
		Name:        org.Name,
		DisplayName: org.DisplayName,
	}
}

func ToOrganizationListResponse(orgs []model.OrganizationData) []OrganizationResponse {
	out := make([]OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, OrganizationResponse{
			ID:          org.ID,
			Name:        org.Name,
			DisplayName: org.DisplayName,
		})
	}
	return out
}

type SwitchOrganizationRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
}

type InviteUsersRequest struct {
	Invitees []InviteeRequest `json:"invitees" binding:"required,min=1,dive"`
}

type InviteeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role,omitempty"`
}

type InviteResultResponse struct {
	Email   string `json:"email"`
	Invited bool   `json:"invited"`
	Message string `json:"message"`
}

func ToInviteResultsResponse(results []service.InviteResult) []InviteResultResponse {
	out := make([]InviteResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, InviteResultResponse{Email: r.Email, Invited: r.Invited, Message: r.Message})
	}
	return out
}

type RemoveUsersRequest struct {
	Emails []string `json:"emails" binding:"required,min=1,dive,email"`
}

type RoleChangeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

type MembershipResponse struct {
	Role            string `json:"role"`
	LoginNoticeSeen bool   `json:"login_notice_seen"`
	GuideNoticeSeen bool   `json:"guide_notice_seen"`
}

func ToMembershipResponse(member *model.OrganizationMember) *MembershipResponse {
	return &MembershipResponse{
		Role:            member.Role,
		LoginNoticeSeen: member.LoginNoticeSeen,
		GuideNoticeSeen: member.GuideNoticeSeen,
	}
}

type AcknowledgeNoticesRequest struct {
	LoginNoticeSeen bool `json:"login_notice_seen"`
	GuideNoticeSeen bool `json:"guide_notice_seen"`
}

type InvitationResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	State     string `json:"state"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

func ToInvitationListResponse(invitations []authbackend.Invitation) []InvitationResponse {
	out := make([]InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, InvitationResponse{
			ID:        inv.ID,
			Email:     inv.Email,
			State:     inv.State,
			ExpiresAt: inv.ExpiresAt,
		})
	}
	return out
}
