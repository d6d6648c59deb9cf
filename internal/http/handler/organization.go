package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tenantgate.app/api-server/internal/authbackend"
	"tenantgate.app/api-server/internal/http/dto"
	"tenantgate.app/api-server/internal/http/middleware"
	"tenantgate.app/api-server/internal/service"
	"tenantgate.app/api-server/internal/session"
)

type OrganizationHandler struct {
	orgService service.OrganizationService
}

func NewOrganizationHandler(orgService service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

func (h *OrganizationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	orgs, err := h.orgService.Organizations(ctx, st)
	if err != nil {
		var authErr *authbackend.AuthorizationError
		if errors.As(err, &authErr) && authbackend.IsDomainCode(authErr.Code) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization failed", "code": authErr.Code})
			return
		}
		slog.ErrorContext(ctx, "failed to list organizations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list organizations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizations": dto.ToOrganizationListResponse(orgs)})
}

func (h *OrganizationHandler) Switch(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	var req dto.SwitchOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org, err := h.orgService.Switch(ctx, st, req.OrganizationID)
	if err != nil {
		h.respondError(c, err, "failed to switch organization")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationResponse(org))
}

func (h *OrganizationHandler) Invite(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	var req dto.InviteUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invites := make([]service.Invite, 0, len(req.Invitees))
	for _, invitee := range req.Invitees {
		invites = append(invites, service.Invite{Email: invitee.Email, Role: invitee.Role})
	}

	results, err := h.orgService.Invite(ctx, st, invites)
	if err != nil {
		h.respondError(c, err, "failed to send invitations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": dto.ToInviteResultsResponse(results)})
}

func (h *OrganizationHandler) Remove(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	var req dto.RemoveUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := h.orgService.Remove(ctx, st, req.Emails)
	if err != nil {
		h.respondError(c, err, "failed to remove users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *OrganizationHandler) AssignRole(c *gin.Context) {
	h.changeRole(c, h.orgService.AssignRole, "failed to assign role")
}

func (h *OrganizationHandler) UnassignRole(c *gin.Context) {
	h.changeRole(c, h.orgService.UnassignRole, "failed to remove role")
}

func (h *OrganizationHandler) changeRole(
	c *gin.Context,
	change func(ctx context.Context, st *session.State, email, role string) (string, error),
	message string,
) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	var req dto.RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := change(ctx, st, req.Email, req.Role)
	if err != nil {
		h.respondError(c, err, message)
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": req.Email, "role": role})
}

func (h *OrganizationHandler) Membership(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	member, err := h.orgService.Membership(ctx, st)
	if err != nil {
		h.respondError(c, err, "failed to load membership")
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipResponse(member))
}

func (h *OrganizationHandler) AcknowledgeNotices(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	var req dto.AcknowledgeNoticesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.orgService.AcknowledgeNotices(ctx, st, req.LoginNoticeSeen, req.GuideNoticeSeen)
	if err != nil {
		h.respondError(c, err, "failed to acknowledge notices")
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipResponse(member))
}

func (h *OrganizationHandler) Invitations(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	invitations, err := h.orgService.Invitations(ctx, st)
	if err != nil {
		h.respondError(c, err, "failed to list invitations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationListResponse(invitations)})
}

func (h *OrganizationHandler) RevokeInvitation(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.SessionState(c)

	invitationID := c.Param("id")
	if err := h.orgService.RevokeInvitation(ctx, st, invitationID); err != nil {
		h.respondError(c, err, "failed to revoke invitation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invitation revoked"})
}

func (h *OrganizationHandler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrOrganizationNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "organization does not exist"})
	case errors.Is(err, service.ErrUserNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "user does not exist"})
	default:
		slog.ErrorContext(c.Request.Context(), message, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
