package router

import (
	"github.com/gin-gonic/gin"

	"tenantgate.app/api-server/internal/http/handler"
)

func OrganizationRouter(rg *gin.RouterGroup, h *handler.OrganizationHandler) {
	rg.GET("", h.List)
	rg.POST("/switch", h.Switch)
	rg.GET("/members/me", h.Membership)
	rg.POST("/members/me/notices", h.AcknowledgeNotices)
	rg.POST("/members/invite", h.Invite)
	rg.POST("/members/remove", h.Remove)
	rg.POST("/members/roles", h.AssignRole)
	rg.DELETE("/members/roles", h.UnassignRole)
	rg.GET("/invitations", h.Invitations)
	rg.DELETE("/invitations/:id", h.RevokeInvitation)
}
