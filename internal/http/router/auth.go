package router

import (
	"github.com/gin-gonic/gin"

	"tenantgate.app/api-server/internal/http/handler"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler, requireSession gin.HandlerFunc) {
	rg.GET("/login", h.Login)
	rg.GET("/signup", h.Signup)
	rg.GET("/callback", h.Callback)
	rg.POST("/logout", requireSession, h.Logout)
}
