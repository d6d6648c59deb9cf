package router

import (
	"github.com/gin-gonic/gin"

	"tenantgate.app/api-server/internal/http/handler"
	"tenantgate.app/api-server/internal/http/middleware"
	"tenantgate.app/api-server/internal/service"
	"tenantgate.app/api-server/internal/store"
)

type RouterConfig struct {
	DashboardURL string
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, stores *store.Stores, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	requireSession := middleware.RequireSession(stores.Sessions())

	authHandler := handler.NewAuthHandler(services.Auth, services.Organizations, cfg.DashboardURL, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler, requireSession)

	v1 := router.Group("/api/v1")
	v1.Use(requireSession)
	{
		orgHandler := handler.NewOrganizationHandler(services.Organizations)
		OrganizationRouter(v1.Group("/organizations"), orgHandler)
	}
}
