package service

import (
	"tenantgate.app/api-server/internal/authbackend"
	"tenantgate.app/api-server/internal/cache"
	"tenantgate.app/api-server/internal/crypto"
	"tenantgate.app/api-server/internal/logretention"
	"tenantgate.app/api-server/internal/store"
)

// Services bundles all service instances
type Services struct {
	Auth          AuthService
	Organizations OrganizationService
}

// NewServices creates all services with their dependencies wired
func NewServices(
	backend authbackend.Backend,
	stores *store.Stores,
	membership cache.MembershipCache,
	logs logretention.Retention,
	codec *crypto.FieldCodec,
) *Services {
	return &Services{
		Auth: NewAuthService(backend, stores.Users(), stores.Sessions()),
		Organizations: NewOrganizationService(
			backend,
			stores.Users(),
			stores.Organizations(),
			stores.Members(),
			stores.Sessions(),
			stores.PlatformKeys(),
			membership,
			logs,
			codec,
		),
	}
}
