package identity

import (
	"github.com/metrobox/forestry-pots/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(service.NewService),
)
