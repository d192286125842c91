package rfp

import (
	"github.com/metrobox/forestry-pots/internal/rfp/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rfp.service",
	fx.Provide(service.NewService),
)
