package refdata

import (
	"github.com/metrobox/forestry-pots/internal/refdata/service"
	"go.uber.org/fx"
)

var Module = fx.Module("refdata.service",
	fx.Provide(service.NewService),
)
