package catalog

import (
	"github.com/metrobox/forestry-pots/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(service.NewService),
)
