package download

import (
	"github.com/metrobox/forestry-pots/internal/download/repository"
	"github.com/metrobox/forestry-pots/internal/download/service"
	"go.uber.org/fx"
)

var Module = fx.Module("download.service",
	fx.Provide(
		repository.ProvideWatermarkRepository,
		repository.ProvideAccessLogRepository,
		service.NewService,
	),
)
