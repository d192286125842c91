package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/metrobox/forestry-pots/internal/catalog"
	"github.com/metrobox/forestry-pots/internal/clock"
	"github.com/metrobox/forestry-pots/internal/config"
	"github.com/metrobox/forestry-pots/internal/download"
	"github.com/metrobox/forestry-pots/internal/identity"
	"github.com/metrobox/forestry-pots/internal/logger"
	"github.com/metrobox/forestry-pots/internal/mailer"
	"github.com/metrobox/forestry-pots/internal/migration"
	"github.com/metrobox/forestry-pots/internal/observability"
	"github.com/metrobox/forestry-pots/internal/refdata"
	"github.com/metrobox/forestry-pots/internal/rfp"
	"github.com/metrobox/forestry-pots/internal/seed"
	"github.com/metrobox/forestry-pots/internal/server"
	"github.com/metrobox/forestry-pots/internal/watermark"
	"github.com/metrobox/forestry-pots/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		mailer.Module,
		identity.Module,
		catalog.Module,
		rfp.Module,
		refdata.Module,
		watermark.Module,
		download.Module,
		seed.Module,
		server.Module,
	)
	app.Run()
}
