package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/wingmate/wingmate/internal/cache"
	"github.com/wingmate/wingmate/internal/clock"
	"github.com/wingmate/wingmate/internal/config"
	"github.com/wingmate/wingmate/internal/credit"
	"github.com/wingmate/wingmate/internal/gate"
	"github.com/wingmate/wingmate/internal/generator"
	"github.com/wingmate/wingmate/internal/identity"
	"github.com/wingmate/wingmate/internal/logger"
	"github.com/wingmate/wingmate/internal/migration"
	"github.com/wingmate/wingmate/internal/observability"
	"github.com/wingmate/wingmate/internal/payment"
	"github.com/wingmate/wingmate/internal/quota"
	"github.com/wingmate/wingmate/internal/server"
	"github.com/wingmate/wingmate/internal/usage"
	"github.com/wingmate/wingmate/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		quota.Module,
		cache.Module,
		identity.Module,

		// Functional domains
		usage.Module,
		credit.Module,
		gate.Module,
		generator.Module,
		payment.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
