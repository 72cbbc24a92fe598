package main

import (
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/audit"
	"github.com/reefward/diveops/internal/booking"
	"github.com/reefward/diveops/internal/catalog"
	"github.com/reefward/diveops/internal/clock"
	"github.com/reefward/diveops/internal/config"
	"github.com/reefward/diveops/internal/contract"
	"github.com/reefward/diveops/internal/ledger"
	"github.com/reefward/diveops/internal/logger"
	"github.com/reefward/diveops/internal/migration"
	"github.com/reefward/diveops/internal/observability"
	"github.com/reefward/diveops/internal/party"
	"github.com/reefward/diveops/internal/pricerule"
	"github.com/reefward/diveops/internal/pricing"
	"github.com/reefward/diveops/internal/rental"
	"github.com/reefward/diveops/internal/seed"
	"github.com/reefward/diveops/internal/server"
	"github.com/reefward/diveops/pkg/db"
	"go.uber.org/fx"
)

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		observability.Module,
		fx.Provide(
			db.Open,
			newSnowflakeNode,
		),
		migration.Module,
		seed.Module,

		party.Module,
		catalog.Module,
		contract.Module,
		pricerule.Module,
		booking.Module,
		audit.Module,
		ledger.Module,
		rental.Module,
		pricing.Module,

		server.Module,
	)

	app.Run()
	if err := app.Err(); err != nil {
		os.Exit(1)
	}
}
