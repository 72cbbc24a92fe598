package pricerule

import (
	"github.com/reefward/diveops/internal/pricerule/repository"
	"github.com/reefward/diveops/internal/pricerule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricerule",
	fx.Provide(
		repository.Provide,
		service.NewResolver,
	),
)
