package pricing

import (
	"github.com/reefward/diveops/internal/pricing/calc"
	"github.com/reefward/diveops/internal/pricing/service"
	"github.com/reefward/diveops/internal/pricing/snapshot"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing",
	fx.Provide(
		calc.NewTierCalculator,
		calc.NewComponentPricer,
		snapshot.NewBuilder,
		service.New,
	),
)
