package rental

import (
	"github.com/reefward/diveops/internal/rental/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rental",
	fx.Provide(service.New),
)
