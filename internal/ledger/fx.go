package ledger

import (
	"github.com/reefward/diveops/internal/ledger/repository"
	"github.com/reefward/diveops/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger",
	fx.Provide(
		repository.Provide,
		service.NewPoster,
	),
)
