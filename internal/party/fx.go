package party

import (
	"github.com/reefward/diveops/internal/party/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("party",
	fx.Provide(repository.Provide),
)
