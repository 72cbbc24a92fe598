package audit

import (
	"github.com/reefward/diveops/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(service.NewRecorder),
)
