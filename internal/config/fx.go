package config

import (
	"time"

	"github.com/reefward/diveops/pkg/db"
	"go.uber.org/fx"
)

// DBConfig maps application configuration onto the db package config.
func DBConfig(cfg Config) db.Config {
	return db.Config{
		Type:     cfg.DBType,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.DBPath,
		Pool: db.PoolConfig{
			MaxIdleConns:    cfg.DBMaxIdleConn,
			MaxOpenConns:    cfg.DBMaxOpenConn,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTime) * time.Second,
		},
	}
}

var Module = fx.Module("config",
	fx.Provide(
		Load,
		DBConfig,
		NewPricingConfigHolder,
	),
)
