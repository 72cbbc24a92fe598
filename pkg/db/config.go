package db

import "time"

// Config selects the dialect and connection pool limits. Type is one of
// postgres, mysql, sqlite; the sqlite dialect ignores the network fields
// and opens Path instead.
type Config struct {
	Type     string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Path     string

	Pool PoolConfig
}

// PoolConfig bounds the sql.DB connection pool. Zero values leave the
// driver defaults in place.
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}
