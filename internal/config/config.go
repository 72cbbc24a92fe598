package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	LogLevel string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	NodeID int64

	SeedDemoData bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "diveops"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		LogLevel: getenv("LOG_LEVEL", "info"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DB_TYPE", "postgres"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenv("DB_PORT", "5432"),
		DBName:            getenv("DB_NAME", "diveops"),
		DBUser:            getenv("DB_USER", "diveops"),
		DBPassword:        getenv("DB_PASSWORD", ""),
		DBSSLMode:         getenv("DB_SSLMODE", "disable"),
		DBPath:            getenv("DB_PATH", "diveops.db"),
		DBMaxIdleConn:     getenvInt("DB_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DB_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DB_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DB_CONN_MAX_IDLE_TIME", 60),

		NodeID: int64(getenvInt("SNOWFLAKE_NODE_ID", 1)),

		SeedDemoData: getenvBool("SEED_DEMO_DATA", false),
	}
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
