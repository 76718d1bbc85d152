// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	LogLevel string

	// Planner
	Horizon int

	// Simulation
	Ticks     int
	OrderRate float64
	Seed      int64
	Agents    int
	Audit     bool

	// Order history
	DBPath string
}

// Load loads configuration from environment variables. A .env file in
// the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel: getEnv("FLEETPLAN_LOG_LEVEL", "info"),

		Horizon: getIntEnv("FLEETPLAN_HORIZON", 50),

		Ticks:     getIntEnv("FLEETPLAN_TICKS", 300),
		OrderRate: getFloatEnv("FLEETPLAN_ORDER_RATE", 0.1),
		Seed:      getInt64Env("FLEETPLAN_SEED", 1),
		Agents:    getIntEnv("FLEETPLAN_AGENTS", 2),
		Audit:     getBoolEnv("FLEETPLAN_AUDIT", false),

		DBPath: getEnv("FLEETPLAN_DB_PATH", "fleetplan.db"),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
