package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Matching MatchingConfig
	Demand   DemandConfig
	OTEL     OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MatchingConfig holds tunables for the provider-matching heuristics.
// Defaults mirror the hand-tuned production constants; every knob is
// overridable so the scoring can be adjusted without code changes.
type MatchingConfig struct {
	SearchRadiusMiles          float64
	RecommendationLimit        int
	DistanceWeight             float64
	CapacityWeight             float64
	FragilityWeight            float64
	WaitTimeWeight             float64
	WaitCeilingMinutes         float64
	FragilityBoost             float64
	UrgentFastBoost            float64
	UrgentSlowPenalty          float64
	UrgentWaitThresholdMinutes int
}

// DemandConfig holds tunables for demand heatmap aggregation
type DemandConfig struct {
	GridSizeDegrees    float64
	AssumedAvgCapacity int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "careaccess"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Matching: MatchingConfig{
			SearchRadiusMiles:          getEnvAsFloat("MATCH_SEARCH_RADIUS_MILES", 20),
			RecommendationLimit:        getEnvAsInt("MATCH_RECOMMENDATION_LIMIT", 3),
			DistanceWeight:             getEnvAsFloat("MATCH_DISTANCE_WEIGHT", 0.3),
			CapacityWeight:             getEnvAsFloat("MATCH_CAPACITY_WEIGHT", 0.3),
			FragilityWeight:            getEnvAsFloat("MATCH_FRAGILITY_WEIGHT", 0.2),
			WaitTimeWeight:             getEnvAsFloat("MATCH_WAIT_TIME_WEIGHT", 0.2),
			WaitCeilingMinutes:         getEnvAsFloat("MATCH_WAIT_CEILING_MINUTES", 120),
			FragilityBoost:             getEnvAsFloat("MATCH_FRAGILITY_BOOST", 1.2),
			UrgentFastBoost:            getEnvAsFloat("MATCH_URGENT_FAST_BOOST", 1.2),
			UrgentSlowPenalty:          getEnvAsFloat("MATCH_URGENT_SLOW_PENALTY", 0.8),
			UrgentWaitThresholdMinutes: getEnvAsInt("MATCH_URGENT_WAIT_THRESHOLD_MINUTES", 30),
		},
		Demand: DemandConfig{
			GridSizeDegrees:    getEnvAsFloat("DEMAND_GRID_SIZE_DEGREES", 0.01),
			AssumedAvgCapacity: getEnvAsInt("DEMAND_ASSUMED_AVG_CAPACITY", 10),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "careaccess-backend"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
