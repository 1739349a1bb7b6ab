package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB        DBConfig
	Server    ServerConfig
	Seeder    SeederConfig
	Discovery DiscoveryConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

// DBConfig holds database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// SeederConfig holds settings for data import
type SeederConfig struct {
	DataFile  string
	BatchSize int
}

// DiscoveryConfig holds the client-side proximity discovery defaults
type DiscoveryConfig struct {
	APIBaseURL       string
	RadiusMeters     float64
	DefaultLat       float64
	DefaultLng       float64
	GeoTimeout       time.Duration
	GeoMaxAge        time.Duration
	Debounce         time.Duration
	ShowAllWhenEmpty bool
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		// SQLite in-memory database
		if c.Name != "" && c.Name != "foodmap" {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	// PostgreSQL connection string
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "foodmap"),
			Password: getEnv("DB_PASSWORD", "foodmap_password"),
			Name:     getEnv("DB_NAME", "foodmap"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("APP_PORT", "3000"),
		},
		Seeder: SeederConfig{
			DataFile:  getEnv("SEEDER_DATA_FILE", "data/restaurants.yaml"),
			BatchSize: getEnvAsInt("SEEDER_BATCH_SIZE", 100),
		},
		Discovery: DiscoveryConfig{
			APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:3000/api"),
			RadiusMeters:     getEnvAsFloat("DISCOVERY_RADIUS", 10000),
			DefaultLat:       getEnvAsFloat("DISCOVERY_DEFAULT_LAT", 28.6139),
			DefaultLng:       getEnvAsFloat("DISCOVERY_DEFAULT_LNG", 77.2090),
			GeoTimeout:       getEnvAsDuration("DISCOVERY_GEO_TIMEOUT", 20*time.Second),
			GeoMaxAge:        getEnvAsDuration("DISCOVERY_GEO_MAX_AGE", 60*time.Second),
			Debounce:         getEnvAsDuration("DISCOVERY_DEBOUNCE", 300*time.Millisecond),
			ShowAllWhenEmpty: getEnvAsBool("DISCOVERY_SHOW_ALL_WHEN_EMPTY", true),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("20s") or plain milliseconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
