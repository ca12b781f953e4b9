package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/models"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Shuttle    ShuttleConfig    `yaml:"shuttle"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port      int             `yaml:"port"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type AuthConfig struct {
	Enabled      bool        `yaml:"enabled"`
	HeaderAPIKey string      `yaml:"header_api_key"`
	APIKeys      []ClientKey `yaml:"api_keys"`
}

type ClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	HealthCheckPort   int  `yaml:"health_check_port"`
}

// ShuttleConfig carries the fixed timetable and booking policy.
type ShuttleConfig struct {
	Timezone         string        `yaml:"timezone"`
	HotelKey         string        `yaml:"hotel_key"`
	SeatCapacity     int           `yaml:"seat_capacity"`
	MaxPassengers    int           `yaml:"max_passengers"`
	CutoffMinutes    int           `yaml:"cutoff_minutes"`
	LookupWindowDays int           `yaml:"lookup_window_days"`
	SessionTTLHours  int           `yaml:"session_ttl_hours"`
	Stops            []models.Stop `yaml:"stops"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// Load reads the YAML config, expanding ${VAR} references from the
// environment (a .env file is loaded first when present).
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if _, err := time.LoadLocation(c.Shuttle.Timezone); err != nil {
		return fmt.Errorf("invalid shuttle timezone %q: %w", c.Shuttle.Timezone, err)
	}
	return ValidateStops(c.Shuttle.Stops)
}

// ValidateStops rejects duplicate ids, missing name keys and malformed
// departure times.
func ValidateStops(stops []models.Stop) error {
	if len(stops) == 0 {
		return errors.New("at least one shuttle stop is required")
	}

	stopIDs := make(map[int64]bool)
	for _, stop := range stops {
		if stop.ID == 0 {
			return fmt.Errorf("stop %q has invalid ID 0", stop.NameKey)
		}
		if stopIDs[stop.ID] {
			return fmt.Errorf("duplicate stop ID found: %d", stop.ID)
		}
		stopIDs[stop.ID] = true

		if stop.NameKey == "" {
			return fmt.Errorf("stop %d is missing a name key", stop.ID)
		}
		for _, tod := range append(append([]string{}, stop.OutboundTimes...), stop.InboundTimes...) {
			if _, err := time.Parse(models.TimeLayout, tod); err != nil {
				return fmt.Errorf("stop %d has malformed departure time %q", stop.ID, tod)
			}
		}
	}
	return nil
}

// Location resolves the configured shuttle timezone. Validate guarantees it
// parses; UTC is only reachable before validation.
func (c *ShuttleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Auth.HeaderAPIKey == "" {
		c.Server.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Server.RateLimit.RPS == 0 {
		c.Server.RateLimit.RPS = 10
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 20
	}

	if c.Shuttle.Timezone == "" {
		c.Shuttle.Timezone = "Asia/Taipei"
	}
	if c.Shuttle.HotelKey == "" {
		c.Shuttle.HotelKey = "point.hotel"
	}
	if c.Shuttle.SeatCapacity == 0 {
		c.Shuttle.SeatCapacity = models.DefaultSeatCapacity
	}
	if c.Shuttle.MaxPassengers == 0 {
		c.Shuttle.MaxPassengers = models.MaxPassengersPerBooking
	}
	if c.Shuttle.CutoffMinutes == 0 {
		c.Shuttle.CutoffMinutes = models.CutoffMinutes
	}
	if c.Shuttle.LookupWindowDays == 0 {
		c.Shuttle.LookupWindowDays = models.LookupWindowDays
	}
	if c.Shuttle.SessionTTLHours == 0 {
		c.Shuttle.SessionTTLHours = 24
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
