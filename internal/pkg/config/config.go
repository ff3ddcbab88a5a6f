package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Elevation ElevationConfig `mapstructure:"elevation"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr     string `mapstructure:"addr"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds, elevation sample cache
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// ElevationConfig describes the remote elevation query service.
type ElevationConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	ChunkSize int    `mapstructure:"chunk_size"` // max points per request
}

// PipelineConfig carries the request defaults and accepted parameter
// bounds, plus the fixed target projection.
type PipelineConfig struct {
	DefaultResolution float64 `mapstructure:"default_resolution"` // degrees per cell
	MinResolution     float64 `mapstructure:"min_resolution"`
	MaxResolution     float64 `mapstructure:"max_resolution"`
	DefaultLevels     int     `mapstructure:"default_levels"`
	MinLevels         int     `mapstructure:"min_levels"`
	MaxLevels         int     `mapstructure:"max_levels"`
	DefaultSigma      float64 `mapstructure:"default_sigma"`
	UTMZone           int     `mapstructure:"utm_zone"`
	UTMNorthern       bool    `mapstructure:"utm_northern"`
}

type StorageConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Bucket  string `mapstructure:"bucket"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 120)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "contourcad")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "contourcad")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.cache_ttl", 3600)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("elevation.base_url", "https://maps.googleapis.com/maps/api/elevation/json")
	v.SetDefault("elevation.api_key", "")
	v.SetDefault("elevation.chunk_size", 100)
	v.SetDefault("pipeline.default_resolution", 0.0005)
	v.SetDefault("pipeline.min_resolution", 0.0002)
	v.SetDefault("pipeline.max_resolution", 0.001)
	v.SetDefault("pipeline.default_levels", 10)
	v.SetDefault("pipeline.min_levels", 1)
	v.SetDefault("pipeline.max_levels", 20)
	v.SetDefault("pipeline.default_sigma", 1.0)
	v.SetDefault("pipeline.utm_zone", 48)
	v.SetDefault("pipeline.utm_northern", true)
	v.SetDefault("storage.base_url", "")
	v.SetDefault("storage.api_key", "")
	v.SetDefault("storage.bucket", "dxf-files")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: CONTOURCAD_ELEVATION_API_KEY → elevation.api_key
	v.SetEnvPrefix("CONTOURCAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Elevation.BaseURL == "" {
		errs = append(errs, "elevation.base_url is required")
	}
	if c.Elevation.ChunkSize <= 0 {
		errs = append(errs, "elevation.chunk_size must be positive")
	}
	if c.Pipeline.DefaultResolution <= 0 {
		errs = append(errs, "pipeline.default_resolution must be positive")
	}
	if c.Pipeline.UTMZone < 1 || c.Pipeline.UTMZone > 60 {
		errs = append(errs, fmt.Sprintf("pipeline.utm_zone must be 1-60, got %d", c.Pipeline.UTMZone))
	}
	if c.Pipeline.MinLevels < 1 || c.Pipeline.MaxLevels < c.Pipeline.MinLevels {
		errs = append(errs, "pipeline level bounds are inconsistent")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
