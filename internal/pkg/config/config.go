package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Geocoder   GeocoderConfig   `mapstructure:"geocoder"`
	Routing    RoutingConfig    `mapstructure:"routing"`
	IPLocate   IPLocateConfig   `mapstructure:"iplocate"`
	Location   LocationConfig   `mapstructure:"location"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type NATSConfig struct {
	URL      string `mapstructure:"url"`
	DeviceID string `mapstructure:"device_id"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type GeocoderConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

type RoutingConfig struct {
	OSRMBaseURL        string `mapstructure:"osrm_base_url"`
	GraphHopperBaseURL string `mapstructure:"graphhopper_base_url"`
	GraphHopperAPIKey  string `mapstructure:"graphhopper_api_key"`
}

type IPLocateConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LocationConfig tunes the high-accuracy acquisition loop.
type LocationConfig struct {
	MaxAttempts        int     `mapstructure:"max_attempts"`
	FixTimeoutSeconds  int     `mapstructure:"fix_timeout_seconds"`
	GoodAccuracyMeters float64 `mapstructure:"good_accuracy_meters"`
	RetryAfterFixMs    int     `mapstructure:"retry_after_fix_ms"`
	RetryAfterErrorMs  int     `mapstructure:"retry_after_error_ms"`
}

func (l LocationConfig) FixTimeout() time.Duration {
	return time.Duration(l.FixTimeoutSeconds) * time.Second
}

func (l LocationConfig) RetryAfterFix() time.Duration {
	return time.Duration(l.RetryAfterFixMs) * time.Millisecond
}

func (l LocationConfig) RetryAfterError() time.Duration {
	return time.Duration(l.RetryAfterErrorMs) * time.Millisecond
}

// NavigationConfig tunes arrival detection and voice announcement pacing.
type NavigationConfig struct {
	ReachedThresholdKm  float64 `mapstructure:"reached_threshold_km"`
	DirectionCooldownMs int     `mapstructure:"direction_cooldown_ms"`
	NearDistanceKm      float64 `mapstructure:"near_distance_km"`
	NearIntervalMs      int     `mapstructure:"near_interval_ms"`
	FarIntervalMs       int     `mapstructure:"far_interval_ms"`
}

func (n NavigationConfig) DirectionCooldown() time.Duration {
	return time.Duration(n.DirectionCooldownMs) * time.Millisecond
}

func (n NavigationConfig) NearInterval() time.Duration {
	return time.Duration(n.NearIntervalMs) * time.Millisecond
}

func (n NavigationConfig) FarInterval() time.Duration {
	return time.Duration(n.FarIntervalMs) * time.Millisecond
}

// TrackerConfig drives the standalone tracker simulator: it walks an OSRM
// route between the two coordinates, emitting positions at the configured
// cadence.
type TrackerConfig struct {
	StartLat         float64 `mapstructure:"start_lat"`
	StartLon         float64 `mapstructure:"start_lon"`
	EndLat           float64 `mapstructure:"end_lat"`
	EndLon           float64 `mapstructure:"end_lon"`
	FrequencySeconds int     `mapstructure:"frequency_seconds"`
	AccuracyMeters   float64 `mapstructure:"accuracy_meters"`
	Loop             bool    `mapstructure:"loop"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.device_id", "cane-001")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "wayfinder/1.0")
	v.SetDefault("routing.osrm_base_url", "https://router.project-osrm.org")
	v.SetDefault("routing.graphhopper_base_url", "https://graphhopper.com")
	v.SetDefault("routing.graphhopper_api_key", "")
	v.SetDefault("iplocate.base_url", "https://ipapi.co")
	v.SetDefault("location.max_attempts", 3)
	v.SetDefault("location.fix_timeout_seconds", 15)
	v.SetDefault("location.good_accuracy_meters", 20)
	v.SetDefault("location.retry_after_fix_ms", 1000)
	v.SetDefault("location.retry_after_error_ms", 2000)
	v.SetDefault("navigation.reached_threshold_km", 0.01)
	v.SetDefault("navigation.direction_cooldown_ms", 5000)
	v.SetDefault("navigation.near_distance_km", 0.5)
	v.SetDefault("navigation.near_interval_ms", 30000)
	v.SetDefault("navigation.far_interval_ms", 60000)
	v.SetDefault("tracker.start_lat", 27.7172)
	v.SetDefault("tracker.start_lon", 85.3240)
	v.SetDefault("tracker.end_lat", 27.7100)
	v.SetDefault("tracker.end_lon", 85.3200)
	v.SetDefault("tracker.frequency_seconds", 5)
	v.SetDefault("tracker.accuracy_meters", 8)
	v.SetDefault("tracker.loop", false)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: WAYFINDER_NATS_URL → nats.url
	v.SetEnvPrefix("WAYFINDER")
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
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.NATS.DeviceID == "" {
		errs = append(errs, "nats.device_id is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey.enabled")
	}
	if c.Geocoder.BaseURL == "" {
		errs = append(errs, "geocoder.base_url is required")
	}
	if c.Routing.OSRMBaseURL == "" && c.Routing.GraphHopperBaseURL == "" {
		errs = append(errs, "at least one routing backend base URL is required")
	}
	if c.Location.MaxAttempts <= 0 {
		errs = append(errs, "location.max_attempts must be positive")
	}
	if c.Location.GoodAccuracyMeters <= 0 {
		errs = append(errs, "location.good_accuracy_meters must be positive")
	}
	if c.Navigation.ReachedThresholdKm <= 0 {
		errs = append(errs, "navigation.reached_threshold_km must be positive")
	}
	if c.Navigation.NearDistanceKm <= 0 {
		errs = append(errs, "navigation.near_distance_km must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
