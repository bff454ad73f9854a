package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Availability AvailabilityConfig
	Bookings     BookingsConfig
	Exports      ExportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AvailabilityConfig tunes the availability resolver and its cache.
type AvailabilityConfig struct {
	Timezone             string
	CacheEnabled         bool
	CacheTTL             time.Duration
	DefaultCutoffMinutes int
	MaxRangeDays         int
	PrebuildDays         int
	PrebuildInterval     time.Duration
}

// BookingsConfig governs pending-reservation expiry and the sweeper job.
type BookingsConfig struct {
	PendingTTL    time.Duration
	SweepInterval time.Duration
	SweepWorkers  int
}

// ExportsConfig toggles the manifest export endpoints.
type ExportsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Availability = AvailabilityConfig{
		Timezone:             v.GetString("AVAILABILITY_TIMEZONE"),
		CacheEnabled:         v.GetBool("AVAILABILITY_CACHE_ENABLED"),
		CacheTTL:             parseDuration(v.GetString("AVAILABILITY_CACHE_TTL"), 5*time.Minute),
		DefaultCutoffMinutes: v.GetInt("AVAILABILITY_DEFAULT_CUTOFF_MINUTES"),
		MaxRangeDays:         v.GetInt("AVAILABILITY_MAX_RANGE_DAYS"),
		PrebuildDays:         v.GetInt("AVAILABILITY_PREBUILD_DAYS"),
		PrebuildInterval:     parseDuration(v.GetString("AVAILABILITY_PREBUILD_INTERVAL"), time.Hour),
	}

	cfg.Bookings = BookingsConfig{
		PendingTTL:    parseDuration(v.GetString("BOOKINGS_PENDING_TTL"), 15*time.Minute),
		SweepInterval: parseDuration(v.GetString("BOOKINGS_SWEEP_INTERVAL"), time.Minute),
		SweepWorkers:  v.GetInt("BOOKINGS_SWEEP_WORKERS"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "experience_api")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AVAILABILITY_TIMEZONE", "UTC")
	v.SetDefault("AVAILABILITY_CACHE_ENABLED", true)
	v.SetDefault("AVAILABILITY_CACHE_TTL", "5m")
	v.SetDefault("AVAILABILITY_DEFAULT_CUTOFF_MINUTES", 120)
	v.SetDefault("AVAILABILITY_MAX_RANGE_DAYS", 90)
	v.SetDefault("AVAILABILITY_PREBUILD_DAYS", 0)
	v.SetDefault("AVAILABILITY_PREBUILD_INTERVAL", "1h")

	v.SetDefault("BOOKINGS_PENDING_TTL", "15m")
	v.SetDefault("BOOKINGS_SWEEP_INTERVAL", "1m")
	v.SetDefault("BOOKINGS_SWEEP_WORKERS", 1)

	v.SetDefault("ENABLE_EXPORTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
