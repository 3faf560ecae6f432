package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/period"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Engine   EngineConfig
	Cache    CacheConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int32
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
	ClockSkew        time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Name           string
	Version        string
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	StorageDriver  string
	AllowedOrigins []string
}

// EngineConfig holds the attendance and period engine defaults
type EngineConfig struct {
	ProbationMonths     int
	DefaultGraceMinutes int
	DefaultShiftStart   string
	AccrualMode         string
	MaxExtensionDays    int
}

type CacheConfig struct {
	StatusTTL     time.Duration
	LeaveTTL      time.Duration
	SettingsTTL   time.Duration
	SweepInterval time.Duration
}

type CronConfig struct {
	Enabled           bool
	ReconcileInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}
	p := parser{}

	// Database configuration
	config.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            p.intVar("DB_PORT", "5432"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Name:            getEnv("DB_NAME", "attendance_engine"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxConns:        int32(p.intVar("DB_MAX_CONNS", "10")),
		MaxConnLifetime: p.durationVar("DB_MAX_CONN_LIFETIME", "1h"),
		ConnectTimeout:  p.durationVar("DB_CONNECT_TIMEOUT", "10s"),
	}

	// Application configuration
	config.App = AppConfig{
		Name:           getEnv("APP_NAME", "attendance-engine"),
		Version:        getEnv("APP_VERSION", "v1.0.0"),
		Port:           p.intVar("APP_PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		StorageDriver:  getEnv("STORAGE_DRIVER", StoragePostgres),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: p.durationVar("JWT_ACCESS_EXPIRATION_TIME", "1h"),
		ClockSkew:        p.durationVar("JWT_CLOCK_SKEW", "30s"),
	}

	// Engine configuration
	config.Engine = EngineConfig{
		ProbationMonths:     p.intVar("PROBATION_MONTHS", strconv.Itoa(period.DefaultProbationMonths)),
		DefaultGraceMinutes: p.intVar("DEFAULT_GRACE_MINUTES", "30"),
		DefaultShiftStart:   getEnv("DEFAULT_SHIFT_START", "09:00"),
		AccrualMode:         getEnv("EXTENSION_ACCRUAL_MODE", string(period.AccrualRolling)),
		MaxExtensionDays:    p.intVar("EXTENSION_MAX_DAYS", "1827"),
	}

	// Cache configuration
	config.Cache = CacheConfig{
		StatusTTL:     p.durationVar("CACHE_STATUS_TTL", "60s"),
		LeaveTTL:      p.durationVar("CACHE_LEAVE_TTL", "5m"),
		SettingsTTL:   p.durationVar("CACHE_SETTINGS_TTL", "30m"),
		SweepInterval: p.durationVar("CACHE_SWEEP_INTERVAL", "1m"),
	}

	// Cron configuration
	config.Cron = CronConfig{
		Enabled:           p.boolVar("CRON_ENABLED", "true"),
		ReconcileInterval: p.durationVar("CRON_RECONCILE_INTERVAL", "15m"),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	switch c.App.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageMemory, StoragePostgres)
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Engine.ProbationMonths <= 0 {
		return fmt.Errorf("PROBATION_MONTHS must be positive")
	}
	if c.Engine.DefaultGraceMinutes < 0 {
		return fmt.Errorf("DEFAULT_GRACE_MINUTES must be zero or positive")
	}
	if _, err := schedule.ParseClockTime(c.Engine.DefaultShiftStart); err != nil {
		return fmt.Errorf("invalid DEFAULT_SHIFT_START: %w", err)
	}
	if !period.AccrualMode(c.Engine.AccrualMode).Valid() {
		return fmt.Errorf("EXTENSION_ACCRUAL_MODE must be %q or %q", period.AccrualRolling, period.AccrualCapped)
	}
	if c.Engine.MaxExtensionDays <= 0 {
		return fmt.Errorf("EXTENSION_MAX_DAYS must be positive")
	}
	if c.Cache.StatusTTL <= 0 || c.Cache.LeaveTTL <= 0 || c.Cache.SettingsTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("CACHE_SWEEP_INTERVAL must be positive")
	}
	if c.Cron.Enabled && c.Cron.ReconcileInterval <= 0 {
		return fmt.Errorf("CRON_RECONCILE_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ReconcileSchedule is the interval for scheduled reconciliation. Zero means
// the job only runs on demand.
func (c *Config) ReconcileSchedule() time.Duration {
	if !c.Cron.Enabled {
		return 0
	}
	return c.Cron.ReconcileInterval
}

// SlogLevel maps LOG_LEVEL to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// parser collects conversion errors so every bad variable is reported at once.
type parser struct {
	errs []error
}

func (p *parser) intVar(key, fallback string) int {
	v, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return v
}

func (p *parser) durationVar(key, fallback string) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return v
}

func (p *parser) boolVar(key, fallback string) bool {
	v, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return v
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
