package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache backends.
const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Cache       CacheConfig
	Optimizer   OptimizerConfig
	FocusBlocks FocusBlocksConfig
	Startup     StartupConfig
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

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig selects where optimization results are cached.
type CacheConfig struct {
	Enabled    bool
	Backend    string
	MaxEntries int
}

// OptimizerConfig governs the schedule optimizer endpoints.
type OptimizerConfig struct {
	ModelDir   string
	PolicyFile string
	WindowDays int
	CacheTTL   time.Duration
}

// FocusBlocksConfig sets the default pomodoro cadence for day plans.
type FocusBlocksConfig struct {
	FocusMinutes    int
	BreakMinutes    int
	DefaultTimezone string
	HorizonDays     int
}

// StartupConfig bounds connection retries while dependencies come up.
type StartupConfig struct {
	RetryAttempts int
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("CACHE_ENABLED"),
		Backend:    strings.ToLower(v.GetString("CACHE_BACKEND")),
		MaxEntries: v.GetInt("CACHE_MAX_ENTRIES"),
	}

	cfg.Optimizer = OptimizerConfig{
		ModelDir:   v.GetString("OPTIMIZER_MODEL_DIR"),
		PolicyFile: v.GetString("OPTIMIZER_POLICY_FILE"),
		WindowDays: positiveOr(v.GetInt("OPTIMIZER_WINDOW_DAYS"), 7),
		CacheTTL:   parseDuration(v.GetString("OPTIMIZER_CACHE_TTL"), 10*time.Minute),
	}

	cfg.FocusBlocks = FocusBlocksConfig{
		FocusMinutes:    positiveOr(v.GetInt("FOCUS_MINUTES"), 25),
		BreakMinutes:    v.GetInt("FOCUS_BREAK_MINUTES"),
		DefaultTimezone: v.GetString("FOCUS_DEFAULT_TIMEZONE"),
		HorizonDays:     positiveOr(v.GetInt("FOCUS_HORIZON_DAYS"), 7),
	}

	cfg.Startup = StartupConfig{
		RetryAttempts: positiveOr(v.GetInt("STARTUP_RETRY_ATTEMPTS"), 5),
		RetryDelay:    parseDuration(v.GetString("STARTUP_RETRY_DELAY"), time.Second),
		RetryMaxDelay: parseDuration(v.GetString("STARTUP_RETRY_MAX_DELAY"), 30*time.Second),
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
	v.SetDefault("DB_NAME", "smart_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("CACHE_MAX_ENTRIES", 10_000)

	v.SetDefault("OPTIMIZER_MODEL_DIR", "./trained_models")
	v.SetDefault("OPTIMIZER_POLICY_FILE", "")
	v.SetDefault("OPTIMIZER_WINDOW_DAYS", 7)
	v.SetDefault("OPTIMIZER_CACHE_TTL", "10m")

	v.SetDefault("FOCUS_MINUTES", 25)
	v.SetDefault("FOCUS_BREAK_MINUTES", 5)
	v.SetDefault("FOCUS_DEFAULT_TIMEZONE", "America/Guayaquil")
	v.SetDefault("FOCUS_HORIZON_DAYS", 7)

	v.SetDefault("STARTUP_RETRY_ATTEMPTS", 5)
	v.SetDefault("STARTUP_RETRY_DELAY", "1s")
	v.SetDefault("STARTUP_RETRY_MAX_DELAY", "30s")
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
