package config

import (
	"errors"
	"io/fs"
	"strconv"
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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	RateLimit     RateLimitConfig
	Scheduling    SchedulingConfig
	Institutions  InstitutionConfig
	Notifications NotificationConfig
	Maintenance   MaintenanceConfig
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
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig bounds how often a single client may request suggestions.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// SchedulingConfig tunes the availability engine.
type SchedulingConfig struct {
	LookaheadMonths   int
	MaxSuggestions    int
	Workers           int
	MaxOccurrences    int
	StrictCalendar    bool
	DefaultTimezone   string
	DefaultHoursStart string
	DefaultHoursEnd   string
	DefaultWorkDays   []int
	SuggestionTTL     time.Duration
	RequestTimeout    time.Duration
	CacheSuggestions  bool
}

// InstitutionConfig controls the constraint provider cache.
type InstitutionConfig struct {
	CacheTTL time.Duration
}

// NotificationConfig governs the availability-changed publisher.
type NotificationConfig struct {
	Enabled    bool
	Queue      string
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	RedisDB    int
}

// MaintenanceConfig schedules the expired-availability purge.
type MaintenanceConfig struct {
	Enabled   bool
	Schedule  string
	Retention time.Duration
	Timezone  string
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
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:           v.GetBool("ENABLE_RATE_LIMIT"),
		RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
		Burst:             v.GetInt("RATE_LIMIT_BURST"),
	}

	cfg.Scheduling = SchedulingConfig{
		LookaheadMonths:   v.GetInt("SCHEDULING_LOOKAHEAD_MONTHS"),
		MaxSuggestions:    v.GetInt("SCHEDULING_MAX_SUGGESTIONS"),
		Workers:           v.GetInt("SCHEDULING_WORKERS"),
		MaxOccurrences:    v.GetInt("SCHEDULING_MAX_OCCURRENCES"),
		StrictCalendar:    v.GetBool("SCHEDULING_STRICT_CALENDAR"),
		DefaultTimezone:   v.GetString("SCHEDULING_DEFAULT_TIMEZONE"),
		DefaultHoursStart: v.GetString("SCHEDULING_DEFAULT_HOURS_START"),
		DefaultHoursEnd:   v.GetString("SCHEDULING_DEFAULT_HOURS_END"),
		DefaultWorkDays:   parseInts(v.GetString("SCHEDULING_DEFAULT_WORKING_DAYS")),
		SuggestionTTL:     parseDuration(v.GetString("SCHEDULING_SUGGESTION_CACHE_TTL"), 2*time.Minute),
		RequestTimeout:    parseDuration(v.GetString("SCHEDULING_REQUEST_TIMEOUT"), 10*time.Second),
		CacheSuggestions:  v.GetBool("SCHEDULING_CACHE_SUGGESTIONS"),
	}

	cfg.Institutions = InstitutionConfig{
		CacheTTL: parseDuration(v.GetString("INSTITUTION_CACHE_TTL"), 15*time.Minute),
	}

	cfg.Notifications = NotificationConfig{
		Enabled:    v.GetBool("ENABLE_NOTIFICATIONS"),
		Queue:      v.GetString("NOTIFICATIONS_QUEUE"),
		Workers:    v.GetInt("NOTIFICATIONS_WORKERS"),
		BufferSize: v.GetInt("NOTIFICATIONS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), time.Second),
		RedisDB:    v.GetInt("NOTIFICATIONS_REDIS_DB"),
	}

	cfg.Maintenance = MaintenanceConfig{
		Enabled:   v.GetBool("ENABLE_MAINTENANCE"),
		Schedule:  v.GetString("MAINTENANCE_SCHEDULE"),
		Retention: parseDuration(v.GetString("MAINTENANCE_RETENTION"), 365*24*time.Hour),
		Timezone:  v.GetString("MAINTENANCE_TIMEZONE"),
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
	v.SetDefault("DB_NAME", "trainer_availability")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_RATE_LIMIT", true)
	v.SetDefault("RATE_LIMIT_RPS", 2)
	v.SetDefault("RATE_LIMIT_BURST", 5)

	v.SetDefault("SCHEDULING_LOOKAHEAD_MONTHS", 3)
	v.SetDefault("SCHEDULING_MAX_SUGGESTIONS", 10)
	v.SetDefault("SCHEDULING_WORKERS", 4)
	v.SetDefault("SCHEDULING_MAX_OCCURRENCES", 5000)
	v.SetDefault("SCHEDULING_STRICT_CALENDAR", false)
	v.SetDefault("SCHEDULING_DEFAULT_TIMEZONE", "UTC")
	v.SetDefault("SCHEDULING_DEFAULT_HOURS_START", "08:00")
	v.SetDefault("SCHEDULING_DEFAULT_HOURS_END", "18:00")
	v.SetDefault("SCHEDULING_DEFAULT_WORKING_DAYS", "1,2,3,4,5")
	v.SetDefault("SCHEDULING_SUGGESTION_CACHE_TTL", "2m")
	v.SetDefault("SCHEDULING_REQUEST_TIMEOUT", "10s")
	v.SetDefault("SCHEDULING_CACHE_SUGGESTIONS", true)

	v.SetDefault("INSTITUTION_CACHE_TTL", "15m")

	v.SetDefault("ENABLE_NOTIFICATIONS", false)
	v.SetDefault("NOTIFICATIONS_QUEUE", "availability")
	v.SetDefault("NOTIFICATIONS_WORKERS", 1)
	v.SetDefault("NOTIFICATIONS_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "1s")
	v.SetDefault("NOTIFICATIONS_REDIS_DB", 1)

	v.SetDefault("ENABLE_MAINTENANCE", false)
	v.SetDefault("MAINTENANCE_SCHEDULE", "0 3 1 1 *")
	v.SetDefault("MAINTENANCE_RETENTION", "8760h")
	v.SetDefault("MAINTENANCE_TIMEZONE", "UTC")
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

func parseInts(raw string) []int {
	var result []int
	for _, part := range splitAndTrim(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		result = append(result, n)
	}
	return result
}
