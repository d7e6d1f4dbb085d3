package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Request log store drivers
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Cache modes
const (
	CacheNone   = ""
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Default values
const (
	defaultPort             = "3000"
	defaultLogLevel         = "info"
	defaultLogFile          = "logs.txt"
	defaultLogPruneSchedule = "@hourly"
	defaultCacheTTL         = 10 * time.Minute
	defaultRateLimit        = 60
	defaultRateWindow       = time.Minute
	defaultSMTPPort         = "587"
)

// Config holds application configuration
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Request audit log
	LogStore         string        `yaml:"log_store"`
	LogFile          string        `yaml:"log_file"`
	LogDSN           string        `yaml:"log_dsn"`
	LogRetention     time.Duration `yaml:"log_retention"` // 0 keeps every entry
	LogPruneSchedule string        `yaml:"log_prune_schedule"`

	// Result cache
	Cache     string        `yaml:"cache"`
	RedisAddr string        `yaml:"redis_addr"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	// Per-client rate limiting, 0 disables it
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`

	// Auth for the logs endpoint, empty JWTSecret disables it
	JWTSecret         string `yaml:"jwt_secret"`
	AdminPasswordHash string `yaml:"admin_password_hash"`

	// Capacity alerts
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     string `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	SenderEmail  string `yaml:"sender_email"`
	AlertEmail   string `yaml:"alert_email"`

	// Path is the YAML file the config was read from, if any
	Path string `yaml:"-"`
}

// NewConfig loads configuration from defaults, a .env file, an optional YAML file
// and environment variables, in that order of precedence (last wins).
// An empty path falls back to CONFIG_FILE.
func NewConfig(path string) (*Config, error) {
	// .env is optional; variables already set in the environment are kept
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
		cfg.Path = path
	}

	applyEnv(cfg)

	if cfg.Cache == CacheNone && cfg.RedisAddr != "" {
		cfg.Cache = CacheRedis
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AlertsEnabled reports whether capacity alerts can be delivered
func (c *Config) AlertsEnabled() bool {
	return c.SMTPHost != "" && c.AlertEmail != ""
}

// AuthEnabled reports whether the logs endpoint requires a bearer token
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func defaults() *Config {
	return &Config{
		Port:             defaultPort,
		LogLevel:         defaultLogLevel,
		LogStore:         StoreFile,
		LogFile:          defaultLogFile,
		LogPruneSchedule: defaultLogPruneSchedule,
		CacheTTL:         defaultCacheTTL,
		RateLimit:        defaultRateLimit,
		RateWindow:       defaultRateWindow,
		SMTPPort:         defaultSMTPPort,
	}
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogStore = getEnv("LOG_STORE", cfg.LogStore)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogDSN = getEnv("LOG_DSN", cfg.LogDSN)
	cfg.LogRetention = getEnvDuration("LOG_RETENTION", cfg.LogRetention)
	cfg.LogPruneSchedule = getEnv("LOG_PRUNE_SCHEDULE", cfg.LogPruneSchedule)
	cfg.Cache = getEnv("CACHE", cfg.Cache)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.RateLimit = getEnvInt("RATE_LIMIT", cfg.RateLimit)
	cfg.RateWindow = getEnvDuration("RATE_WINDOW", cfg.RateWindow)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", cfg.AdminPasswordHash)
	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnv("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SenderEmail = getEnv("SENDER_EMAIL", cfg.SenderEmail)
	cfg.AlertEmail = getEnv("ALERT_EMAIL", cfg.AlertEmail)
}

// validate checks structural constraints on the loaded configuration
func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT %q is not a valid port", cfg.Port)
	}

	switch cfg.LogStore {
	case StoreFile:
		if cfg.LogFile == "" {
			return fmt.Errorf("LOG_FILE is required for the file log store")
		}
	case StorePostgres, StoreSQLite:
		if cfg.LogDSN == "" {
			return fmt.Errorf("LOG_DSN is required for the %s log store", cfg.LogStore)
		}
	default:
		return fmt.Errorf("LOG_STORE %q unknown: want file|postgres|sqlite", cfg.LogStore)
	}

	switch cfg.Cache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache")
		}
	default:
		return fmt.Errorf("CACHE %q unknown: want memory|redis", cfg.Cache)
	}

	if cfg.LogRetention < 0 {
		return fmt.Errorf("LOG_RETENTION must not be negative")
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateWindow <= 0 {
		return fmt.Errorf("RATE_WINDOW must be positive when rate limiting is enabled")
	}
	if cfg.AdminPasswordHash != "" && cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms"; a bare number is read as seconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
