package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	HTTP         HTTPConfig    `yaml:"http"`
	API          APIConfig     `yaml:"api"`
	Storage      StorageConfig `yaml:"storage"`
	SessionKey   string        `yaml:"session_key"`
	AuditLogFile string        `yaml:"audit_log_file"`
	LogLevel     string        `yaml:"log_level"`
	// FeedIdleTimeout evicts per-client product feeds nobody touched for
	// this long. Zero keeps them until the client forgets them.
	FeedIdleTimeout time.Duration `yaml:"feed_idle_timeout"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Backend     string      `yaml:"backend"`
	File        string      `yaml:"file"`
	SQLitePath  string      `yaml:"sqlite_path"`
	DatabaseURL string      `yaml:"database_url"`
	Redis       RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		API: APIConfig{
			BaseURL: "https://dummyjson.com",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:    BackendFile,
			File:       "./data/storefront.json",
			SQLitePath: "./data/storefront.db",
		},
		SessionKey:   "tanstack.auth.user",
		AuditLogFile: "./data/audit.log",
		LogLevel:     "info",

		FeedIdleTimeout: 30 * time.Minute,
	}
}

// Load starts from Defaults, applies the YAML file named by CONFIG_FILE (if
// any), then environment overrides, then validates.
func Load() (Config, error) {
	cfg := Defaults()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ReadTimeout = getEnvSeconds("HTTP_READ_TIMEOUT_SEC", cfg.HTTP.ReadTimeout)
	cfg.HTTP.WriteTimeout = getEnvSeconds("HTTP_WRITE_TIMEOUT_SEC", cfg.HTTP.WriteTimeout)
	cfg.HTTP.ShutdownTimeout = getEnvSeconds("HTTP_SHUTDOWN_TIMEOUT_SEC", cfg.HTTP.ShutdownTimeout)
	cfg.API.BaseURL = getEnv("API_BASE_URL", cfg.API.BaseURL)
	cfg.API.Timeout = getEnvSeconds("API_TIMEOUT_SEC", cfg.API.Timeout)
	cfg.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", cfg.Storage.Backend))
	cfg.Storage.File = getEnv("STORAGE_FILE", cfg.Storage.File)
	cfg.Storage.SQLitePath = getEnv("SQLITE_PATH", cfg.Storage.SQLitePath)
	cfg.Storage.DatabaseURL = getEnv("DATABASE_URL", cfg.Storage.DatabaseURL)
	cfg.Storage.Redis.Addr = getEnv("REDIS_ADDR", cfg.Storage.Redis.Addr)
	cfg.Storage.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Storage.Redis.Password)
	cfg.Storage.Redis.DB = getEnvInt("REDIS_DB", cfg.Storage.Redis.DB)
	cfg.SessionKey = getEnv("SESSION_STORAGE_KEY", cfg.SessionKey)
	cfg.AuditLogFile = getEnv("AUDIT_LOG_FILE", cfg.AuditLogFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.FeedIdleTimeout = getEnvSeconds("FEED_IDLE_TIMEOUT_SEC", cfg.FeedIdleTimeout)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT_SEC must be > 0")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT_SEC must be > 0")
	}
	if cfg.SessionKey == "" {
		return fmt.Errorf("SESSION_STORAGE_KEY must not be empty")
	}
	if cfg.FeedIdleTimeout < 0 {
		return fmt.Errorf("FEED_IDLE_TIMEOUT_SEC must be >= 0")
	}

	switch cfg.Storage.Backend {
	case BackendFile:
		if cfg.Storage.File == "" {
			return fmt.Errorf("STORAGE_FILE must not be empty")
		}
	case BackendSQLite:
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	case BackendPostgres:
		if cfg.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must not be empty for the postgres backend")
		}
	case BackendRedis:
		if cfg.Storage.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR must not be empty for the redis backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND %q is not one of file, sqlite, postgres, redis", cfg.Storage.Backend)
	}
	return nil
}

// APIBaseURL returns the parsed API base; Validate guarantees it parses.
func (cfg Config) APIBaseURL() url.URL {
	u, _ := url.Parse(cfg.API.BaseURL)
	if u == nil {
		return url.URL{}
	}
	return *u
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("decode config file: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return time.Duration(n) * time.Second
}
