// Package config reads the blogpanel runtime configuration from the
// environment (optionally seeded by a .env file).
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

const envPrefix = "BLOGPANEL_"

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// SessionStoreType selects where gin sessions are kept.
type SessionStoreType string

const (
	SessionStoreCookie SessionStoreType = "cookie"
	SessionStoreRedis  SessionStoreType = "redis"
)

// Locale is one entry of the configured locale list.
type Locale struct {
	Code  string
	Label string
}

const defaultLocales = "en:English,fr:Français"

// Config holds the settings of one server instance.
type Config struct {
	Listen   string
	Port     int
	BasePath string
	Domain   string
	CertFile string
	KeyFile  string

	LoginAttemptsPerMinute int

	Secret        string
	SessionMaxAge int // minutes
	SessionStore  SessionStoreType
	RedisAddr     string

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	Locales            []Locale
	AuditRetentionDays int
	RabbitMQURL        string

	Database *DatabaseConfig
	Storage  *StorageConfig
}

var loadEnvOnce sync.Once

// LoadEnvFile loads .env (or the file named by BLOGPANEL_ENV_FILE) into
// the process environment without overriding variables already set.
func LoadEnvFile() {
	loadEnvOnce.Do(func() {
		file := os.Getenv(envPrefix + "ENV_FILE")
		if file == "" {
			file = ".env"
		}
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", file, err)
			}
		}
	})
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	LoadEnvFile()

	locales, err := ParseLocales(getEnv("LOCALES", defaultLocales))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Listen:                 getEnv("LISTEN", ""),
		Port:                   getEnvInt("PORT", 8080),
		BasePath:               NormalizeBasePath(getEnv("BASE_PATH", "/")),
		Domain:                 getEnv("DOMAIN", ""),
		CertFile:               getEnv("CERT_FILE", ""),
		KeyFile:                getEnv("KEY_FILE", ""),
		LoginAttemptsPerMinute: getEnvInt("LOGIN_ATTEMPTS_PER_MINUTE", 10),
		Secret:                 getEnv("SECRET", ""),
		SessionMaxAge:          getEnvInt("SESSION_MAX_AGE", 60),
		SessionStore:           SessionStoreType(getEnv("SESSION_STORE", string(SessionStoreCookie))),
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:             getEnv("ADMIN_EMAIL", "admin@localhost"),
		AdminPassword:          getEnv("ADMIN_PASSWORD", "admin"),
		Locales:                locales,
		AuditRetentionDays:     getEnvInt("AUDIT_RETENTION_DAYS", 90),
		RabbitMQURL:            getEnv("RABBITMQ_URL", ""),
		Database:               LoadDatabaseConfig(),
		Storage:                LoadStorageConfig(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	switch c.SessionStore {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported session store: %s", c.SessionStore)
	}
	if len(c.Locales) == 0 {
		return fmt.Errorf("at least one locale must be configured")
	}
	if err := c.Database.ValidateConfig(); err != nil {
		return err
	}
	return c.Storage.ValidateConfig()
}

// DefaultLocale is the first configured locale.
func (c *Config) DefaultLocale() string {
	return c.Locales[0].Code
}

// ParseLocales parses "code:Label,code:Label". A missing label falls back to the code.
func ParseLocales(raw string) ([]Locale, error) {
	locales := make([]Locale, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, label, _ := strings.Cut(part, ":")
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, fmt.Errorf("invalid locale entry %q", part)
		}
		label = strings.TrimSpace(label)
		if label == "" {
			label = code
		}
		locales = append(locales, Locale{Code: code, Label: label})
	}
	return locales, nil
}

// NormalizeBasePath makes sure the path starts and ends with a slash.
func NormalizeBasePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv(envPrefix + "LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv(envPrefix+"DEBUG") == "true"
}

func GetLogFolder() string {
	return getEnv("LOG_FOLDER", "/var/log/blogpanel")
}

func GetDataFolder() string {
	return getEnv("DATA_FOLDER", "/var/lib/blogpanel")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(envPrefix + key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(envPrefix + key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
