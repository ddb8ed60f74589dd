package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings backends supported by SETTINGS_BACKEND.
const (
	SettingsBackendFile     = "file"
	SettingsBackendPostgres = "postgres"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	SettingsBackend    string
	SettingsPath       string
	DatabaseURL        string
	StoragePath        string
	DashScopeBaseURL   string
	DashScopeAPIKey    string
	DashScopeModel     string
	PollMaxAttempts    int
	PollInterval       time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RemoteTimeout      time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
	ConfigWebhooks     []string
	DefaultLocale      string
	GeoIPDBPath        string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		SettingsBackend:    strings.ToLower(getEnv("SETTINGS_BACKEND", SettingsBackendFile)),
		SettingsPath:       getEnv("SETTINGS_PATH", "./data/settings.json"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		DashScopeBaseURL:   os.Getenv("DASHSCOPE_BASE_URL"),
		DashScopeAPIKey:    strings.TrimSpace(os.Getenv("DASHSCOPE_API_KEY")),
		DashScopeModel:     strings.TrimSpace(os.Getenv("DASHSCOPE_MODEL")),
		PollMaxAttempts:    getEnvInt("POLL_MAX_ATTEMPTS", 60),
		PollInterval:       time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RemoteTimeout:      time.Second * time.Duration(getEnvInt("REMOTE_TIMEOUT_SECONDS", 30)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		ConfigWebhooks:     getEnvList("CONFIG_WEBHOOKS"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:        strings.TrimSpace(os.Getenv("GEOIP_DB_PATH")),
	}

	switch cfg.SettingsBackend {
	case SettingsBackendFile:
		if strings.TrimSpace(cfg.SettingsPath) == "" {
			return nil, fmt.Errorf("SETTINGS_PATH is required for the file backend")
		}
	case SettingsBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unsupported SETTINGS_BACKEND %q", cfg.SettingsBackend)
	}

	if cfg.PollMaxAttempts <= 0 {
		return nil, fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}
	if cfg.PollInterval < 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
