package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/Simplici0/calcoz/internal/currency"
)

const (
	defaultEnv      = "development"
	defaultDBPath   = "./calcoz.db"
	defaultPort     = "8080"
	defaultLogLevel = "info"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DBPath             string
	SessionSecret      string
	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string
	DefaultCurrency    string
	MetricsEnabled     bool
	SeedTemplates      bool
}

// Load reads an optional dotenv file and the process environment.
// Variables already present in the environment win over the dotenv file.
func Load(dotenvPaths ...string) (Config, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{".env"}
	}
	for _, p := range dotenvPaths {
		// Missing files are fine; production injects real env.
		_ = godotenv.Load(p)
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Config{
		AppEnv:             strings.ToLower(valueOrDefault(k.String("APP_ENV"), defaultEnv)),
		Port:               valueOrDefault(k.String("PORT"), defaultPort),
		DBPath:             valueOrDefault(k.String("DB_PATH"), defaultDBPath),
		SessionSecret:      k.String("SESSION_SECRET"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), defaultLogLevel),
		LogFormat:          k.String("LOG_FORMAT"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		DefaultCurrency:    valueOrDefault(k.String("DEFAULT_CURRENCY"), currency.BaseCode),
		MetricsEnabled:     parseBool(k.String("METRICS_ENABLED"), true),
		SeedTemplates:      parseBool(k.String("SEED_TEMPLATES"), true),
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
		if cfg.IsDev() {
			cfg.LogFormat = "console"
		}
	}

	if _, ok := currency.Find(cfg.DefaultCurrency); !ok {
		return Config{}, fmt.Errorf("DEFAULT_CURRENCY %q is not supported", cfg.DefaultCurrency)
	}
	cfg.DefaultCurrency = strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency))

	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.SessionSecret == "" && !c.IsDev() {
		return fmt.Errorf("SESSION_SECRET is required outside development")
	}
	return nil
}

// IsDev reports whether the app runs in development mode.
func (c Config) IsDev() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
