package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	LogLevel           string
	DefaultLocale      string
	GeoIPDBPath        string
	CORSAllowedOrigins []string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIOrg          string
	OpenAIProject      string
	TextModel          string
	ImageModel         string
	TextTimeout        time.Duration
	ImageTimeout       time.Duration
	ImageRatePerMin    int
	SessionTTL         time.Duration
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	// TrustProxyHeaders lets X-Forwarded-For and X-Real-IP replace the
	// connection address. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// LoadDotEnv reads .env and .env.local when present. Missing files are ignored.
func LoadDotEnv() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "pl"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:      strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		OpenAIOrg:          strings.TrimSpace(os.Getenv("OPENAI_ORG")),
		OpenAIProject:      strings.TrimSpace(os.Getenv("OPENAI_PROJECT")),
		TextModel:          getEnv("OPENAI_TEXT_MODEL", "gpt-4o-mini"),
		ImageModel:         getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		TextTimeout:        time.Second * time.Duration(getEnvInt("TEXT_TIMEOUT_SECONDS", 60)),
		ImageTimeout:       time.Second * time.Duration(getEnvInt("IMAGE_TIMEOUT_SECONDS", 120)),
		ImageRatePerMin:    getEnvInt("IMAGE_RATE_PER_MINUTE", 0),
		SessionTTL:         time.Minute * time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 900)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustProxyHeaders:  getEnv("TRUST_PROXY_HEADERS", "false") == "true",
	}

	if cfg.TextTimeout <= 0 || cfg.ImageTimeout <= 0 {
		return nil, fmt.Errorf("TEXT_TIMEOUT_SECONDS and IMAGE_TIMEOUT_SECONDS must be positive")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}
	if !strings.HasPrefix(cfg.OpenAIBaseURL, "http://") && !strings.HasPrefix(cfg.OpenAIBaseURL, "https://") {
		return nil, fmt.Errorf("OPENAI_BASE_URL must be an http(s) URL")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
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

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
