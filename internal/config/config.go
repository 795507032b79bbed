package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported AI providers. Gemini is reached through its OpenAI-compatible endpoint.
const (
	AIProviderOpenAI = "openai"
	AIProviderGemini = "gemini"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseDriver    string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	EventSubject      string
	JWTSecret         string
	AIProvider        string
	AIAPIKey          string
	AIModel           string
	AIBaseURL         string
	AITimeout         time.Duration
	AIMaxTokens       int
	AITemperature     float32
	EssayCacheTTL     time.Duration
	EssayRenderTTL    time.Duration
	EssaySubmitLimit  int
	EssaySubmitWindow time.Duration
	TraceExporter     string
	TraceEndpoint     string
	TraceInsecure     bool
	TraceSampleRatio  float64
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TRUSKILL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Truskill Essay API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("events.subject", "truskill.essays.submitted")
	v.SetDefault("ai.provider", AIProviderGemini)
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.max_tokens", 1500)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("essays.cache_ttl", "5m")
	v.SetDefault("essays.render_ttl", "30m")
	v.SetDefault("essays.submit_limit", 3)
	v.SetDefault("essays.submit_window", "1m")
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.sample_ratio", 1.0)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	aiTimeout, err := parseDuration(v, "ai.timeout")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "essays.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	renderTTL, err := parseDuration(v, "essays.render_ttl")
	if err != nil {
		return Config{}, err
	}
	submitWindow, err := parseDuration(v, "essays.submit_window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseDriver:    strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventSubject:      v.GetString("events.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		AIProvider:        strings.ToLower(v.GetString("ai.provider")),
		AIAPIKey:          v.GetString("ai.api_key"),
		AIModel:           v.GetString("ai.model"),
		AIBaseURL:         v.GetString("ai.base_url"),
		AITimeout:         aiTimeout,
		AIMaxTokens:       v.GetInt("ai.max_tokens"),
		AITemperature:     float32(v.GetFloat64("ai.temperature")),
		EssayCacheTTL:     cacheTTL,
		EssayRenderTTL:    renderTTL,
		EssaySubmitLimit:  v.GetInt("essays.submit_limit"),
		EssaySubmitWindow: submitWindow,
		TraceExporter:     strings.ToLower(v.GetString("tracing.exporter")),
		TraceEndpoint:     v.GetString("tracing.endpoint"),
		TraceInsecure:     v.GetBool("tracing.insecure"),
		TraceSampleRatio:  v.GetFloat64("tracing.sample_ratio"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AIAPIKey == "" {
		return Config{}, fmt.Errorf("ai api key must be provided")
	}

	switch cfg.AIProvider {
	case AIProviderOpenAI:
	case AIProviderGemini:
		if cfg.AIModel == "" {
			cfg.AIModel = "gemini-1.5-flash"
		}
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.EssaySubmitLimit <= 0 {
		cfg.EssaySubmitLimit = 3
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := v.GetString(key)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return duration, nil
}
