package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
// Values come from defaults, then an optional magda-edit.yaml, then environment variables.
type Config struct {
	// Environment
	Environment string
	Port        string

	// LLM API Keys
	OpenAIAPIKey string // OpenAI API key for GPT models
	GeminiAPIKey string // Google Gemini API key

	// Structured extraction
	LLMProvider    string // openai, gemini, or none to disable extraction
	LLMModel       string
	LLMTemperature float64
	ReasoningMode  string

	// Circuit breaker around the completion service
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration

	// Audio tooling
	FFmpegPath       string
	FFprobePath      string
	OutputDir        string
	MetadataCacheTTL time.Duration

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
	CloudWatchEnabled bool   // Custom metrics; also requires ENVIRONMENT=production

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from the gateway
	AuthMode string
}

// Provider names accepted in LLM_PROVIDER
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

var defaults = map[string]any{
	"environment":               "development",
	"port":                      "8080",
	"openai_api_key":            "",
	"gemini_api_key":            "",
	"llm_provider":              "",
	"llm_model":                 "gpt-4.1-mini",
	"llm_temperature":           0.1,
	"reasoning_mode":            "none",
	"breaker_failure_threshold": 5,
	"breaker_open_timeout":      "30s",
	"ffmpeg_path":               "ffmpeg",
	"ffprobe_path":              "ffprobe",
	"output_dir":                "",
	"metadata_cache_ttl":        "10m",
	"sentry_dsn":                "",
	"langfuse_public_key":       "",
	"langfuse_secret_key":       "",
	"langfuse_host":             "https://cloud.langfuse.com",
	"langfuse_enabled":          false,
	"cloudwatch_enabled":        true,
	"auth_mode":                 "none", // Default to no auth for self-hosted
}

// Load reads configuration from the environment and an optional config file
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("magda-edit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Environment:             v.GetString("environment"),
		Port:                    v.GetString("port"),
		OpenAIAPIKey:            v.GetString("openai_api_key"),
		GeminiAPIKey:            v.GetString("gemini_api_key"),
		LLMProvider:             strings.ToLower(v.GetString("llm_provider")),
		LLMModel:                v.GetString("llm_model"),
		LLMTemperature:          v.GetFloat64("llm_temperature"),
		ReasoningMode:           v.GetString("reasoning_mode"),
		BreakerFailureThreshold: v.GetUint32("breaker_failure_threshold"),
		BreakerOpenTimeout:      v.GetDuration("breaker_open_timeout"),
		FFmpegPath:              v.GetString("ffmpeg_path"),
		FFprobePath:             v.GetString("ffprobe_path"),
		OutputDir:               v.GetString("output_dir"),
		MetadataCacheTTL:        v.GetDuration("metadata_cache_ttl"),
		SentryDSN:               v.GetString("sentry_dsn"),
		LangfusePublicKey:       v.GetString("langfuse_public_key"),
		LangfuseSecretKey:       v.GetString("langfuse_secret_key"),
		LangfuseHost:            v.GetString("langfuse_host"),
		LangfuseEnabled:         v.GetBool("langfuse_enabled"),
		CloudWatchEnabled:       v.GetBool("cloudwatch_enabled"),
		AuthMode:                v.GetString("auth_mode"),
	}

	if cfg.LLMProvider == "" {
		cfg.LLMProvider = inferProvider(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// inferProvider picks a provider from the configured model and available keys
func inferProvider(cfg *Config) string {
	switch {
	case strings.HasPrefix(strings.ToLower(cfg.LLMModel), "gemini-") && cfg.GeminiAPIKey != "":
		return ProviderGemini
	case cfg.OpenAIAPIKey != "":
		return ProviderOpenAI
	case cfg.GeminiAPIKey != "":
		return ProviderGemini
	default:
		return ProviderNone
	}
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q (allowed: openai, gemini, none)", c.LLMProvider)
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("invalid LLM_TEMPERATURE %v (allowed: 0-2)", c.LLMTemperature)
	}
	if c.BreakerFailureThreshold == 0 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	return nil
}

// IsGatewayMode returns true if running behind the gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ExtractionEnabled reports whether a completion provider is configured
func (c *Config) ExtractionEnabled() bool {
	return c.LLMProvider != ProviderNone
}
