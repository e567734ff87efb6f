package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every server setting. Values come from the environment, an
// optional .env file and an optional config.yaml, in that order of precedence.
type Config struct {
	Port        string
	Environment string

	DatabaseURL string
	RedisURL    string

	LLMProvider    string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	GeminiAPIKey   string
	GeminiModel    string
	LLMTimeout     time.Duration
	BreakerFails   int
	BreakerReset   time.Duration
	CatalogPath    string
	CacheTTL       time.Duration
	CacheSize      int
	JWTSecret      string
	RateLimit      int
	WSRateLimit    int
	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

var defaults = map[string]any{
	"port":                  "8080",
	"app_environment":       "development",
	"llm_provider":          ProviderOpenAI,
	"openai_base_url":       "https://api.openai.com/v1",
	"openai_model":          "gpt-5",
	"gemini_model":          "gemini-2.0-flash",
	"llm_timeout":           "30s",
	"breaker_max_failures":  5,
	"breaker_reset":         "5m",
	"cache_ttl":             "5m",
	"cache_size":            100,
	"rate_limit_per_minute": 100,
	"ws_rate_limit":         30,
	"allowed_origins":       "*",
	"log_level":             "info",
	"log_format":            "json",
}

// Load reads configuration. envFiles are loaded with godotenv first; missing
// files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:          v.GetString("port"),
		Environment:   v.GetString("app_environment"),
		DatabaseURL:   v.GetString("database_url"),
		RedisURL:      v.GetString("redis_url"),
		LLMProvider:   strings.ToLower(v.GetString("llm_provider")),
		OpenAIAPIKey:  v.GetString("openai_api_key"),
		OpenAIBaseURL: v.GetString("openai_base_url"),
		OpenAIModel:   v.GetString("openai_model"),
		GeminiAPIKey:  v.GetString("gemini_api_key"),
		GeminiModel:   v.GetString("gemini_model"),
		LLMTimeout:    v.GetDuration("llm_timeout"),
		BreakerFails:  v.GetInt("breaker_max_failures"),
		BreakerReset:  v.GetDuration("breaker_reset"),
		CatalogPath:   v.GetString("catalog_path"),
		CacheTTL:      v.GetDuration("cache_ttl"),
		CacheSize:     v.GetInt("cache_size"),
		JWTSecret:     v.GetString("jwt_secret"),
		RateLimit:     v.GetInt("rate_limit_per_minute"),
		WSRateLimit:   v.GetInt("ws_rate_limit"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
	}

	for _, o := range strings.Split(v.GetString("allowed_origins"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and that the chosen provider has a key
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.LLMTimeout <= 0 {
		return errors.New("LLM_TIMEOUT must be positive")
	}
	if c.BreakerFails <= 0 {
		return errors.New("BREAKER_MAX_FAILURES must be positive")
	}
	if c.CacheSize <= 0 {
		return errors.New("CACHE_SIZE must be positive")
	}
	if c.RateLimit <= 0 || c.WSRateLimit <= 0 {
		return errors.New("rate limits must be positive")
	}
	return nil
}

// LLMEnabled reports whether a provider is selected and has credentials.
// A missing key is not an error: the service then answers from the rules.
func (c *Config) LLMEnabled() bool {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	default:
		return false
	}
}

// IsProduction reports whether APP_ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
