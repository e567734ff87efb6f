package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-5", cfg.OpenAIModel)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 5, cfg.BreakerFails)
	assert.Equal(t, 5*time.Minute, cfg.BreakerReset)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 100, cfg.CacheSize)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APP_ENVIRONMENT", "production")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.True(t, cfg.LLMEnabled())
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("OPENAI_API_KEY=sk-test\nLOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LLMEnabled())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("port: \"7000\"\ncache_size: 20\n"), 0o600))

	cfg, err := Load(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 20, cfg.CacheSize)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			LLMProvider:  ProviderNone,
			LLMTimeout:   time.Second,
			BreakerFails: 1,
			CacheSize:    1,
			RateLimit:    1,
			WSRateLimit:  1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad provider", mutate: func(c *Config) { c.LLMProvider = "claude" }, wantErr: "unknown LLM_PROVIDER"},
		{name: "zero timeout", mutate: func(c *Config) { c.LLMTimeout = 0 }, wantErr: "LLM_TIMEOUT"},
		{name: "zero breaker", mutate: func(c *Config) { c.BreakerFails = 0 }, wantErr: "BREAKER_MAX_FAILURES"},
		{name: "zero cache", mutate: func(c *Config) { c.CacheSize = 0 }, wantErr: "CACHE_SIZE"},
		{name: "zero rate", mutate: func(c *Config) { c.WSRateLimit = 0 }, wantErr: "rate limits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLLMEnabled(t *testing.T) {
	assert.False(t, (&Config{LLMProvider: ProviderOpenAI}).LLMEnabled())
	assert.True(t, (&Config{LLMProvider: ProviderOpenAI, OpenAIAPIKey: "k"}).LLMEnabled())
	assert.False(t, (&Config{LLMProvider: ProviderNone, OpenAIAPIKey: "k"}).LLMEnabled())
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
