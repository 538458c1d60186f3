package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CAREER_STORAGE_LOCAL_PATH", filepath.Join(dir, "uploads"))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, 10, cfg.RateLimit.GenerateMaxRequests)
	assert.Equal(t, "career.assessments", cfg.Events.Exchange)
	assert.DirExists(t, filepath.Join(dir, "uploads"))
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
server:
  port: "9090"
  mode: release
database:
  driver: sqlite
  path: test.db
jwt:
  secret: a-very-long-secret-for-release-mode-000
  expire_hours: 2
llm:
  provider: mock
  timeout_seconds: 5
storage:
  type: local
  local_path: `+filepath.Join(dir, "files")+`
cors:
  allowed_origins: ["https://app.example.com"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)

	// 目录和文件两种写法等价
	byDir, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.Port, byDir.Server.Port)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
server:
  port: "9090"
llm:
  provider: mock
storage:
  local_path: `+filepath.Join(dir, "files")+`
`)
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "server: [unclosed")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Mode: "debug"},
			Database: DatabaseConfig{Driver: "sqlite"},
			LLM:      LLMConfig{Provider: "mock"},
			Storage:  StorageConfig{Type: "local"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"short secret in release", func(c *Config) { c.Server.Mode = "release"; c.JWT.Secret = "short" }, "JWT secret is too short"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "unknown database driver"},
		{"openai without key", func(c *Config) { c.LLM.Provider = "openai" }, "llm.openai.api_key"},
		{"anthropic without key", func(c *Config) { c.LLM.Provider = "anthropic" }, "llm.anthropic.api_key"},
		{"gemini without key", func(c *Config) { c.LLM.Provider = "gemini" }, "llm.gemini.api_key"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }, "unknown llm provider"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "oss" }, "unknown storage type"},
		{"events without url", func(c *Config) { c.Events.Enabled = true }, "events.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, filepath.Join("configs", "config.yaml"), ResolvePath("configs"))
	assert.Equal(t, "custom.yml", ResolvePath("custom.yml"))
	assert.Equal(t, "/etc/career/prod.yaml", ResolvePath("/etc/career/prod.yaml"))
}
