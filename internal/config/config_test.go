package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, StrategyRule, cfg.Interpreter.Strategy)
	assert.Equal(t, StoreMemory, cfg.Calendar.Store)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
interpreter:
  strategy: model
llm:
  api_key: sk-test
  model: deepseek-chat
  timeout_seconds: 10
calendar:
  store: caldav
  server_url: https://caldav.example.com/
  username: alice
  password: secret
server:
  port: 9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StrategyModel, cfg.Interpreter.Strategy)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 10*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, StoreCalDAV, cfg.Calendar.Store)
	assert.Equal(t, "alice", cfg.Calendar.Username)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
}

func TestLoadPrefersPrivateConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "server:\n  port: 8080\n")
	writeFile(t, dir, "config_private.yaml", "server:\n  port: 9999\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CALAGENT_LLM_API_KEY", "sk-env")
	t.Setenv("CALAGENT_INTERPRETER_STRATEGY", "model")
	t.Setenv("CALAGENT_SERVER_PORT", "7777")

	path := writeFile(t, t.TempDir(), "config.yaml", "llm:\n  api_key: sk-file\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, StrategyModel, cfg.Interpreter.Strategy)
	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestValidateRejectsBadCombinations(t *testing.T) {
	cfg := Default()
	cfg.Interpreter.Strategy = "magic"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Interpreter.Strategy = StrategyModel
	assert.Error(t, cfg.Validate(), "model strategy without api key")

	cfg = Default()
	cfg.Calendar.Store = StoreCalDAV
	assert.Error(t, cfg.Validate(), "caldav store without server url")

	cfg = Default()
	cfg.Calendar.Store = StoreCalDAV
	cfg.Calendar.ServerURL = "https://caldav.example.com/"
	cfg.Calendar.Username = "alice"
	assert.Error(t, cfg.Validate(), "caldav store without password")
}
