// Package config loads application settings from YAML with environment
// overrides. A config_private.yaml next to the default file takes priority,
// so credentials can stay out of version control.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default lookup order when no explicit path is given.
var defaultPaths = []string{"config_private.yaml", "config.yaml"}

// Interpreter strategy names accepted by Config.Interpreter.Strategy.
const (
	StrategyRule  = "rule"
	StrategyModel = "model"
)

// Store backend names accepted by Config.Calendar.Store.
const (
	StoreMemory = "memory"
	StoreCalDAV = "caldav"
)

type Config struct {
	Interpreter InterpreterConfig `yaml:"interpreter"`
	LLM         LLMConfig         `yaml:"llm"`
	Calendar    CalendarConfig    `yaml:"calendar"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type InterpreterConfig struct {
	// Strategy selects the parsing path: "rule" or "model".
	Strategy string `yaml:"strategy"`
}

type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

type CalendarConfig struct {
	// Store selects the backend: "memory" or "caldav".
	Store          string        `yaml:"store"`
	ServerURL      string        `yaml:"server_url"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	DefaultName    string        `yaml:"default_calendar"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a runnable offline configuration: rule interpreter over
// the in-memory store.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file at path. With an empty path it tries
// config_private.yaml first, then config.yaml, and falls back to defaults
// when neither exists. Environment overrides apply last.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		for _, candidate := range defaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays CALAGENT_* environment variables so deployments can
// inject credentials without touching files.
func (c *Config) applyEnv() {
	setString(&c.Interpreter.Strategy, "CALAGENT_INTERPRETER_STRATEGY")
	setString(&c.LLM.Provider, "CALAGENT_LLM_PROVIDER")
	setString(&c.LLM.Model, "CALAGENT_LLM_MODEL")
	setString(&c.LLM.APIKey, "CALAGENT_LLM_API_KEY")
	setString(&c.LLM.BaseURL, "CALAGENT_LLM_BASE_URL")
	setString(&c.Calendar.Store, "CALAGENT_CALENDAR_STORE")
	setString(&c.Calendar.ServerURL, "CALAGENT_CALDAV_URL")
	setString(&c.Calendar.Username, "CALAGENT_CALDAV_USERNAME")
	setString(&c.Calendar.Password, "CALAGENT_CALDAV_PASSWORD")
	setString(&c.Logging.Level, "CALAGENT_LOG_LEVEL")
	setInt(&c.Server.Port, "CALAGENT_SERVER_PORT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Interpreter.Strategy == "" {
		c.Interpreter.Strategy = StrategyRule
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "deepseek"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "deepseek-chat"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	c.LLM.Timeout = time.Duration(c.LLM.TimeoutSeconds) * time.Second

	if c.Calendar.Store == "" {
		c.Calendar.Store = StoreMemory
	}
	if c.Calendar.TimeoutSeconds == 0 {
		c.Calendar.TimeoutSeconds = 30
	}
	c.Calendar.Timeout = time.Duration(c.Calendar.TimeoutSeconds) * time.Second

	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects combinations that cannot start.
func (c *Config) Validate() error {
	switch c.Interpreter.Strategy {
	case StrategyRule, StrategyModel:
	default:
		return fmt.Errorf("interpreter.strategy must be %q or %q, got %q",
			StrategyRule, StrategyModel, c.Interpreter.Strategy)
	}

	if c.Interpreter.Strategy == StrategyModel && c.LLM.APIKey == "" && c.LLM.Provider != "mock" {
		return fmt.Errorf("llm.api_key is required for the model interpreter strategy")
	}

	switch c.Calendar.Store {
	case StoreMemory:
	case StoreCalDAV:
		if c.Calendar.ServerURL == "" {
			return fmt.Errorf("calendar.server_url is required for the caldav store")
		}
		if c.Calendar.Username == "" || c.Calendar.Password == "" {
			return fmt.Errorf("calendar.username and calendar.password are required for the caldav store")
		}
	default:
		return fmt.Errorf("calendar.store must be %q or %q, got %q",
			StoreMemory, StoreCalDAV, c.Calendar.Store)
	}

	return nil
}
