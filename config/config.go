// Package config loads the explicit configuration object the rest of the
// application is handed at startup. Nothing here is read from ambient global
// state after Load returns.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
	DefaultModel     = "gpt-4o-mini"

	defaultMaxLoops          = 5
	defaultMaxDocumentBytes  = 256 * 1024
	defaultLLMTimeoutSeconds = 120
	defaultAuditDir          = "audit_trails"
)

// LLMConfig selects and authenticates the text-generation provider.
type LLMConfig struct {
	Provider  string `json:"provider,omitempty"` // openai, deepseek, mock
	Model     string `json:"model,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
}

// Config holds everything the server and the review loop need.
type Config struct {
	ServerAddr        string     `json:"server_addr,omitempty"`
	AuditDir          string     `json:"audit_dir,omitempty"`
	MaxLoops          int        `json:"max_loops,omitempty"`
	MaxDocumentBytes  int        `json:"max_document_bytes,omitempty"`
	LLMTimeoutSeconds int        `json:"llm_timeout_seconds,omitempty"`
	LLM               *LLMConfig `json:"llm,omitempty"`

	// Diagnostics collected while loading, surfaced in the log and the UI.
	Events []Event `json:"-"`
}

// Event is one startup diagnostic message.
type Event struct {
	Level   string `json:"level"` // info, warning, error
	Message string `json:"message"`
}

func (c *Config) recordEvent(level, message string) {
	c.Events = append(c.Events, Event{Level: level, Message: message})
}

// Warnings returns the non-info diagnostics, for display to the caller.
func (c *Config) Warnings() []Event {
	var out []Event
	for _, ev := range c.Events {
		if ev.Level != "info" {
			out = append(out, ev)
		}
	}
	return out
}

// Load reads the JSON config file (missing file → defaults), merges the
// credential from .env / the process environment, and runs the key sanity
// checks. A missing credential is a recorded warning here and a hard failure
// at first use, never a silent no-op.
func Load(path string) (Config, error) {
	cfg := Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			cfg.recordEvent("info", fmt.Sprintf("Loaded config from %s.", path))
		case errors.Is(err, os.ErrNotExist):
			cfg.recordEvent("info", fmt.Sprintf("Config file %s not found; using defaults.", path))
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()

	if err := godotenv.Load(); err == nil {
		cfg.recordEvent("info", "Loaded environment variables from .env.")
	} else if !errors.Is(err, os.ErrNotExist) {
		cfg.recordEvent("warning", fmt.Sprintf("Could not read .env file: %v", err))
	}

	cfg.resolveAPIKey()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.AuditDir == "" {
		c.AuditDir = defaultAuditDir
	}
	if c.MaxLoops == 0 {
		c.MaxLoops = defaultMaxLoops
	}
	if c.MaxDocumentBytes == 0 {
		c.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	if c.LLMTimeoutSeconds == 0 {
		c.LLMTimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM == nil {
		c.LLM = &LLMConfig{}
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = DefaultAPIKeyEnv
	}
}

// resolveAPIKey fills LLM.APIKey from the environment when the config file
// does not set it, then records the key sanity diagnostics.
func (c *Config) resolveAPIKey() {
	if c.LLM.Provider == "mock" {
		return
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv(c.LLM.APIKeyEnv)
	}

	key := c.LLM.APIKey
	if key == "" {
		c.recordEvent("warning", fmt.Sprintf(
			"%s is not set. Review requests will fail until it is configured.", c.LLM.APIKeyEnv))
		return
	}
	if strings.ContainsAny(key, "\r\n") {
		c.recordEvent("warning", fmt.Sprintf(
			"%s contains newline characters. Ensure the key is on a single line.", c.LLM.APIKeyEnv))
	}
	key = strings.TrimSpace(key)
	if key == "" {
		c.recordEvent("warning", fmt.Sprintf(
			"%s is defined but empty after trimming whitespace.", c.LLM.APIKeyEnv))
		c.LLM.APIKey = ""
		return
	}
	if c.LLM.Provider == "openai" && !strings.HasPrefix(key, "sk-") {
		c.recordEvent("warning", fmt.Sprintf(
			"%s does not start with 'sk-'. Double-check that the correct key was pasted.", c.LLM.APIKeyEnv))
	}
	if len(key) < 50 {
		c.recordEvent("warning", fmt.Sprintf(
			"%s looks shorter than expected. Confirm the entire key was copied.", c.LLM.APIKeyEnv))
	}
	c.LLM.APIKey = key
	c.recordEvent("info", fmt.Sprintf("Detected %s with length %d.", c.LLM.APIKeyEnv, len(key)))
}

func (c *Config) validate() error {
	if c.MaxLoops < 1 {
		return fmt.Errorf("max_loops must be at least 1, got %d", c.MaxLoops)
	}
	if c.MaxDocumentBytes < 1 {
		return fmt.Errorf("max_document_bytes must be positive, got %d", c.MaxDocumentBytes)
	}
	if c.LLMTimeoutSeconds < 1 {
		return fmt.Errorf("llm_timeout_seconds must be positive, got %d", c.LLMTimeoutSeconds)
	}
	switch c.LLM.Provider {
	case "openai", "mock":
	case "deepseek":
		if c.LLM.BaseURL == "" {
			return errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	return nil
}
