package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "audit_trails", cfg.AuditDir)
	assert.Equal(t, 5, cfg.MaxLoops)
	assert.Equal(t, 256*1024, cfg.MaxDocumentBytes)
	assert.Equal(t, 120, cfg.LLMTimeoutSeconds)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
}

func TestLoadReadsFileValues(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "")
	path := writeConfig(t, `{
		"server_addr": ":9090",
		"max_loops": 3,
		"llm": {"provider": "mock"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, 3, cfg.MaxLoops)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	// Mock provider needs no credential, so no key warnings are raised.
	assert.Empty(t, cfg.Warnings())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "")

	tests := []struct {
		name string
		body string
	}{
		{"negative max_loops", `{"max_loops": -1}`},
		{"unknown provider", `{"llm": {"provider": "carrier-pigeon"}}`},
		{"deepseek without base_url", `{"llm": {"provider": "deepseek"}}`},
		{"malformed json", `{"max_loops": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingKeyIsAWarningNotAnError(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.LLM.APIKey)

	warnings := cfg.Warnings()
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].Message, "OPENAI_API_KEY is not set")
}

func TestLoadKeyDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		contains []string
	}{
		{
			name:     "short key without prefix",
			key:      "oops",
			contains: []string{"does not start with 'sk-'", "shorter than expected"},
		},
		{
			name:     "key with embedded newline",
			key:      "sk-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\nbbb",
			contains: []string{"newline characters"},
		},
		{
			name:     "whitespace-only key",
			key:      "   ",
			contains: []string{"empty after trimming"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(DefaultAPIKeyEnv, tt.key)
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
			require.NoError(t, err)

			var messages []string
			for _, ev := range cfg.Warnings() {
				messages = append(messages, ev.Message)
			}
			joined := ""
			for _, m := range messages {
				joined += m + "\n"
			}
			for _, want := range tt.contains {
				assert.Contains(t, joined, want)
			}
		})
	}
}

func TestLoadHealthyKeyRaisesNoWarnings(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "sk-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Warnings())
	assert.NotEmpty(t, cfg.LLM.APIKey)
}

func TestLoadConfigFileKeyWinsOverEnvironment(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "sk-from-environment-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	path := writeConfig(t, `{"llm": {"api_key": "sk-from-file-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", cfg.LLM.APIKey)
}

func TestLoadCustomAPIKeyEnv(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "")
	t.Setenv("DEEPSEEK_API_KEY", "ds-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	path := writeConfig(t, `{
		"llm": {
			"provider": "deepseek",
			"base_url": "https://api.deepseek.com",
			"api_key_env": "DEEPSEEK_API_KEY"
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ds-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", cfg.LLM.APIKey)
	// Non-openai providers skip the sk- prefix check.
	assert.Empty(t, cfg.Warnings())
}
