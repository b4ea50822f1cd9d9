// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.ModelFlash, cfg.DefaultModel)
	assert.Equal(t, "BLOCK_ONLY_HIGH", cfg.Provider.SafetyThreshold)
	assert.True(t, cfg.Provider.SearchGrounding)
	assert.Equal(t, "dark", cfg.UI.Theme)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().DefaultModel, cfg.DefaultModel)
}

func TestLoadFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_model = "gemini-3-pro-preview"

[generation]
temperature = 0.5
top_k = 40
top_p = 0.9
max_output_tokens = 4096

[ui]
theme = "light"
`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, model.ModelPro, cfg.DefaultModel)
	assert.Equal(t, 0.5, cfg.Generation.Temperature)
	assert.Equal(t, "light", cfg.UI.Theme)
	// Unset sections keep defaults.
	assert.Equal(t, "BLOCK_ONLY_HIGH", cfg.Provider.SafetyThreshold)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CIPHER_MODEL", "gemini-flash-lite-latest")
	t.Setenv("CIPHER_THEME", "light")
	t.Setenv("CIPHER_SEARCH", "false")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, model.ModelFlashLite, cfg.DefaultModel)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.False(t, cfg.Provider.SearchGrounding)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.DefaultModel = "" }},
		{"temperature too high", func(c *Config) { c.Generation.Temperature = 3 }},
		{"negative top_k", func(c *Config) { c.Generation.TopK = -1 }},
		{"top_p out of range", func(c *Config) { c.Generation.TopP = 1.5 }},
		{"zero max tokens", func(c *Config) { c.Generation.MaxOutputTokens = 0 }},
		{"unknown threshold", func(c *Config) { c.Provider.SafetyThreshold = "BLOCK_EVERYTHING" }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }},
		{"unknown export format", func(c *Config) { c.Export.Format = "pdf" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultModel = model.ModelPro
	cfg.UI.Theme = "light"
	require.NoError(t, SaveToPath(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	back, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultModel, back.DefaultModel)
	assert.Equal(t, "light", back.UI.Theme)
}

func TestSaveRefusesInvalid(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "bogus"
	assert.Error(t, SaveToPath(cfg, filepath.Join(t.TempDir(), "config.toml")))
}

func TestModelConfig(t *testing.T) {
	cfg := Default()
	cfg.DefaultModel = model.ModelPro
	cfg.Generation.Temperature = 0.3

	mc := cfg.ModelConfig()
	assert.Equal(t, model.ModelPro, mc.Model)
	assert.Equal(t, 0.3, mc.Temperature)
	// System instruction comes from the model defaults, not the file.
	assert.Equal(t, model.DefaultModelConfig().SystemInstruction, mc.SystemInstruction)
}
