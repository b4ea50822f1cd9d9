// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for cipher-studio.
//
// Configuration comes from ~/.cipherstudio/config.toml with environment
// variable overrides on top, falling back to built-in defaults when the
// file is absent.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete studio configuration.
type Config struct {
	// DefaultModel is the model new sessions start with.
	DefaultModel string `toml:"default_model"`

	Generation GenerationConfig `toml:"generation"`
	Provider   ProviderConfig   `toml:"provider"`
	UI         UIConfig         `toml:"ui"`
	Export     ExportConfig     `toml:"export"`
}

// GenerationConfig holds sampling defaults applied to new sessions.
type GenerationConfig struct {
	Temperature     float64 `toml:"temperature"`
	TopK            int     `toml:"top_k"`
	TopP            float64 `toml:"top_p"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
}

// ProviderConfig holds API endpoint settings.
type ProviderConfig struct {
	// BaseURL overrides the provider endpoint. Empty uses the default.
	BaseURL string `toml:"base_url"`
	// SafetyThreshold is the blocking threshold applied to all harm
	// categories: BLOCK_NONE, BLOCK_ONLY_HIGH, BLOCK_MEDIUM_AND_ABOVE,
	// BLOCK_LOW_AND_ABOVE.
	SafetyThreshold string `toml:"safety_threshold"`
	// SearchGrounding attaches the search tool to chat requests.
	SearchGrounding bool `toml:"search_grounding"`
}

// UIConfig holds appearance settings.
type UIConfig struct {
	// Theme is "dark" or "light".
	Theme string `toml:"theme"`
	// RenderMarkdown renders completed responses through glamour.
	RenderMarkdown bool `toml:"render_markdown"`
	// ShowTimestamps puts a send time next to each message label.
	ShowTimestamps bool `toml:"show_timestamps"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	// OutputDir is where exported files land. Empty means the current
	// working directory.
	OutputDir string `toml:"output_dir"`
	// Format is the default exporter: "transcript", "markdown", "json".
	Format string `toml:"format"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	gen := model.DefaultModelConfig()
	return &Config{
		DefaultModel: gen.Model,
		Generation: GenerationConfig{
			Temperature:     gen.Temperature,
			TopK:            gen.TopK,
			TopP:            gen.TopP,
			MaxOutputTokens: gen.MaxOutputTokens,
		},
		Provider: ProviderConfig{
			SafetyThreshold: "BLOCK_ONLY_HIGH",
			SearchGrounding: true,
		},
		UI: UIConfig{
			Theme:          "dark",
			RenderMarkdown: true,
		},
		Export: ExportConfig{
			Format: "transcript",
		},
	}
}

// BaseDir returns the studio's configuration directory.
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cipherstudio"), nil
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, applies environment overrides, and
// validates. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads a specific config file with overrides and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides layers CIPHER_* environment variables over the file.
func (c *Config) applyEnvOverrides() {
	if m := os.Getenv("CIPHER_MODEL"); m != "" {
		c.DefaultModel = m
	}
	if u := os.Getenv("CIPHER_BASE_URL"); u != "" {
		c.Provider.BaseURL = u
	}
	if s := os.Getenv("CIPHER_SAFETY"); s != "" {
		c.Provider.SafetyThreshold = s
	}
	if t := os.Getenv("CIPHER_THEME"); t != "" {
		c.UI.Theme = t
	}
	if g := os.Getenv("CIPHER_SEARCH"); g != "" {
		if v, err := strconv.ParseBool(g); err == nil {
			c.Provider.SearchGrounding = v
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var validThresholds = map[string]bool{
	"BLOCK_NONE":             true,
	"BLOCK_ONLY_HIGH":        true,
	"BLOCK_MEDIUM_AND_ABOVE": true,
	"BLOCK_LOW_AND_ABOVE":    true,
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []string

	if c.DefaultModel == "" {
		errs = append(errs, "default_model must not be empty")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("generation.temperature %v out of range [0, 2]", c.Generation.Temperature))
	}
	if c.Generation.TopP < 0 || c.Generation.TopP > 1 {
		errs = append(errs, fmt.Sprintf("generation.top_p %v out of range [0, 1]", c.Generation.TopP))
	}
	if c.Generation.TopK < 0 {
		errs = append(errs, "generation.top_k must not be negative")
	}
	if c.Generation.MaxOutputTokens <= 0 {
		errs = append(errs, "generation.max_output_tokens must be positive")
	}
	if !validThresholds[c.Provider.SafetyThreshold] {
		errs = append(errs, fmt.Sprintf("provider.safety_threshold %q is not a recognized threshold", c.Provider.SafetyThreshold))
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		errs = append(errs, fmt.Sprintf("ui.theme %q must be dark or light", c.UI.Theme))
	}
	switch c.Export.Format {
	case "transcript", "markdown", "json":
	default:
		errs = append(errs, fmt.Sprintf("export.format %q must be transcript, markdown, or json", c.Export.Format))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the config to its default location, creating the directory
// as needed.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the config as TOML to a specific path.
func SaveToPath(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ModelConfig builds the session model configuration this config
// describes.
func (c *Config) ModelConfig() model.ModelConfig {
	cfg := model.DefaultModelConfig()
	cfg.Model = c.DefaultModel
	cfg.Temperature = c.Generation.Temperature
	cfg.TopK = c.Generation.TopK
	cfg.TopP = c.Generation.TopP
	cfg.MaxOutputTokens = c.Generation.MaxOutputTokens
	return cfg
}
