// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"strings"

	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/model"
)

// StreamFunc performs one streaming generation call. It matches the
// signature of (*gemini.Client).StreamContent.
type StreamFunc func(
	ctx context.Context,
	prompt string,
	attachments []model.Attachment,
	history []model.Message,
	cfg model.ModelConfig,
	onChunk gemini.ChunkFunc,
	onMetadata gemini.MetadataFunc,
) (string, error)

// View is one single-purpose tool surface: a fixed model configuration and
// an optional output filter. Every Run is a stateless single-turn call;
// views carry no conversation history.
type View struct {
	Name    string
	Tagline string
	Config  model.ModelConfig

	// filter cleans streamed output before it reaches the caller. Nil
	// passes text through unchanged.
	filter func(string) string
}

// Run executes one turn against the view's fixed configuration. The chunk
// callback receives cumulative, filtered text.
func (v *View) Run(ctx context.Context, stream StreamFunc, prompt string, attachments []model.Attachment, onChunk func(string)) (string, error) {
	wrapped := gemini.ChunkFunc(nil)
	if onChunk != nil {
		wrapped = func(cumulative string) {
			onChunk(v.clean(cumulative))
		}
	}
	final, err := stream(ctx, prompt, attachments, nil, v.Config, wrapped, nil)
	if err != nil {
		return "", err
	}
	return v.clean(final), nil
}

func (v *View) clean(s string) string {
	if v.filter == nil {
		return s
	}
	return v.filter(s)
}

// stripFences removes markdown code fences the model sometimes adds
// despite instructions. Applied to the cumulative text on every chunk so a
// fence split across chunks still disappears once complete.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```html", "")
	return strings.ReplaceAll(s, "```", "")
}

// viewConfig builds a view configuration on top of the defaults.
func viewConfig(modelName, instruction string) model.ModelConfig {
	cfg := model.DefaultModelConfig()
	cfg.Model = modelName
	cfg.SystemInstruction = instruction
	return cfg
}
