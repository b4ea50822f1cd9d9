// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/cipher-attack/cipher-studio/internal/util"
)

// =============================================================================
// MODEL CONFIGURATION
// =============================================================================

// Known Gemini model identifiers.
const (
	ModelFlash     = "gemini-2.5-flash"
	ModelPro       = "gemini-3-pro-preview"
	ModelFlashLite = "gemini-flash-lite-latest"
)

// ModelConfig is the per-session generation configuration. It is
// snapshotted into each session and may be edited live; edits apply to
// subsequent requests only.
type ModelConfig struct {
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	TopK              int     `json:"topK"`
	TopP              float64 `json:"topP"`
	MaxOutputTokens   int     `json:"maxOutputTokens"`
	SystemInstruction string  `json:"systemInstruction"`
}

// DefaultModelConfig returns the configuration new sessions start with.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:             ModelFlash,
		Temperature:       1.0,
		TopK:              64,
		TopP:              0.95,
		MaxOutputTokens:   8192,
		SystemInstruction: "You are a helpful and expert AI assistant.",
	}
}

// =============================================================================
// SESSION TYPE
// =============================================================================

// TitleMaxRunes bounds the session title derived from the first user
// message.
const TitleMaxRunes = 30

// DefaultTitle is the title of a session before its first turn.
const DefaultTitle = "New Chat"

// Session is one persisted conversation thread: its message history, its
// model configuration snapshot, and a last-modified timestamp. Sessions are
// owned by the store; the controller works on the current session's
// message list and writes results back through the store.
type Session struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Messages     []Message   `json:"history"`
	Config       ModelConfig `json:"config"`
	LastModified time.Time   `json:"lastModified"`
}

// NewSession creates an empty session with the default configuration.
func NewSession() *Session {
	return &Session{
		ID:           uuid.NewString(),
		Title:        DefaultTitle,
		Messages:     []Message{},
		Config:       DefaultModelConfig(),
		LastModified: time.Now(),
	}
}

// DeriveTitle sets the session title from the first user message: a fixed
// prefix of the message text, flattened to one line. Only called on the
// first turn.
func (s *Session) DeriveTitle(text string) {
	s.Title = util.TruncateRunesNoEllipsis(util.Flatten(text), TitleMaxRunes)
	if s.Title == "" {
		s.Title = DefaultTitle
	}
}

// Touch updates the last-modified timestamp.
func (s *Session) Touch() {
	s.LastModified = time.Now()
}

// OpenMessage returns the currently open (streaming) model message, or nil.
// Invariant: at most one message is open at a time and it is always the
// last element while open.
func (s *Session) OpenMessage() *Message {
	if n := len(s.Messages); n > 0 && s.Messages[n-1].Open {
		return &s.Messages[n-1]
	}
	return nil
}

// Preview returns a short preview of the first user message, for the
// session sidebar.
func (s *Session) Preview() string {
	for i := range s.Messages {
		if s.Messages[i].Role == RoleUser && s.Messages[i].Text != "" {
			return util.Flatten(s.Messages[i].Preview(80))
		}
	}
	return ""
}

// MessageCount returns the number of messages in the session.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}
