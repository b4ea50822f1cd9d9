// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/cipher-attack/cipher-studio/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message. The Gemini conversation format
// knows exactly two roles: "user" and "model".
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "Cipher"
	default:
		return string(r)
	}
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment is a user-selected file carried inside a message as inline
// data: a MIME type plus the base64-encoded payload. Attachments are
// immutable once created and are never shared between messages.
type Attachment struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// =============================================================================
// GROUNDING METADATA
// =============================================================================

// GroundingSource is one web citation returned by search grounding.
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundingMetadata holds the citation sources delivered alongside a
// generated answer when search augmentation produced them.
type GroundingMetadata struct {
	Sources []GroundingSource `json:"sources"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a session.
//
// A model message is "open" while its reply is still streaming. Open
// messages are always the last element of the history and their Text is
// overwritten wholesale on every chunk (the streaming client delivers
// cumulative text, not deltas). Finalize freezes the message.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	Attachments []Attachment       `json:"attachments,omitempty"`
	Pinned      bool               `json:"pinned,omitempty"`
	Grounding   *GroundingMetadata `json:"groundingMetadata,omitempty"`

	// Open marks a still-streaming model message. Not persisted: an open
	// message is either finalized or discarded before the session is saved.
	Open bool `json:"-"`
}

// NewUserMessage creates a user message carrying the given text and
// attachments.
func NewUserMessage(text string, attachments []Attachment) Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        RoleUser,
		Text:        text,
		Timestamp:   time.Now(),
		Attachments: attachments,
	}
}

// NewOpenModelMessage creates the empty placeholder model message that is
// appended when a turn starts streaming.
func NewOpenModelMessage() Message {
	return Message{
		Role:      RoleModel,
		Text:      "",
		Timestamp: time.Now(),
		Open:      true,
	}
}

// SetStreamText replaces the message text with the latest cumulative
// snapshot. Replace, not append: each callback carries the full text so
// far, so appending here would duplicate content.
func (m *Message) SetStreamText(cumulative string) {
	if m.Open {
		m.Text = cumulative
	}
}

// SetGrounding attaches citation metadata to an open message without
// touching previously applied text.
func (m *Message) SetGrounding(g GroundingMetadata) {
	if m.Open {
		m.Grounding = &g
	}
}

// Finalize closes a streaming message, assigning its permanent ID.
// After Finalize the text is immutable by convention.
func (m *Message) Finalize() {
	if !m.Open {
		return
	}
	m.Open = false
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
}

// IsEmpty reports whether the message carries neither text nor attachments.
func (m *Message) IsEmpty() bool {
	return m.Text == "" && len(m.Attachments) == 0
}

// Preview returns a truncated single-line preview of the message text.
// Rune-based truncation keeps multi-byte characters intact.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Text, maxLen)
}

// EstimateTokens gives a rough token estimate (~4 characters per token).
// Used for the context-size readout only, never for billing.
func (m *Message) EstimateTokens() int {
	return (len(m.Text) + 3) / 4
}
