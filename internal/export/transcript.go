// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// =============================================================================
// TRANSCRIPT EXPORTER
// =============================================================================

// TranscriptExporter renders the session as a plain transcript: one
// `[ROLE]: text` block per message, blank-line separated. This is the
// default export format.
type TranscriptExporter struct{}

// NewTranscriptExporter creates a transcript exporter.
func NewTranscriptExporter() *TranscriptExporter {
	return &TranscriptExporter{}
}

// Export renders the transcript.
func (e *TranscriptExporter) Export(sess *model.Session) ([]byte, error) {
	if sess == nil || len(sess.Messages) == 0 {
		return nil, ErrEmptySession
	}

	blocks := make([]string, 0, len(sess.Messages))
	for i := range sess.Messages {
		msg := &sess.Messages[i]
		blocks = append(blocks, fmt.Sprintf("[%s]: %s", strings.ToUpper(msg.Role.String()), msg.Text))
	}
	return []byte(strings.Join(blocks, "\n\n")), nil
}

// FileExtension returns ".md"; transcripts open fine in markdown viewers.
func (e *TranscriptExporter) FileExtension() string { return ".md" }

// MimeType returns the transcript MIME type.
func (e *TranscriptExporter) MimeType() string { return "text/markdown" }
