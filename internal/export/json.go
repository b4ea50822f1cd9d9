// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the complete session structure. The output matches
// the on-disk session format and can be re-imported.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export marshals the full session.
func (e *JSONExporter) Export(sess *model.Session) ([]byte, error) {
	if sess == nil || len(sess.Messages) == 0 {
		return nil, ErrEmptySession
	}
	return json.MarshalIndent(sess, "", "  ")
}

// FileExtension returns the JSON extension.
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the JSON MIME type.
func (e *JSONExporter) MimeType() string { return "application/json" }
