// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders the session as a structured markdown document
// with a metadata frontmatter block and per-message headings.
type MarkdownExporter struct {
	// IncludeTimestamps adds per-message timestamps under each heading.
	IncludeTimestamps bool
}

// NewMarkdownExporter creates a markdown exporter with timestamps enabled.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{IncludeTimestamps: true}
}

// Export renders the session.
func (e *MarkdownExporter) Export(sess *model.Session) ([]byte, error) {
	if sess == nil || len(sess.Messages) == 0 {
		return nil, ErrEmptySession
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %s\n", escapeYAML(sess.Title))
	fmt.Fprintf(&sb, "model: %s\n", sess.Config.Model)
	fmt.Fprintf(&sb, "updated: %s\n", sess.LastModified.Format(time.RFC3339))
	fmt.Fprintf(&sb, "messages: %d\n", len(sess.Messages))
	fmt.Fprintf(&sb, "exported: %s\n", time.Now().Format(time.RFC3339))
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", sess.Title)

	for i := range sess.Messages {
		msg := &sess.Messages[i]
		fmt.Fprintf(&sb, "## %s\n\n", msg.Role.DisplayName())
		if e.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "*%s*\n\n", msg.Timestamp.Format("2006-01-02 15:04:05"))
		}
		sb.WriteString(msg.Text)
		sb.WriteString("\n\n")

		if msg.Grounding != nil && len(msg.Grounding.Sources) > 0 {
			sb.WriteString("**Sources:**\n\n")
			for _, src := range msg.Grounding.Sources {
				title := src.Title
				if title == "" {
					title = src.URI
				}
				fmt.Fprintf(&sb, "- [%s](%s)\n", title, src.URI)
			}
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the markdown extension.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the markdown MIME type.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// escapeYAML quotes a frontmatter value when it contains characters that
// would break the scalar.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#{}[]&*!|>'\"%@`\n") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
