// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// ErrEmptySession is returned when there is nothing to export.
var ErrEmptySession = errors.New("session has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a session into one output format.
type Exporter interface {
	// Export renders the session and returns the file content.
	Export(sess *model.Session) ([]byte, error)

	// FileExtension returns the extension for the format (e.g. ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// Options configures where exported files land.
type Options struct {
	// OutputDir is the directory for exported files. Default: current
	// working directory.
	OutputDir string

	// Filename overrides the generated name. The exporter's extension is
	// appended if missing.
	Filename string
}

// ExportToFile renders the session and writes it to disk, returning the
// output path.
func ExportToFile(sess *model.Session, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = &Options{}
	}

	content, err := exporter.Export(sess)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := opts.Filename
	if filename == "" {
		filename = fmt.Sprintf("cipher-chat-%d%s", time.Now().UnixMilli(), exporter.FileExtension())
	} else if filepath.Ext(filename) == "" {
		filename += exporter.FileExtension()
	}
	filename = sanitizeFilename(filename)

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(dir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// sanitizeFilename replaces characters that are invalid in filenames on
// either Windows or Unix.
func sanitizeFilename(s string) string {
	const maxLen = 80
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out = append(out, '-')
		case ' ', '\t', '\n', '\r':
			out = append(out, '_')
		default:
			if r < 32 || r == 127 {
				out = append(out, '-')
			} else {
				out = append(out, r)
			}
		}
	}
	if len(out) == 0 {
		return "export"
	}
	return string(out)
}
