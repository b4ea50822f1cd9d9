// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// MaxFileSize is the largest file accepted as an inline attachment (20MB,
// the provider's inline-data ceiling).
const MaxFileSize = 20 * 1024 * 1024

var (
	// ErrFileTooLarge indicates the file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large for inline attachment")

	// ErrUnsupportedType indicates the MIME type could not be determined
	// or is not accepted by the provider.
	ErrUnsupportedType = errors.New("unsupported attachment type")
)

// FileError wraps an attachment failure with the offending path.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("attachment %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// acceptedPrefixes are the MIME families the provider accepts as inline
// parts.
var acceptedPrefixes = []string{
	"image/",
	"audio/",
	"video/",
	"text/",
	"application/pdf",
	"application/json",
}

// FromFile reads a file and packages it as an inline attachment. The MIME
// type comes from the extension first, content sniffing second. Oversized
// or unrecognizable files return a typed error; callers log it and skip
// the attachment.
func FromFile(path string) (model.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Attachment{}, &FileError{Path: path, Err: err}
	}
	if info.Size() > MaxFileSize {
		return model.Attachment{}, &FileError{Path: path, Err: ErrFileTooLarge}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Attachment{}, &FileError{Path: path, Err: err}
	}

	mimeType := detectMime(path, data)
	if !accepted(mimeType) {
		return model.Attachment{}, &FileError{Path: path, Err: ErrUnsupportedType}
	}

	return model.Attachment{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// detectMime resolves a MIME type from the extension, falling back to
// content sniffing for unregistered extensions.
func detectMime(path string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		// Strip any charset parameter; the provider wants the bare type.
		if i := strings.IndexByte(byExt, ';'); i >= 0 {
			byExt = strings.TrimSpace(byExt[:i])
		}
		return byExt
	}
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = strings.TrimSpace(sniffed[:i])
	}
	return sniffed
}

func accepted(mimeType string) bool {
	for _, prefix := range acceptedPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}
