// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// =============================================================================
// AI ANALYSIS MODES
// =============================================================================

// CyberMode selects the security analysis to run.
type CyberMode string

const (
	// CyberAudit performs static analysis of a code snippet.
	CyberAudit CyberMode = "audit"
	// CyberLogs scans log excerpts for indicators of compromise.
	CyberLogs CyberMode = "logs"
	// CyberHarden reviews a configuration or setup for hardening gaps.
	CyberHarden CyberMode = "harden"
)

const cyberBaseInstruction = "You are CIPHER CORE, a Blue Team Security Operations AI. You analyze, detect, and defend systems the user is authorized to work on; you do not produce exploit or attack tooling. "

var cyberInstructions = map[CyberMode]string{
	CyberAudit:  cyberBaseInstruction + "Perform a ruthless SAST (Static Analysis). Identify CVEs, Logic Bugs, and Insecure functions, and recommend fixes.",
	CyberLogs:   cyberBaseInstruction + "Analyze logs for IOCs (Indicators of Compromise), SQLi attempts, and Brute Force patterns.",
	CyberHarden: cyberBaseInstruction + "Review the provided configuration for hardening gaps: weak defaults, missing controls, exposure. Prioritize findings by impact.",
}

// Cyber builds the security-analysis view for a mode and returns the
// prompt wrapping the user's input. Analysis runs cooler than chat.
func Cyber(mode CyberMode, input string) (*View, string, error) {
	instruction, ok := cyberInstructions[mode]
	if !ok {
		return nil, "", fmt.Errorf("unknown cyber mode: %q", mode)
	}
	cfg := viewConfig(model.ModelPro, instruction)
	cfg.Temperature = 0.4

	var prompt string
	switch mode {
	case CyberAudit:
		prompt = "Audit this code snippet:\n" + input
	case CyberLogs:
		prompt = "Analyze these logs:\n" + input
	case CyberHarden:
		prompt = "Review this configuration for hardening gaps:\n" + input
	}

	return &View{
		Name:    "cyber",
		Tagline: "Security operations console.",
		Config:  cfg,
	}, prompt, nil
}

// =============================================================================
// LOCAL UTILITIES (no network)
// =============================================================================

// Base64Encode encodes the input as standard base64.
func Base64Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// Base64Decode decodes standard base64 input.
func Base64Decode(s string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid base64 input: %w", err)
	}
	return string(data), nil
}

// URLEncode percent-encodes the input as a query component.
func URLEncode(s string) string {
	return url.QueryEscape(s)
}

// URLDecode reverses percent-encoding.
func URLDecode(s string) (string, error) {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return "", fmt.Errorf("invalid url encoding: %w", err)
	}
	return out, nil
}

// SHA256Hex returns the hex SHA-256 digest of the input.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HexDump renders the input as space-separated hex bytes.
func HexDump(s string) string {
	var b strings.Builder
	for i, c := range []byte(s) {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}

// DecodeJWT splits a JWT and pretty-prints its header and claims. The
// signature is not verified; this is an inspection aid only.
func DecodeJWT(token string) (header, claims string, err error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("malformed token: expected 3 segments, got %d", len(parts))
	}
	header, err = decodeJWTSegment(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("header: %w", err)
	}
	claims, err = decodeJWTSegment(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("claims: %w", err)
	}
	return header, claims, nil
}

func decodeJWTSegment(seg string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return "", fmt.Errorf("invalid base64url segment: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", fmt.Errorf("segment is not JSON: %w", err)
	}
	return buf.String(), nil
}
