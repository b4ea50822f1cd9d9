// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/model"
)

// fakeStream replays cumulative snapshots and returns the last as final.
func fakeStream(snapshots ...string) StreamFunc {
	return func(_ context.Context, _ string, _ []model.Attachment, _ []model.Message, _ model.ModelConfig, onChunk gemini.ChunkFunc, _ gemini.MetadataFunc) (string, error) {
		for _, s := range snapshots {
			if onChunk != nil {
				onChunk(s)
			}
		}
		if len(snapshots) == 0 {
			return "", nil
		}
		return snapshots[len(snapshots)-1], nil
	}
}

func TestCodeLabStripsFences(t *testing.T) {
	view := CodeLab()

	var seen []string
	final, err := view.Run(context.Background(), fakeStream(
		"```html\n<!DOCTYPE html>",
		"```html\n<!DOCTYPE html><html></html>\n```",
	), "a counter app", nil, func(s string) { seen = append(seen, s) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, s := range seen {
		if strings.Contains(s, "```") {
			t.Errorf("fence leaked into chunk: %q", s)
		}
	}
	if strings.Contains(final, "```") {
		t.Errorf("fence leaked into final: %q", final)
	}
	if !strings.Contains(final, "<!DOCTYPE html>") {
		t.Errorf("content lost during cleaning: %q", final)
	}
}

func TestCodeLabConfig(t *testing.T) {
	view := CodeLab()
	if view.Config.Model != model.ModelFlash {
		t.Errorf("model = %q", view.Config.Model)
	}
	if !strings.Contains(view.Config.SystemInstruction, "single-file HTML") {
		t.Error("instruction missing the single-file constraint")
	}
}

func TestSplitOptimized(t *testing.T) {
	tests := []struct {
		name        string
		full        string
		wantPrompt  string
		wantExplain string
	}{
		{
			name:        "complete response",
			full:        "Act as a historian.\n|||SEPARATOR|||\n- Added persona",
			wantPrompt:  "Act as a historian.",
			wantExplain: "- Added persona",
		},
		{
			name:       "partial before separator",
			full:       "Act as a hist",
			wantPrompt: "Act as a hist",
		},
		{
			name: "empty",
			full: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, explain := SplitOptimized(tt.full)
			if prompt != tt.wantPrompt || explain != tt.wantExplain {
				t.Errorf("got (%q, %q), want (%q, %q)", prompt, explain, tt.wantPrompt, tt.wantExplain)
			}
		})
	}
}

func TestVisionHubModes(t *testing.T) {
	for _, mode := range []VisionMode{VisionDescribe, VisionExtract, VisionAnalyze, VisionCode, VisionThreat} {
		view, prompt, err := VisionHub(mode)
		if err != nil {
			t.Fatalf("VisionHub(%s): %v", mode, err)
		}
		if view.Config.Model != model.ModelPro {
			t.Errorf("%s: model = %q, want pro", mode, view.Config.Model)
		}
		if prompt == "" {
			t.Errorf("%s: empty prompt", mode)
		}
	}

	// Threat mode swaps in the security-analyst instruction.
	threat, _, _ := VisionHub(VisionThreat)
	describe, _, _ := VisionHub(VisionDescribe)
	if threat.Config.SystemInstruction == describe.Config.SystemInstruction {
		t.Error("threat mode should carry its own instruction")
	}

	if _, _, err := VisionHub("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestDocPrompt(t *testing.T) {
	prompt, err := DocPrompt(DocSummary, "quarterly report text")
	if err != nil {
		t.Fatalf("DocPrompt: %v", err)
	}
	if !strings.Contains(prompt, "DOCUMENT:\nquarterly report text") {
		t.Errorf("document not folded into prompt: %q", prompt)
	}
	if !strings.HasPrefix(prompt, "Provide a comprehensive executive summary") {
		t.Errorf("mode prompt missing: %q", prompt)
	}

	if _, err := DocPrompt("bogus", "x"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestCyberModes(t *testing.T) {
	view, prompt, err := Cyber(CyberAudit, "eval(userInput)")
	if err != nil {
		t.Fatalf("Cyber: %v", err)
	}
	if view.Config.Model != model.ModelPro {
		t.Errorf("model = %q", view.Config.Model)
	}
	if view.Config.Temperature != 0.4 {
		t.Errorf("temperature = %v, want 0.4", view.Config.Temperature)
	}
	if !strings.Contains(prompt, "eval(userInput)") {
		t.Errorf("input not in prompt: %q", prompt)
	}

	if _, _, err := Cyber("payload", "x"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestBase64RoundTrip(t *testing.T) {
	enc := Base64Encode("hello, 世界")
	dec, err := Base64Decode(enc)
	if err != nil {
		t.Fatalf("Base64Decode: %v", err)
	}
	if dec != "hello, 世界" {
		t.Errorf("round trip = %q", dec)
	}

	if _, err := Base64Decode("!!not base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestURLRoundTrip(t *testing.T) {
	enc := URLEncode("a b&c=d")
	dec, err := URLDecode(enc)
	if err != nil {
		t.Fatalf("URLDecode: %v", err)
	}
	if dec != "a b&c=d" {
		t.Errorf("round trip = %q", dec)
	}

	if _, err := URLDecode("%zz"); err == nil {
		t.Error("expected error for invalid escape")
	}
}

func TestSHA256Hex(t *testing.T) {
	// Known vector.
	if got := SHA256Hex("abc"); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("SHA256Hex(abc) = %s", got)
	}
}

func TestHexDump(t *testing.T) {
	if got := HexDump("AB"); got != "41 42" {
		t.Errorf("HexDump = %q", got)
	}
	if got := HexDump(""); got != "" {
		t.Errorf("HexDump(empty) = %q", got)
	}
}

func TestDecodeJWT(t *testing.T) {
	// {"alg":"HS256","typ":"JWT"}.{"sub":"1234567890"} with a junk signature.
	token := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.c2ln"

	header, claims, err := DecodeJWT(token)
	if err != nil {
		t.Fatalf("DecodeJWT: %v", err)
	}
	if !strings.Contains(header, `"HS256"`) {
		t.Errorf("header = %s", header)
	}
	if !strings.Contains(claims, `"1234567890"`) {
		t.Errorf("claims = %s", claims)
	}

	if _, _, err := DecodeJWT("only.two"); err == nil {
		t.Error("expected error for malformed token")
	}
	if _, _, err := DecodeJWT("a.b.c"); err == nil {
		t.Error("expected error for non-JSON segments")
	}
}
