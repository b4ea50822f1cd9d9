// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRoutesCommands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args is TUI", []string{"cipher-studio"}, CmdTUI},
		{"tool", []string{"cipher-studio", "tool", "codelab"}, CmdTool},
		{"auth", []string{"cipher-studio", "auth", "status"}, CmdAuth},
		{"key", []string{"cipher-studio", "key"}, CmdKey},
		{"version", []string{"cipher-studio", "version"}, CmdVersion},
		{"version flag", []string{"cipher-studio", "--version"}, CmdVersion},
		{"help", []string{"cipher-studio", "help"}, CmdHelp},
		{"unknown falls through to TUI", []string{"cipher-studio", "-m", "x"}, CmdTUI},
	}

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.argv
			got, _ := Parse()
			if got != tt.want {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFlagsSplitsSubAndPositionals(t *testing.T) {
	args := parseFlags([]string{"vision", "describe", "-f", "a.png", "-m", "gemini-3-pro-preview", "what is this"})

	if args.Sub != "vision" {
		t.Errorf("Sub = %q, want %q", args.Sub, "vision")
	}
	if args.File != "a.png" {
		t.Errorf("File = %q", args.File)
	}
	if args.Model != "gemini-3-pro-preview" {
		t.Errorf("Model = %q", args.Model)
	}
	if len(args.Positional) != 2 {
		t.Fatalf("Positional = %v, want 2 entries", args.Positional)
	}
}

func TestParseFlagsPlain(t *testing.T) {
	args := parseFlags([]string{"codelab", "--plain", "snake game"})
	if !args.Plain {
		t.Error("Plain flag not set")
	}
}

func TestSplitMode(t *testing.T) {
	mode, rest := splitMode([]string{"audit", "some", "code"}, "describe")
	if mode != "audit" || rest != "some code" {
		t.Errorf("splitMode = %q, %q", mode, rest)
	}

	mode, rest = splitMode(nil, "describe")
	if mode != "describe" || rest != "" {
		t.Errorf("splitMode default = %q, %q", mode, rest)
	}
}

func TestReadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("contents"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := readTextFile(path)
	if err != nil {
		t.Fatalf("readTextFile: %v", err)
	}
	if got != "contents" {
		t.Errorf("readTextFile = %q", got)
	}

	if _, err := readTextFile(""); err == nil {
		t.Error("empty path should error")
	}
	if _, err := readTextFile(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing file should error")
	}
}

func TestHandleToolRejectsUnknownTool(t *testing.T) {
	err := handleToolResolveError(Args{Sub: "exploit"})
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("expected unknown tool error, got %v", err)
	}
}

// handleToolResolveError exercises tool resolution without network setup.
func handleToolResolveError(args Args) error {
	_, _, _, err := resolveTool(args)
	return err
}
