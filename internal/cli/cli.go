// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-interactive command surface: one-shot
// tool runs, credential and auth management, and argument parsing for
// the main binary.
package cli

import (
	"os"
	"strings"
)

// Version information, synced from main at startup.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMAND ROUTING
// =============================================================================

// Command identifies which subcommand was invoked.
type Command int

const (
	CmdTUI Command = iota
	CmdTool
	CmdAuth
	CmdKey
	CmdVersion
	CmdHelp
)

// Args carries the parsed command line.
type Args struct {
	// Sub is the first argument after the command name (tool name, auth
	// action).
	Sub string

	// Positional arguments after Sub.
	Positional []string

	// File is the -f/--file flag value.
	File string

	// Model is the -m/--model flag value.
	Model string

	// Plain disables markdown rendering of one-shot output.
	Plain bool
}

// Parse reads os.Args and routes to a command. No arguments means the
// interactive TUI.
func Parse() (Command, Args) {
	argv := os.Args[1:]
	if len(argv) == 0 {
		return CmdTUI, Args{}
	}

	cmd := CmdTUI
	switch argv[0] {
	case "tool":
		cmd = CmdTool
	case "auth":
		cmd = CmdAuth
	case "key":
		cmd = CmdKey
	case "version", "--version", "-v":
		return CmdVersion, Args{}
	case "help", "--help", "-h":
		return CmdHelp, Args{}
	default:
		return CmdTUI, parseFlags(argv)
	}

	args := parseFlags(argv[1:])
	return cmd, args
}

// parseFlags splits flags from positional arguments. The first
// positional becomes Sub.
func parseFlags(argv []string) Args {
	var args Args
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "-f" || a == "--file":
			if i+1 < len(argv) {
				i++
				args.File = argv[i]
			}
		case a == "-m" || a == "--model":
			if i+1 < len(argv) {
				i++
				args.Model = argv[i]
			}
		case a == "--plain":
			args.Plain = true
		case strings.HasPrefix(a, "-"):
			// Unknown flag, ignored.
		case args.Sub == "":
			args.Sub = a
		default:
			args.Positional = append(args.Positional, a)
		}
	}
	return args
}
