// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult is the outcome of parsing one line of input.
type ParseResult struct {
	// IsCommand is true when the input starts with "/".
	IsCommand bool

	// Command is the matched command, nil when unknown.
	Command *Command

	// CommandName is the raw name as typed (e.g. "/help").
	CommandName string

	// Args are the parsed arguments.
	Args []string

	// Error is set when the name matched nothing.
	Error error
}

// =============================================================================
// PARSER
// =============================================================================

// Parser resolves slash input against a registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser over the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Registry returns the registry this parser resolves against.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// Parse splits one input line. Non-command input returns IsCommand=false
// and the caller treats it as a chat prompt.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	result := ParseResult{}

	if !strings.HasPrefix(input, "/") {
		return result
	}
	result.IsCommand = true

	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return result
	}
	result.CommandName = parts[0]
	result.Args = parts[1:]

	result.Command = p.registry.Get(result.CommandName)
	if result.Command == nil {
		result.Error = fmt.Errorf("unknown command: %s", result.CommandName)
	}
	return result
}

// splitCommandLine splits on whitespace, honoring double quotes so
// arguments can contain spaces.
func splitCommandLine(input string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case unicode.IsSpace(r) && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
