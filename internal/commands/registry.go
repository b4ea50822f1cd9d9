// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cipher-attack/cipher-studio/internal/auth"
	"github.com/cipher-attack/cipher-studio/internal/config"
	"github.com/cipher-attack/cipher-studio/internal/controller"
	"github.com/cipher-attack/cipher-studio/internal/store"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Context carries the application surfaces commands operate on.
type Context struct {
	Controller *controller.Controller
	Store      *store.Store
	Config     *config.Config
	Gate       *auth.Gate
	Version    string
}

// Command is one slash command.
type Command struct {
	// Name is the primary command name (e.g. "/help").
	Name string

	// Aliases are alternative names (e.g. "/h", "/?").
	Aliases []string

	// Description is shown in help and completion.
	Description string

	// Usage shows argument syntax (e.g. "/model <name>").
	Usage string

	// Handler executes the command.
	Handler func(ctx *Context, args []string) tea.Cmd
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns every registered command sorted by name.
func (r *Registry) All() []*Command {
	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new chat session",
		Usage:       "/new",
		Handler:     handleNew,
	})
	r.Register(&Command{
		Name:        "/sessions",
		Aliases:     []string{"/ls"},
		Description: "List sessions",
		Usage:       "/sessions",
		Handler:     handleSessions,
	})
	r.Register(&Command{
		Name:        "/load",
		Description: "Switch to a session by number or ID prefix",
		Usage:       "/load <session>",
		Handler:     handleLoad,
	})
	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/rm"},
		Description: "Delete a session (current if none given)",
		Usage:       "/delete [session]",
		Handler:     handleDelete,
	})
	r.Register(&Command{
		Name:        "/attach",
		Aliases:     []string{"/file"},
		Description: "Attach a file to your next message",
		Usage:       "/attach <file>",
		Handler:     handleAttach,
	})
	r.Register(&Command{
		Name:        "/export",
		Description: "Export the current session",
		Usage:       "/export [transcript|markdown|json]",
		Handler:     handleExport,
	})
	r.Register(&Command{
		Name:        "/pin",
		Description: "Toggle the pin on a message by number",
		Usage:       "/pin <message>",
		Handler:     handlePin,
	})
	r.Register(&Command{
		Name:        "/model",
		Description: "Show or set the session model",
		Usage:       "/model [name]",
		Handler:     handleModel,
	})
	r.Register(&Command{
		Name:        "/config",
		Description: "Show the session generation settings",
		Usage:       "/config",
		Handler:     handleConfig,
	})
	r.Register(&Command{
		Name:        "/key",
		Description: "Store the API key",
		Usage:       "/key <api-key>",
		Handler:     handleKey,
	})
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help",
		Handler:     handleHelp,
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Quit",
		Usage:       "/quit",
		Handler: func(*Context, []string) tea.Cmd {
			return tea.Quit
		},
	})
}
