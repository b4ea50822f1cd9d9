// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cipher-attack/cipher-studio/internal/attach"
	"github.com/cipher-attack/cipher-studio/internal/export"
	"github.com/cipher-attack/cipher-studio/internal/model"
)

// =============================================================================
// RESULT MESSAGES
// =============================================================================

// InfoMsg carries a one-line status result back to the UI.
type InfoMsg struct {
	Text string
}

// ErrorMsg carries a command failure back to the UI.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// SessionListMsg carries the session list for display.
type SessionListMsg struct {
	Sessions []*model.Session
	Current  string
}

// SessionSwitchedMsg signals the UI to re-render the new current session.
type SessionSwitchedMsg struct {
	SessionID string
}

// AttachmentStagedMsg carries a file attachment staged for the next turn.
type AttachmentStagedMsg struct {
	Attachment model.Attachment
	Path       string
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleNew(ctx *Context, _ []string) tea.Cmd {
	return func() tea.Msg {
		sess := ctx.Controller.NewSession()
		return SessionSwitchedMsg{SessionID: sess.ID}
	}
}

func handleSessions(ctx *Context, _ []string) tea.Cmd {
	return func() tea.Msg {
		msg := SessionListMsg{Sessions: ctx.Controller.Sessions()}
		if cur := ctx.Controller.Current(); cur != nil {
			msg.Current = cur.ID
		}
		return msg
	}
}

func handleLoad(ctx *Context, args []string) tea.Cmd {
	if len(args) != 1 {
		return usageError("/load <session>", "give a session number from /sessions or an ID prefix")
	}
	return func() tea.Msg {
		sess := resolveSession(ctx, args[0])
		if sess == nil {
			return ErrorMsg{Title: "Session not found", Message: args[0], Tip: "Run /sessions to list them"}
		}
		if err := ctx.Controller.SelectSession(sess.ID); err != nil {
			return ErrorMsg{Title: "Switch failed", Message: err.Error()}
		}
		return SessionSwitchedMsg{SessionID: sess.ID}
	}
}

func handleDelete(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		target := ctx.Controller.Current()
		if len(args) == 1 {
			target = resolveSession(ctx, args[0])
		}
		if target == nil {
			return ErrorMsg{Title: "Session not found", Message: strings.Join(args, " ")}
		}
		title := target.Title
		if err := ctx.Controller.DeleteSession(target.ID); err != nil {
			return ErrorMsg{Title: "Delete failed", Message: err.Error()}
		}
		return InfoMsg{Text: fmt.Sprintf("Deleted %q", title)}
	}
}

func handleAttach(_ *Context, args []string) tea.Cmd {
	if len(args) != 1 {
		return usageError("/attach <file>", "the file is sent with your next message")
	}
	path := args[0]
	return func() tea.Msg {
		att, err := attach.FromFile(path)
		if err != nil {
			return ErrorMsg{Title: "Attach failed", Message: err.Error()}
		}
		return AttachmentStagedMsg{Attachment: att, Path: path}
	}
}

func handleExport(ctx *Context, args []string) tea.Cmd {
	format := ctx.Config.Export.Format
	if len(args) == 1 {
		format = args[0]
	}

	var exporter export.Exporter
	switch format {
	case "transcript", "":
		exporter = export.NewTranscriptExporter()
	case "markdown", "md":
		exporter = export.NewMarkdownExporter()
	case "json":
		exporter = export.NewJSONExporter()
	default:
		return usageError("/export [transcript|markdown|json]", fmt.Sprintf("unknown format %q", format))
	}

	return func() tea.Msg {
		path, err := export.ExportToFile(ctx.Controller.Current(), exporter, &export.Options{
			OutputDir: ctx.Config.Export.OutputDir,
		})
		if err != nil {
			return ErrorMsg{Title: "Export failed", Message: err.Error()}
		}
		return InfoMsg{Text: "Exported to " + path}
	}
}

func handlePin(ctx *Context, args []string) tea.Cmd {
	if len(args) != 1 {
		return usageError("/pin <message>", "message numbers start at 1")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return usageError("/pin <message>", "message numbers start at 1")
	}
	return func() tea.Msg {
		sess := ctx.Controller.Current()
		if sess == nil || n < 1 || n > len(sess.Messages) {
			return ErrorMsg{Title: "No such message", Message: args[0]}
		}
		msg := &sess.Messages[n-1]
		if err := ctx.Controller.TogglePin(msg.ID); err != nil {
			return ErrorMsg{Title: "Pin failed", Message: err.Error()}
		}
		state := "Pinned"
		if !msg.Pinned {
			state = "Unpinned"
		}
		return InfoMsg{Text: fmt.Sprintf("%s message %d", state, n)}
	}
}

func handleModel(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		sess := ctx.Controller.Current()
		if len(args) == 0 {
			return InfoMsg{Text: "Model: " + sess.Config.Model}
		}
		name := args[0]
		ctx.Controller.UpdateConfig(func(cfg *model.ModelConfig) {
			cfg.Model = name
		})
		return InfoMsg{Text: "Model set to " + name}
	}
}

func handleConfig(ctx *Context, _ []string) tea.Cmd {
	return func() tea.Msg {
		sess := ctx.Controller.Current()
		cfg := sess.Config
		tokens := 0
		for i := range sess.Messages {
			tokens += sess.Messages[i].EstimateTokens()
		}
		return InfoMsg{Text: fmt.Sprintf(
			"model=%s temperature=%.2f topK=%d topP=%.2f maxOutputTokens=%d context~%d tokens",
			cfg.Model, cfg.Temperature, cfg.TopK, cfg.TopP, cfg.MaxOutputTokens, tokens,
		)}
	}
}

func handleKey(ctx *Context, args []string) tea.Cmd {
	if len(args) != 1 {
		return usageError("/key <api-key>", "the key is stored locally, owner-readable only")
	}
	return func() tea.Msg {
		if err := ctx.Store.SetCredential(args[0]); err != nil {
			return ErrorMsg{Title: "Could not store key", Message: err.Error()}
		}
		return InfoMsg{Text: "API key stored"}
	}
}

func handleHelp(_ *Context, _ []string) tea.Cmd {
	// The registry renders its own listing; the UI shows it in the
	// viewport.
	return func() tea.Msg {
		return HelpMsg{}
	}
}

// HelpMsg asks the UI to display the command listing.
type HelpMsg struct{}

// HelpText renders the command table for display.
func (r *Registry) HelpText() string {
	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, cmd := range r.All() {
		fmt.Fprintf(&sb, "  %-36s %s\n", cmd.Usage, cmd.Description)
	}
	return sb.String()
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveSession matches a session by 1-based list position, exact ID, or
// unique ID prefix.
func resolveSession(ctx *Context, ref string) *model.Session {
	sessions := ctx.Controller.Sessions()

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1]
	}

	var match *model.Session
	for _, sess := range sessions {
		if sess.ID == ref {
			return sess
		}
		if strings.HasPrefix(sess.ID, ref) {
			if match != nil {
				return nil // ambiguous prefix
			}
			match = sess
		}
	}
	return match
}

func usageError(usage, tip string) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Title: "Usage: " + usage, Tip: tip}
	}
}
