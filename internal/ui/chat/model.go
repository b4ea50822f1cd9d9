// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the interactive chat view.
package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/cipher-attack/cipher-studio/internal/commands"
	"github.com/cipher-attack/cipher-studio/internal/config"
	"github.com/cipher-attack/cipher-studio/internal/controller"
	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/model"
	"github.com/cipher-attack/cipher-studio/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the current mode of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streaming response
	StateError                  // Showing an error overlay
)

// errorView is the displayed form of a failed turn or command.
type errorView struct {
	Title   string
	Message string
	Tip     string
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme

	width  int
	height int

	ctrl   *controller.Controller
	runner *StreamRunner
	buffer *StreamingBuffer

	parser *commands.Parser
	cmdCtx *commands.Context

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	// Markdown rendering for finalized model messages. Rebuilt on resize
	// so word wrap tracks the terminal width. Nil disables markdown.
	markdown *glamour.TermRenderer

	// Streaming turn state
	streamText  string // latest cumulative response text
	streamStart time.Time
	cancelTurn  context.CancelFunc

	// Attachments staged by /attach, sent with the next submitted message.
	pendingAttachments []model.Attachment
	pendingNames       []string

	lastError *errorView
	statusMsg string

	// Overlay content shown instead of the conversation (help, session
	// list). Cleared on the next keypress.
	overlay string

	showTimestamps bool
}

// New creates the chat model. The command context carries everything the
// slash commands need; the runner owns turn execution.
func New(theme *styles.Theme, ctrl *controller.Controller, runner *StreamRunner, buffer *StreamingBuffer, cmdCtx *commands.Context, ui config.UIConfig) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "Message Cipher, or / for commands..."
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}
	sp.Style = theme.Spinner

	registry := commands.NewRegistry()

	m := Model{
		state:          StateReady,
		theme:          theme,
		ctrl:           ctrl,
		runner:         runner,
		buffer:         buffer,
		parser:         commands.NewParser(registry),
		cmdCtx:         cmdCtx,
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		keyMap:         DefaultKeyMap(),
		showTimestamps: ui.ShowTimestamps,
	}
	if ui.RenderMarkdown {
		m.markdown = newMarkdownRenderer(80)
	}
	m.refreshViewport()
	return m
}

// newMarkdownRenderer builds a glamour renderer for the given wrap width.
// Returns nil on failure; callers treat nil as plain text mode.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		return m.handleStreamStart(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case HistoryChangedMsg:
		m.refreshViewport()
		return m, nil

	case SessionsChangedMsg:
		return m, nil

	case commands.InfoMsg:
		m.statusMsg = msg.Text
		m.refreshViewport()
		return m, nil

	case commands.ErrorMsg:
		m.lastError = &errorView{Title: msg.Title, Message: msg.Message, Tip: msg.Tip}
		m.state = StateError
		return m, nil

	case commands.AttachmentStagedMsg:
		m.pendingAttachments = append(m.pendingAttachments, msg.Attachment)
		m.pendingNames = append(m.pendingNames, filepath.Base(msg.Path))
		m.statusMsg = fmt.Sprintf("attached %s", filepath.Base(msg.Path))
		return m, nil

	case commands.SessionListMsg:
		m.overlay = m.renderSessionList(msg.Sessions, msg.Current)
		return m, nil

	case commands.SessionSwitchedMsg:
		m.statusMsg = "switched session"
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case commands.HelpMsg:
		m.overlay = m.renderHelp()
		return m, nil

	case spinner.TickMsg:
		if m.state == StateStreaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 1
	footerHeight := 3
	m.viewport.Width = msg.Width
	m.viewport.Height = msg.Height - headerHeight - footerHeight
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.input.Width = msg.Width - 4

	if m.markdown != nil {
		wrap := msg.Width - 4
		if wrap < 20 {
			wrap = 20
		}
		m.markdown = newMarkdownRenderer(wrap)
	}

	// The resize redraw should carry the freshest frame, not wait out the
	// rate cap.
	if m.state == StateStreaming {
		m.streamText = m.buffer.Drain()
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any keypress clears a transient overlay.
	if m.overlay != "" {
		m.overlay = ""
		return m, nil
	}

	switch m.state {
	case StateError:
		switch msg.String() {
		case "esc", "enter":
			m.lastError = nil
			m.state = StateReady
			m.input.Focus()
			return m, textinput.Blink
		}
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}
		return m, nil

	case StateStreaming:
		switch {
		case key.Matches(msg, m.keyMap.Cancel):
			if m.cancelTurn != nil {
				m.cancelTurn()
			}
			return m, nil
		case key.Matches(msg, m.keyMap.Quit):
			if m.cancelTurn != nil {
				m.cancelTurn()
			}
			return m, tea.Quit
		}
		return m.handleScroll(msg)
	}

	// StateReady
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.NewChat):
		m.ctrl.NewSession()
		m.statusMsg = "new chat"
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.overlay = m.renderHelp()
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()
	}

	// Scroll keys that the input has no use for. Home/End stay with the
	// input for cursor movement.
	switch {
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleScroll routes navigation keys to the viewport while streaming.
func (m Model) handleScroll(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if mm, cmd, handled := m.tryScroll(msg); handled {
		return mm, cmd
	}
	return m, nil
}

// tryScroll applies a navigation key to the viewport, reporting whether
// the key was one.
func (m Model) tryScroll(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
	case key.Matches(msg, m.keyMap.Home):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keyMap.End):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
	default:
		return m, nil, false
	}
	return m, nil, true
}

// handleSubmit sends the input line: slash commands go to the registry,
// everything else starts a turn.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" && len(m.pendingAttachments) == 0 {
		return m, nil
	}
	m.input.Reset()
	m.statusMsg = ""

	result := m.parser.Parse(line)
	if line != "" && result.IsCommand {
		if result.Command == nil {
			message := "That is not a command."
			if result.Error != nil {
				message = result.Error.Error()
			}
			m.lastError = &errorView{
				Title:   "Unknown Command",
				Message: message,
				Tip:     "Type /help for the command list.",
			}
			m.state = StateError
			return m, nil
		}
		return m, result.Command.Handler(m.cmdCtx, result.Args)
	}

	atts := m.pendingAttachments
	m.pendingAttachments = nil
	m.pendingNames = nil

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelTurn = cancel
	m.runner.Run(ctx, line, atts)
	return m, nil
}

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	m.state = StateStreaming
	m.streamText = ""
	m.streamStart = msg.StartTime
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.spinner.Tick, streamTickCmd())
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	if text, changed := m.buffer.Take(); changed {
		m.streamText = text
		m.refreshViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	m.streamText = ""
	m.cancelTurn = nil
	m.buffer.Reset()
	m.statusMsg = fmt.Sprintf("responded in %.1fs", msg.Duration.Seconds())
	m.refreshViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	m.streamText = ""
	m.cancelTurn = nil
	m.buffer.Reset()

	// A user cancel is not an error worth an overlay.
	if errors.Is(msg.Err, context.Canceled) {
		m.state = StateReady
		m.statusMsg = "cancelled"
		m.refreshViewport()
		m.input.Focus()
		return m, textinput.Blink
	}

	ev := classifyError(msg.Err)
	m.lastError = &ev
	m.state = StateError
	m.refreshViewport()
	return m, nil
}

// classifyError maps provider and controller errors to a display form
// with an actionable tip.
func classifyError(err error) errorView {
	switch {
	case errors.Is(err, gemini.ErrNoCredential):
		return errorView{
			Title:   "No API Key",
			Message: "No Gemini API key is configured.",
			Tip:     "Set one with /key <api-key> or the GEMINI_API_KEY environment variable.",
		}
	case errors.Is(err, gemini.ErrAuthFailed):
		return errorView{
			Title:   "Authentication Failed",
			Message: "The service rejected the API key.",
			Tip:     "Check the key with /key, or generate a new one.",
		}
	case errors.Is(err, gemini.ErrRateLimited):
		return errorView{
			Title:   "Rate Limited",
			Message: "Too many requests. The service asked us to slow down.",
			Tip:     "Wait a moment and resend the message.",
		}
	case errors.Is(err, gemini.ErrModelNotFound):
		return errorView{
			Title:   "Model Not Found",
			Message: "The configured model is not available.",
			Tip:     "Switch models with /model.",
		}
	case errors.Is(err, gemini.ErrBlocked):
		return errorView{
			Title:   "Prompt Blocked",
			Message: "The service declined to answer this prompt.",
			Tip:     "Rephrase the message and try again.",
		}
	case errors.Is(err, controller.ErrTurnInFlight):
		return errorView{
			Title:   "Busy",
			Message: "A response is still streaming.",
			Tip:     "Wait for it to finish or press Esc to cancel.",
		}
	default:
		return errorView{
			Title:   "Request Failed",
			Message: err.Error(),
			Tip:     "The message was kept; resend it to retry.",
		}
	}
}
