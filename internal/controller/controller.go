// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/cipher-attack/cipher-studio/internal/gemini"
	"github.com/cipher-attack/cipher-studio/internal/model"
	"github.com/cipher-attack/cipher-studio/internal/store"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

var (
	// ErrTurnInFlight is returned when Run is called while a previous turn
	// has not finished.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrSessionNotFound is returned when a session ID does not resolve.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyPrompt is returned when Run is called with nothing to send.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// =============================================================================
// TURN STATE
// =============================================================================

// TurnState describes where the controller is in the lifecycle of one turn.
type TurnState int

const (
	// TurnIdle means no turn is in flight; Run may be called.
	TurnIdle TurnState = iota
	// TurnSubmitting covers the window between accepting a prompt and the
	// provider request going out.
	TurnSubmitting
	// TurnStreaming means a response is being received.
	TurnStreaming
)

func (s TurnState) String() string {
	switch s {
	case TurnSubmitting:
		return "submitting"
	case TurnStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// ContextWindow is the number of prior messages sent with each turn. The
// current prompt and the open placeholder are not counted.
const ContextWindow = 30

// StreamFunc performs one streaming generation call. It matches the
// signature of (*gemini.Client).StreamContent so the client method value
// can be used directly; tests substitute their own.
type StreamFunc func(
	ctx context.Context,
	prompt string,
	attachments []model.Attachment,
	history []model.Message,
	cfg model.ModelConfig,
	onChunk gemini.ChunkFunc,
	onMetadata gemini.MetadataFunc,
) (string, error)

// Controller owns the turn lifecycle for the current session: it appends
// the user message, manages the open placeholder while streaming, bounds
// the history sent to the provider, and persists through the store.
//
// At most one turn is in flight at a time. Run blocks for the duration of
// the turn; callers that need it off the UI loop run it in a goroutine and
// receive updates through the change callbacks.
type Controller struct {
	mu     sync.Mutex
	store  *store.Store
	stream StreamFunc
	state  TurnState

	// generation invalidates callbacks from abandoned turns. Each Run and
	// each session switch bumps it; a callback whose captured generation
	// no longer matches is dropped.
	generation uint64

	onHistoryChanged  func()
	onSessionsChanged func()
	onStreamText      func(cumulative string)
}

// New creates a controller over the given store and streaming function.
func New(st *store.Store, stream StreamFunc) *Controller {
	return &Controller{
		store:  st,
		stream: stream,
	}
}

// OnHistoryChanged registers a callback fired whenever the current
// session's message list changes, including once per streamed chunk. It is
// invoked without the controller lock held.
func (c *Controller) OnHistoryChanged(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHistoryChanged = fn
}

// OnSessionsChanged registers a callback fired when the session list or
// its metadata (titles, timestamps) changes.
func (c *Controller) OnSessionsChanged(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSessionsChanged = fn
}

// OnStreamText registers a callback receiving the cumulative streamed
// text of the in-flight response. Unlike OnHistoryChanged it carries the
// text itself, so receivers never have to read the mutating session.
func (c *Controller) OnStreamText(fn func(cumulative string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStreamText = fn
}

// State returns the current turn state.
func (c *Controller) State() TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the current session.
func (c *Controller) Current() *model.Session {
	return c.store.Current()
}

// Sessions returns all sessions, newest first.
func (c *Controller) Sessions() []*model.Session {
	return c.store.Sessions()
}

// HistorySnapshot returns a copy of the current session's finalized
// messages. The open streaming message is excluded; its text reaches the
// UI through the OnStreamText callback instead, so readers never touch a
// message another goroutine is writing.
func (c *Controller) HistorySnapshot() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := c.store.Current()
	if sess == nil {
		return nil
	}
	messages := sess.Messages
	if sess.OpenMessage() != nil {
		messages = messages[:len(messages)-1]
	}
	out := make([]model.Message, len(messages))
	copy(out, messages)
	return out
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

// Run executes one conversation turn and blocks until it completes or
// fails. The user message is persisted before the provider is contacted,
// so it survives a failed turn. On failure the open placeholder is removed
// and the error returned; the caller surfaces it.
func (c *Controller) Run(ctx context.Context, prompt string, attachments []model.Attachment) error {
	if prompt == "" && len(attachments) == 0 {
		return ErrEmptyPrompt
	}

	c.mu.Lock()
	if c.state != TurnIdle {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.state = TurnSubmitting
	c.generation++
	gen := c.generation

	sess := c.store.Current()
	firstTurn := sess.MessageCount() == 0

	sess.Messages = append(sess.Messages, model.NewUserMessage(prompt, attachments))
	if firstTurn {
		sess.DeriveTitle(prompt)
	}
	sess.Touch()

	// History excludes the message just appended; the prompt travels
	// separately as the final turn.
	history := boundedHistory(sess.Messages[:len(sess.Messages)-1])
	cfg := sess.Config

	sess.Messages = append(sess.Messages, model.NewOpenModelMessage())
	c.state = TurnStreaming
	c.mu.Unlock()

	// RELIABILITY: the user message is on disk before any network I/O.
	c.store.Persist()
	c.emitSessionsChanged()
	c.emitHistoryChanged()

	final, err := c.stream(ctx, prompt, attachments, history, cfg,
		c.chunkFunc(gen), c.metadataFunc(gen))

	c.mu.Lock()
	if gen != c.generation {
		// The turn was abandoned; abandonTurn already removed the
		// placeholder, and the result belongs to nobody now.
		c.mu.Unlock()
		return nil
	}
	defer c.emitHistoryChanged()

	if err != nil {
		if open := sess.OpenMessage(); open != nil {
			sess.Messages = sess.Messages[:len(sess.Messages)-1]
		}
		c.state = TurnIdle
		c.mu.Unlock()
		return err
	}

	if open := sess.OpenMessage(); open != nil {
		open.SetStreamText(final)
		open.Finalize()
	}
	sess.Touch()
	c.state = TurnIdle
	c.mu.Unlock()

	c.store.Persist()
	c.emitSessionsChanged()
	return nil
}

// chunkFunc builds the cumulative-text callback for one turn. Each call
// replaces the placeholder's text wholesale; stale generations are dropped.
func (c *Controller) chunkFunc(gen uint64) gemini.ChunkFunc {
	return func(cumulative string) {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		if open := c.store.Current().OpenMessage(); open != nil {
			open.SetStreamText(cumulative)
		}
		onText := c.onStreamText
		c.mu.Unlock()
		if onText != nil {
			onText(cumulative)
		}
		c.emitHistoryChanged()
	}
}

// metadataFunc builds the grounding callback for one turn. Metadata lands
// on the placeholder without touching its accumulated text.
func (c *Controller) metadataFunc(gen uint64) gemini.MetadataFunc {
	return func(meta model.GroundingMetadata) {
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		if open := c.store.Current().OpenMessage(); open != nil {
			open.SetGrounding(meta)
		}
		c.mu.Unlock()
		c.emitHistoryChanged()
	}
}

// boundedHistory returns the trailing ContextWindow messages, dropping any
// still-open placeholder.
func boundedHistory(messages []model.Message) []model.Message {
	closed := messages
	if n := len(closed); n > 0 && closed[n-1].Open {
		closed = closed[:n-1]
	}
	if len(closed) > ContextWindow {
		closed = closed[len(closed)-ContextWindow:]
	}
	return closed
}

// =============================================================================
// SESSION MANAGEMENT
// =============================================================================

// abandonTurn invalidates any turn in flight and removes its open
// placeholder from the session that owns it, so discarded partial output
// never re-enters history or reaches disk. Must run while the owning
// session is still current, before any store switch.
func (c *Controller) abandonTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.state == TurnIdle {
		return
	}
	if sess := c.store.Current(); sess != nil && sess.OpenMessage() != nil {
		sess.Messages = sess.Messages[:len(sess.Messages)-1]
	}
	c.state = TurnIdle
}

// NewSession creates a session, makes it current, and abandons any turn in
// flight on the previous one.
func (c *Controller) NewSession() *model.Session {
	c.abandonTurn()

	sess := c.store.Create()
	c.emitSessionsChanged()
	c.emitHistoryChanged()
	return sess
}

// SelectSession switches the current session. A turn in flight on the old
// session keeps running, but its callbacks are dropped and its partial
// output is discarded.
func (c *Controller) SelectSession(id string) error {
	if c.store.Get(id) == nil {
		return ErrSessionNotFound
	}
	c.abandonTurn()

	c.store.SetCurrent(id)
	c.emitSessionsChanged()
	c.emitHistoryChanged()
	return nil
}

// DeleteSession removes a session. Deleting the current session promotes
// the next one; the store never ends up empty.
func (c *Controller) DeleteSession(id string) error {
	if c.store.Get(id) == nil {
		return ErrSessionNotFound
	}
	c.abandonTurn()

	c.store.Delete(id)
	c.emitSessionsChanged()
	c.emitHistoryChanged()
	return nil
}

// TogglePin flips the pinned flag on a message in the current session and
// persists the change.
func (c *Controller) TogglePin(messageID string) error {
	c.mu.Lock()
	sess := c.store.Current()
	var found *model.Message
	for i := range sess.Messages {
		if sess.Messages[i].ID == messageID {
			found = &sess.Messages[i]
			break
		}
	}
	if found == nil {
		c.mu.Unlock()
		return ErrSessionNotFound
	}
	found.Pinned = !found.Pinned
	c.mu.Unlock()

	c.store.Persist()
	c.emitHistoryChanged()
	return nil
}

// UpdateConfig applies fn to the current session's model configuration and
// persists the result. Used by the /model and /config commands.
func (c *Controller) UpdateConfig(fn func(*model.ModelConfig)) {
	c.mu.Lock()
	sess := c.store.Current()
	fn(&sess.Config)
	sess.Touch()
	c.mu.Unlock()

	c.store.Persist()
	c.emitSessionsChanged()
}

// Flush forces any pending store write to disk. Called on shutdown.
func (c *Controller) Flush() error {
	return c.store.Flush()
}

func (c *Controller) emitHistoryChanged() {
	c.mu.Lock()
	fn := c.onHistoryChanged
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Controller) emitSessionsChanged() {
	c.mu.Lock()
	fn := c.onSessionsChanged
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
