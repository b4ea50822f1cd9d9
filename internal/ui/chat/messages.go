// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cipher-attack/cipher-studio/internal/controller"
	"github.com/cipher-attack/cipher-studio/internal/model"
)

// =============================================================================
// STREAM MESSAGES
// =============================================================================

// StreamStartMsg signals that a turn has been accepted and streaming is
// beginning.
type StreamStartMsg struct {
	StartTime time.Time
}

// StreamCompleteMsg signals that the turn finished and the response is
// final in the session.
type StreamCompleteMsg struct {
	Duration time.Duration
}

// StreamErrorMsg signals that the turn failed. The user message survives
// in the session; the partial response does not.
type StreamErrorMsg struct {
	Err error
}

// StreamTickMsg drives the render loop while streaming.
type StreamTickMsg struct {
	Time time.Time
}

// HistoryChangedMsg signals that the current session's messages changed
// outside of streaming (pin toggles, session switches).
type HistoryChangedMsg struct{}

// SessionsChangedMsg signals that the session list changed.
type SessionsChangedMsg struct{}

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner executes turns off the Bubble Tea loop and reports their
// lifecycle back through program messages. The cumulative streamed text
// flows through the shared StreamingBuffer rather than per-chunk
// messages, so chunk arrival rate never floods the program mailbox.
type StreamRunner struct {
	program *tea.Program
	ctrl    *controller.Controller
	buffer  *StreamingBuffer
}

// NewStreamRunner wires a runner to the controller and buffer.
func NewStreamRunner(ctrl *controller.Controller, buffer *StreamingBuffer) *StreamRunner {
	r := &StreamRunner{ctrl: ctrl, buffer: buffer}
	ctrl.OnStreamText(buffer.Set)
	return r
}

// SetProgram attaches the Bubble Tea program. Must be called before Run.
func (r *StreamRunner) SetProgram(p *tea.Program) {
	r.program = p
}

// Run executes one turn in a goroutine and sends lifecycle messages.
func (r *StreamRunner) Run(ctx context.Context, prompt string, attachments []model.Attachment) {
	start := time.Now()
	r.buffer.Reset()
	r.program.Send(StreamStartMsg{StartTime: start})

	go func() {
		err := r.ctrl.Run(ctx, prompt, attachments)
		if err != nil {
			r.program.Send(StreamErrorMsg{Err: err})
			return
		}
		r.program.Send(StreamCompleteMsg{Duration: time.Since(start)})
	}()
}
