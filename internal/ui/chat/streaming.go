// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// streamFrameInterval caps how often the streaming view re-renders.
// Chunks can arrive far faster than a terminal can usefully repaint;
// 30fps is indistinguishable from instant and keeps CPU flat.
const streamFrameInterval = 33 * time.Millisecond

// StreamingBuffer hands the latest cumulative response text from the
// streaming goroutine to the render loop. Each chunk replaces the whole
// buffered text, so a slow consumer only ever skips intermediate frames,
// never loses content.
type StreamingBuffer struct {
	mu    sync.Mutex
	text  string
	dirty bool

	lastFlush time.Time
}

// NewStreamingBuffer creates an empty buffer.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{}
}

// Set stores the latest cumulative text. Safe to call from any goroutine.
func (b *StreamingBuffer) Set(cumulative string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = cumulative
	b.dirty = true
}

// Take returns the latest text if a new snapshot is due, honoring the
// frame-rate cap. The second return reports whether the text advanced
// since the last Take.
func (b *StreamingBuffer) Take() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.dirty {
		return b.text, false
	}
	now := time.Now()
	if now.Sub(b.lastFlush) < streamFrameInterval {
		return b.text, false
	}
	b.lastFlush = now
	b.dirty = false
	return b.text, true
}

// Drain returns the latest text unconditionally and clears the dirty
// flag, ignoring the rate cap. For redraws outside the tick loop, like a
// resize, that need the current frame immediately.
func (b *StreamingBuffer) Drain() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirty = false
	b.lastFlush = time.Time{}
	return b.text
}

// Reset clears the buffer for a new turn.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = ""
	b.dirty = false
	b.lastFlush = time.Time{}
}

// streamTickCmd schedules the next render frame while streaming.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamFrameInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
