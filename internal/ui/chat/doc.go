// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat view: the Bubble Tea
// model, keyboard handling, conversation rendering, and the plumbing
// that moves streamed response text from the conversation controller
// into the render loop.
//
// Streaming is pull-based. The controller pushes each cumulative text
// snapshot into a StreamingBuffer; the view polls the buffer on a timer
// capped at 30fps and repaints only when the text advanced. Chunk
// arrival rate therefore never dictates render rate.
package chat
