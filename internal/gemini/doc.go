// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements the streaming client for the Gemini
// generateContent API.
//
// The contract is a single call per turn: the request carries the mapped
// conversation history, the current prompt with its attachments, the
// sampling configuration, and a combined system instruction; the response
// is consumed as Server-Sent Events. Text increments are accumulated and
// delivered to the chunk callback as CUMULATIVE text (replace semantics),
// and grounding citations are delivered to the metadata callback as they
// arrive. Errors propagate to the caller unretried; the controller owns
// all recovery.
package gemini
