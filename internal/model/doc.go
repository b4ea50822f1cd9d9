// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared across cipher-studio:
// sessions, messages, attachments, grounding metadata, and the per-session
// generation configuration.
//
// The streaming life cycle of a model message is:
//
//	NewOpenModelMessage -> SetStreamText* / SetGrounding* -> Finalize
//
// SetStreamText carries cumulative text (replace semantics). A message that
// never finalizes is discarded by the controller, so open messages are
// never persisted.
package model
