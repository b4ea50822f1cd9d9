// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components holds rendering helpers shared by the TUI views:
// currently the chroma-backed code block renderer used while responses
// are streaming.
package components
