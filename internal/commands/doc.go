// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system: a registry of
// built-in commands, a quote-aware parser, and handlers that operate on
// the controller and store, reporting results as Bubble Tea messages.
package commands
