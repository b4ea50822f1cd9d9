// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for cipher-studio:
// atomic file writes used by the session store, and rune/width-aware
// string truncation used throughout the UI.
package util
