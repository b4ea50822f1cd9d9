// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller drives conversation turns: one user prompt in, one
// streamed model response out, with the session store kept consistent at
// every step.
//
// The controller enforces a single-turn-in-flight discipline, bounds the
// history window sent to the provider, derives session titles on the first
// turn, and guards against callbacks from abandoned turns with a
// generation counter.
package controller
