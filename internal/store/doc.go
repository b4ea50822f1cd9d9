// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists the session collection for cipher-studio.
//
// The durable boundary is a simple key-value layout under one directory:
// sessions.json holds the entire JSON-serialized session collection and
// credential holds the raw API key string. Every mutation rewrites the
// whole collection (last-write-wins, no merge); rapid successive writes
// are coalesced by a short debounce window. Malformed persisted data is
// treated as an empty store and never crashes startup.
package store
