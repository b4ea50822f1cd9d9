// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements the local access gate: an optional passphrase
// (with optional TOTP second factor) that must be satisfied before the
// studio unlocks its sessions and credential.
package auth
