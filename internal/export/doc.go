// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders sessions to files: plain transcripts, structured
// markdown, and re-importable JSON.
package export
