// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools provides the studio's single-purpose tool views: code
// generation, prompt optimization, image analysis, data visualization,
// document analysis, and the security console. Each view is a stateless
// single-turn caller with a fixed model configuration; none of them touch
// session history.
package tools
