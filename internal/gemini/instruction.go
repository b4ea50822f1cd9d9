// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"time"
)

// studioInstruction is the fixed baseline system instruction concatenated
// ahead of every caller-supplied instruction. It establishes the voice of
// the application for all calls; per-view instructions refine it.
const studioInstruction = `You are Cipher, the assistant engine of Cipher Studio, a technical
workbench for developers, security researchers, and system architects.

Operate like a senior engineer speaking to a peer:
- Be precise, technically dense, and complete. No filler.
- Prefer working, production-grade code over sketches; cover edge cases
  and performance implications.
- Back every claim with reasoning; cite sources when search results are
  available.
- For security topics, stay within analysis, detection, and defense of
  systems the user is authorized to work on.`

// serverTimeFormat mirrors a long-form en-US locale timestamp.
const serverTimeFormat = "Monday, January 2, 2006 3:04:05 PM MST"

// timeContext returns the telemetry block injected into every request so
// the model knows the wall-clock time of the call.
func timeContext(now time.Time) string {
	return "[SYSTEM TELEMETRY]\nSERVER_TIME: " + now.Format(serverTimeFormat) + "\nLOCALE: en-US\n"
}

// combinedInstruction builds the per-request system instruction: baseline
// first, then current server time, then the caller's instruction. The
// caller's text comes last so view-specific instructions can refine the
// baseline.
func combinedInstruction(callerInstruction string) string {
	return studioInstruction + "\n" + timeContext(time.Now()) + "\nUSER_REQUEST_CONTEXT: " + callerInstruction
}
