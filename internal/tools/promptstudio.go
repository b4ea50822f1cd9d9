// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"strings"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// promptSeparator splits the optimized prompt from its explanation in the
// model's two-section response.
const promptSeparator = "|||SEPARATOR|||"

const promptStudioInstruction = `You are a World-Class Prompt Engineer. Your goal is to take a basic user input and transform it into a highly effective, structured prompt for an LLM.

OUTPUT FORMAT:
Return the response in two distinct sections separated by "` + promptSeparator + `".

Section 1: The Optimized Prompt (Ready to Copy). Use techniques like Persona adoption, Chain of Thought, and Clear Constraints.
Section 2: Brief explanation of what you changed and why (3-4 bullet points).

Do not use markdown blocks for the optimized prompt section, just raw text.`

// PromptStudio rewrites rough prompts into structured ones.
func PromptStudio() *View {
	return &View{
		Name:    "promptstudio",
		Tagline: "Turn rough ideas into structured prompts.",
		Config:  viewConfig(model.ModelFlash, promptStudioInstruction),
	}
}

// OptimizePrompt wraps the raw input in the studio's request template.
func OptimizePrompt(input string) string {
	return fmt.Sprintf("Optimize this prompt: %q", input)
}

// SplitOptimized separates the two response sections. Partial responses
// that have not reached the separator yet return everything as the prompt
// with an empty explanation, so the split is safe to apply per chunk.
func SplitOptimized(full string) (prompt, explanation string) {
	parts := strings.SplitN(full, promptSeparator, 2)
	prompt = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		explanation = strings.TrimSpace(parts[1])
	}
	return prompt, explanation
}
