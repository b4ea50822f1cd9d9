// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import "github.com/cipher-attack/cipher-studio/internal/model"

const codeLabInstruction = `You are an expert Frontend Developer.
The user wants you to build a single-file HTML application (HTML + CSS + JS).

RULES:
1. Return ONLY the raw HTML code. Do not wrap it in markdown blocks (like ` + "```html" + `).
2. The code must be a complete, working HTML file.
3. Use Tailwind CSS via CDN for styling if needed.
4. Make it look modern, clean, and professional.
5. Do not add explanations. Just the code.`

// CodeLab generates single-file HTML applications from a description.
// Fences are stripped from the streamed output in case the model adds
// them anyway.
func CodeLab() *View {
	return &View{
		Name:    "codelab",
		Tagline: "Generate and preview web apps instantly.",
		Config:  viewConfig(model.ModelFlash, codeLabInstruction),
		filter:  stripFences,
	}
}
