// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// DocMode selects the document analysis to run.
type DocMode string

const (
	DocSummary  DocMode = "summary"
	DocAudit    DocMode = "audit"
	DocInsights DocMode = "insights"
)

const docIntelInstruction = "You are a Senior Document Analyst. Your output should be structured, professional, and incredibly detailed."

var docPrompts = map[DocMode]string{
	DocSummary:  "Provide a comprehensive executive summary of this document. Bullet points for key takeaways.",
	DocAudit:    "Audit this text. Find potential risks, contradictions, legal loopholes, or weak arguments.",
	DocInsights: "Extract hidden insights, patterns, and actionable intelligence from this text that might not be immediately obvious.",
}

// DocIntel builds the document-analysis view. The pro model handles the
// large contexts documents produce.
func DocIntel() *View {
	return &View{
		Name:    "docintel",
		Tagline: "Summaries, audits, and insights from documents.",
		Config:  viewConfig(model.ModelPro, docIntelInstruction),
	}
}

// DocPrompt folds the document text into the mode's request.
func DocPrompt(mode DocMode, docText string) (string, error) {
	prompt, ok := docPrompts[mode]
	if !ok {
		return "", fmt.Errorf("unknown document mode: %q", mode)
	}
	return prompt + "\n\nDOCUMENT:\n" + docText, nil
}
