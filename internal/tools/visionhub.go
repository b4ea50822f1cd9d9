// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

// VisionMode selects what the vision analysis should produce.
type VisionMode string

const (
	VisionDescribe VisionMode = "describe"
	VisionExtract  VisionMode = "extract"
	VisionAnalyze  VisionMode = "analyze"
	VisionCode     VisionMode = "code"
	VisionThreat   VisionMode = "threat"
)

const visionInstruction = "You are an expert Computer Vision assistant."

const visionThreatInstruction = "You are a Cyber Security Image Analyst. Detect threats, phishing attempts, and sensitive data leakage."

var visionPrompts = map[VisionMode]string{
	VisionDescribe: "Describe this image in vivid detail. What is happening?",
	VisionExtract:  "Extract all visible text from this image exactly as it appears. Format it cleanly.",
	VisionAnalyze:  "Analyze this image professionally. Identify objects, artistic style, colors, and potential context.",
	VisionCode:     "Extract the code from this image. Return ONLY the valid code block, formatted correctly for the detected language.",
	VisionThreat:   "Perform a SECURITY AUDIT on this image. Identify: 1. Phishing indicators (URL mismatches, fake logos). 2. Sensitive data exposure (PII, Credentials). 3. Physical security risks (if a photo). Format as a Threat Report.",
}

// VisionHub builds the image-analysis view for a mode, returning the view
// and the mode's fixed prompt. The image travels as an attachment; the pro
// model handles vision input.
func VisionHub(mode VisionMode) (*View, string, error) {
	prompt, ok := visionPrompts[mode]
	if !ok {
		return nil, "", fmt.Errorf("unknown vision mode: %q", mode)
	}
	instruction := visionInstruction
	if mode == VisionThreat {
		instruction = visionThreatInstruction
	}
	return &View{
		Name:    "visionhub",
		Tagline: "Image understanding and extraction.",
		Config:  viewConfig(model.ModelPro, instruction),
	}, prompt, nil
}
