// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"

	"github.com/cipher-attack/cipher-studio/internal/model"
)

const dataAnalystInstruction = `You are a Data Visualization Expert.
Your goal is to take raw text, CSV, or JSON data provided by the user and turn it into a beautiful, modern HTML Chart using Chart.js.

RULES:
1. Output a SINGLE HTML file containing the Chart.js CDN logic.
2. The design must be modern. Use a dark theme if specified, otherwise light.
3. Make the charts interactive and animated.
4. Do not include markdown ticks like ` + "```html" + `. Just return the raw HTML code.
5. Ensure the chart takes up the full width/height of the window.
6. Use nice colors (gradients if possible) that match a professional dashboard.`

// DataAnalyst turns raw data into a standalone Chart.js HTML page.
func DataAnalyst() *View {
	return &View{
		Name:    "dataanalyst",
		Tagline: "Visualize raw data as interactive charts.",
		Config:  viewConfig(model.ModelFlash, dataAnalystInstruction),
		filter:  stripFences,
	}
}

// VisualizationPrompt wraps the raw data and theme in the analyst's
// request template.
func VisualizationPrompt(data, theme string) string {
	return fmt.Sprintf("Create a visualization for this data. If the user didn't specify chart type, pick the best one: %s. Theme: %s", data, theme)
}
