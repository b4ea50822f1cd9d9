// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cipher-attack/cipher-studio/internal/model"
	"github.com/cipher-attack/cipher-studio/internal/ui/components"
	"github.com/cipher-attack/cipher-studio/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat view.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.overlay != "" {
		b.WriteString(m.renderOverlay())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if m.state == StateError && m.lastError != nil {
		b.WriteString(m.renderError())
		b.WriteString("\n")
	}

	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

// =============================================================================
// HEADER AND STATUS BAR
// =============================================================================

func (m Model) renderHeader() string {
	title := "CIPHER STUDIO"
	if sess := m.ctrl.Current(); sess != nil && sess.Title != model.DefaultTitle {
		title = "CIPHER STUDIO / " + sess.Title
	}
	header := m.theme.HeaderTitle.Render(util.TruncateWidth(title, m.width-2))
	return m.theme.Header.Width(m.width).Render(header)
}

func (m Model) renderStatusBar() string {
	var parts []string

	modelName := ""
	if sess := m.ctrl.Current(); sess != nil {
		modelName = sess.Config.Model
	}
	parts = append(parts,
		m.theme.StatusKey.Render("model")+" "+m.theme.StatusValue.Render(modelName))

	if len(m.pendingNames) > 0 {
		parts = append(parts,
			m.theme.StatusKey.Render("attached")+" "+m.theme.StatusValue.Render(strings.Join(m.pendingNames, ", ")))
	}

	switch m.state {
	case StateStreaming:
		parts = append(parts, m.spinner.View()+" "+m.theme.ThinkingText.Render("thinking"))
	case StateError:
		parts = append(parts, m.theme.ErrorTitle.Render("error"))
	default:
		if m.statusMsg != "" {
			parts = append(parts, m.theme.InfoText.Render(m.statusMsg))
		}
	}

	help := make([]string, 0, 4)
	for _, binding := range m.keyMap.ShortHelp() {
		h := binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	parts = append(parts, m.theme.StatusKey.Render(strings.Join(help, " | ")))

	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "   "))
}

// =============================================================================
// CONVERSATION RENDERING
// =============================================================================

// refreshViewport rebuilds the conversation content. Called on every
// history mutation and on each streaming frame.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
}

func (m Model) renderConversation() string {
	history := m.ctrl.HistorySnapshot()

	if len(history) == 0 && m.state != StateStreaming {
		return m.renderWelcome()
	}

	var sections []string
	for i := range history {
		sections = append(sections, m.renderMessage(&history[i]))
	}

	if m.state == StateStreaming {
		sections = append(sections, m.renderStreamingMessage())
	}

	return strings.Join(sections, "\n\n")
}

func (m Model) renderWelcome() string {
	lines := []string{
		"",
		m.theme.HeaderTitle.Render("Welcome to Cipher Studio."),
		"",
		m.theme.InfoText.Render("Type a message to start, or /help for commands."),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMessage(msg *model.Message) string {
	var label, body string

	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
		body = m.theme.UserText.Width(m.contentWidth()).Render(msg.Text)
	default:
		label = m.theme.ModelLabel.Render(msg.Role.DisplayName())
		body = m.theme.ModelText.Width(m.contentWidth()).Render(m.renderModelText(msg.Text))
	}

	if msg.Pinned {
		label = m.theme.PinMarker.Render("* ") + label
	}
	if m.showTimestamps && !msg.Timestamp.IsZero() {
		label += " " + m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	}

	out := label + "\n" + body

	if msg.Grounding != nil && len(msg.Grounding.Sources) > 0 {
		out += "\n" + m.renderSources(msg.Grounding.Sources)
	}
	return out
}

// renderModelText runs a finalized response through the markdown
// renderer. Falls back to the raw text when rendering is off.
func (m Model) renderModelText(text string) string {
	if m.markdown == nil {
		return text
	}
	rendered, err := m.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

// renderStreamingMessage shows the in-flight response. Markdown is too
// expensive per frame, so only fenced code blocks get highlighting here;
// the full render happens once the message finalizes.
func (m Model) renderStreamingMessage() string {
	label := m.theme.ModelLabel.Render(model.RoleModel.DisplayName())
	text := m.streamText
	if text == "" {
		return label + "\n" + m.theme.ThinkingText.Render("...")
	}
	body := components.RenderFencedBlocks(text, m.contentWidth())
	return label + "\n" + m.theme.ModelText.Width(m.contentWidth()).Render(body)
}

func (m Model) renderSources(sources []model.GroundingSource) string {
	var b strings.Builder
	b.WriteString(m.theme.SourceHeader.Render("Sources"))
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = src.URI
		}
		b.WriteString("\n")
		b.WriteString(m.theme.SourceLink.Render(fmt.Sprintf("  [%d] %s", i+1, title)))
	}
	return b.String()
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) renderOverlay() string {
	content := m.overlay + "\n\n" + m.theme.InfoText.Render("Press any key to close.")
	box := lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Left, lipgloss.Top, box)
}

func (m Model) renderSessionList(sessions []*model.Session, current string) string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Sessions"))
	b.WriteString("\n")

	for i, sess := range sessions {
		line := fmt.Sprintf("%2d. %s", i+1, sess.Title)
		meta := fmt.Sprintf("  %d messages, %s",
			sess.MessageCount(), sess.LastModified.Format("Jan 2 15:04"))

		if sess.ID == current {
			b.WriteString("\n" + m.theme.SessionCurrent.Render("> "+line))
		} else {
			b.WriteString("\n" + m.theme.SessionItem.Render("  "+line))
		}
		b.WriteString(m.theme.SessionMeta.Render(meta))
		if preview := sess.Preview(); preview != "" {
			b.WriteString("\n" + m.theme.SessionMeta.Render("      "+util.TruncateWidth(preview, m.width-10)))
		}
	}
	return b.String()
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Commands"))
	b.WriteString("\n\n")
	b.WriteString(m.parser.Registry().HelpText())
	b.WriteString("\n")
	b.WriteString(m.theme.HeaderTitle.Render("Keys"))

	for _, group := range m.keyMap.FullHelp() {
		b.WriteString("\n")
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-12s %s\n", h.Key, h.Desc))
		}
	}
	return b.String()
}

func (m Model) renderError() string {
	ev := m.lastError
	content := m.theme.ErrorTitle.Render(ev.Title) + "\n" +
		m.theme.ErrorMessage.Render(ev.Message)
	if ev.Tip != "" {
		content += "\n" + m.theme.ErrorTip.Render(ev.Tip)
	}
	content += "\n" + m.theme.InfoText.Render("Esc to dismiss")
	return m.theme.ErrorBox.Width(m.contentWidth()).Render(content)
}

// =============================================================================
// INPUT
// =============================================================================

func (m Model) renderInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	return m.theme.InputContainer.Width(m.width - 2).Render(prompt + m.input.View())
}
