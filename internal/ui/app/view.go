// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/session"
	"github.com/jeranaias/edumate/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	var body string
	switch m.sess.Mode() {
	case session.AwaitingDocument:
		body = m.viewUpload()
	case session.ProcessingDocument:
		body = m.viewProcessing()
	default:
		body = m.viewChat()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		body,
		m.viewFooter(),
	)
}

// =============================================================================
// HEADER / FOOTER
// =============================================================================

func (m Model) viewHeader() string {
	left := m.theme.Brand.Render(m.sess.Text(i18n.KeyAppName, nil)) + "  " +
		m.theme.Tagline.Render(m.sess.Text(i18n.KeyTagline, nil))

	lang := m.theme.LanguageBadge.Render(strings.ToUpper(m.sess.Language().String()))
	right := lang
	if doc, ok := m.sess.Document(); ok {
		room := m.width - lipgloss.Width(left) - lipgloss.Width(lang) - 6
		if room > 3 {
			right = m.theme.DocumentBadge.Render(util.TruncateWidth(doc.Name, room)) + " " + lang
		}
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) viewFooter() string {
	var notice string
	if m.notice != "" {
		style := m.theme.Status
		if m.noticeErr {
			style = m.theme.Error
		}
		notice = style.Render(util.TruncateWidth(m.notice, m.width))
	}

	var helpText string
	switch m.sess.Mode() {
	case session.AwaitingDocument:
		helpText = m.sess.Text(i18n.KeyHelpUpload, nil)
	default:
		helpText = m.sess.Text(i18n.KeyHelpChat, nil)
		if m.sess.CanRetry() {
			helpText = m.sess.Text(i18n.KeyHelpRetry, nil) + " • " + helpText
		}
	}

	return notice + "\n" + m.theme.Help.Render(util.TruncateWidth(helpText, m.width))
}

// =============================================================================
// SCREENS
// =============================================================================

func (m Model) viewUpload() string {
	card := m.theme.UploadCard.Render(lipgloss.JoinVertical(lipgloss.Center,
		m.theme.UploadTitle.Render(m.sess.Text(i18n.KeyUploadTitle, nil)),
		m.theme.UploadSubtitle.Render(m.sess.Text(i18n.KeyUploadSubtitle, nil)),
		"",
		m.pathInput.View(),
		"",
		m.theme.UploadButton.Render(m.sess.Text(i18n.KeyChooseDocument, nil)),
	))

	height := m.height - headerHeight - footerHeight
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, card)
}

func (m Model) viewProcessing() string {
	if m.sess.MessageCount() > 0 {
		// A failed analysis left a message; show it with the retry hint.
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.viewTyping())
	}

	line := m.spinner.View() + " " + m.theme.Processing.Render(m.sess.Text(i18n.KeyProcessing, nil))
	height := m.height - headerHeight - footerHeight
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, line)
}

func (m Model) viewChat() string {
	send := m.theme.Send(m.canSend()).Render(m.sess.Text(i18n.KeySend, nil))
	input := m.theme.InputBox.Width(m.width).Render(
		lipgloss.JoinVertical(lipgloss.Right, m.input.View(), send),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.viewTyping(),
		input,
	)
}

func (m Model) viewTyping() string {
	if !m.sess.Busy() {
		return ""
	}
	return m.spinner.View() + " " + m.theme.Typing.Render(m.sess.Text(i18n.KeyTyping, nil))
}

// canSend mirrors the guard SubmitText applies, for the button state.
func (m Model) canSend() bool {
	return !m.sess.Busy() && !util.IsBlank(m.input.Value())
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m *Model) renderMessages() string {
	bubbleWidth := max(m.width-10, 20)

	var b strings.Builder
	for msg := range m.sess.Messages() {
		label := m.sess.Text(i18n.KeyRoleAssistant, nil)
		if msg.IsUser() {
			label = m.sess.Text(i18n.KeyRoleUser, nil)
		}

		content := msg.Content
		if msg.IsAssistant() {
			if r := m.markdownRenderer(bubbleWidth - 4); r != nil {
				if out, err := r.Render(content); err == nil {
					content = strings.Trim(out, "\n")
				}
			}
		}

		block := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.RoleLabel.Render(label),
			m.theme.Bubble(msg.IsUser()).Width(bubbleWidth).Render(content),
		)
		if msg.IsUser() {
			block = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, block)
		}
		b.WriteString(block)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
