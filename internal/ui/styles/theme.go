// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles of the EduMate screens. It detects the terminal's
// color capability once at construction.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header        lipgloss.Style
	Brand         lipgloss.Style
	Tagline       lipgloss.Style
	DocumentBadge lipgloss.Style
	LanguageBadge lipgloss.Style

	// ==========================================================================
	// UPLOAD SCREEN
	// ==========================================================================

	UploadCard     lipgloss.Style
	UploadTitle    lipgloss.Style
	UploadSubtitle lipgloss.Style
	UploadButton   lipgloss.Style
	Processing     lipgloss.Style

	// ==========================================================================
	// CHAT SCREEN
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	RoleLabel       lipgloss.Style
	Typing          lipgloss.Style
	InputBox        lipgloss.Style
	SendEnabled     lipgloss.Style
	SendDisabled    lipgloss.Style

	// ==========================================================================
	// SHARED
	// ==========================================================================

	Spinner lipgloss.Style
	Error   lipgloss.Style
	Status  lipgloss.Style
	Help    lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Brand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.Tagline = lipgloss.NewStyle().
		Foreground(Violet).
		Italic(true)

	t.DocumentBadge = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	t.LanguageBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo).
		Padding(0, 1)

	// Upload screen
	t.UploadCard = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(1, 3).
		Align(lipgloss.Center)

	t.UploadTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.UploadSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UploadButton = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo).
		Bold(true).
		Padding(0, 2)

	t.Processing = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	// Chat screen
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(6)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1).
		MarginRight(6)

	t.RoleLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true)

	t.Typing = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SendEnabled = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Emerald).
		Bold(true).
		Padding(0, 2)

	t.SendDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(Overlay).
		Padding(0, 2)

	// Shared
	t.Spinner = lipgloss.NewStyle().Foreground(Indigo)
	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Status = lipgloss.NewStyle().Foreground(Emerald)
	t.Help = lipgloss.NewStyle().Foreground(TextMuted)
}

// Bubble returns the bubble style for a user or assistant message.
func (t *Theme) Bubble(user bool) lipgloss.Style {
	if user {
		return t.UserBubble
	}
	return t.AssistantBubble
}

// Send returns the send button style.
func (t *Theme) Send(enabled bool) lipgloss.Style {
	if enabled {
		return t.SendEnabled
	}
	return t.SendDisabled
}
