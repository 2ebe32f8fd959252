// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and Lip Gloss styles of the EduMate TUI.

All colors are lipgloss.AdaptiveColor values so the screens read on both
light and dark terminals.

# Colors (colors.go)

  - Indigo, Violet - brand header, assistant accents
  - Sky - user accents
  - Emerald, Rose, Amber - ready, error and busy states

# Theme (theme.go)

Theme groups the styles per screen: header, upload card, chat bubbles and
the input box. Create one per program:

	theme := styles.NewTheme()
	fmt.Println(theme.Brand.Render("EduMate"))
*/
package styles
