// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard bindings. Help text is rendered from the
// string tables, so the bindings carry keys only.
type KeyMap struct {
	Submit      key.Binding
	Newline     key.Binding
	NewDocument key.Binding
	Retry       key.Binding
	Export      key.Binding
	Language    key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit:      key.NewBinding(key.WithKeys("enter")),
		Newline:     key.NewBinding(key.WithKeys("alt+enter", "ctrl+j")),
		NewDocument: key.NewBinding(key.WithKeys("ctrl+n")),
		Retry:       key.NewBinding(key.WithKeys("ctrl+r")),
		Export:      key.NewBinding(key.WithKeys("ctrl+e")),
		Language:    key.NewBinding(key.WithKeys("ctrl+l")),
		PageUp:      key.NewBinding(key.WithKeys("pgup")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c")),
	}
}
