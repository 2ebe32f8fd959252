// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n renders every user-visible EduMate string.
//
// String tables are TOML files, one per language, embedded from locales/
// and optionally overlaid from a directory on disk. Templates reference
// variables as {name}; a variable that is not supplied renders as the
// empty string. A key missing from the requested language is an error and
// is never looked up in another language.
//
// # Key Types
//
//   - Catalog: the loaded tables with Resolve and Validate
//   - Provider: active language, preference persistence and rendering
//   - Watcher: reloads override tables when files change
//
// # Usage
//
//	cat, err := i18n.NewCatalog()
//	p := i18n.NewProvider(cat, store, i18n.ProviderOptions{Logger: log})
//	p.Load(ctx)
//	title := p.Text(i18n.KeyUploadTitle, nil)
//	msg := p.Text(i18n.KeyInitialAnalysis, i18n.Vars{"file": doc.Name})
package i18n
