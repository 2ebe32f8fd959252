// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides argument parsing, the line-mode chat and the
// one-shot subcommands of EduMate.
//
// # Commands
//
//	edumate                    Start the full-screen app (line mode when not a terminal)
//	edumate chat               Line-mode chat
//	edumate lang [tag]         Show or set the preferred language
//	edumate locales check      Report missing translations
//	edumate config [show|path|init]
//	edumate serve [--addr host:port]  HTTP API for one session
//	edumate version
//	edumate help
//
// # Global Flags
//
//	--config PATH   Load configuration from PATH
//	--lang TAG      Use TAG for this run (not persisted)
//	--model NAME    Use the Ollama responder with model NAME
//	--simulate      Use the simulated responder
//	--verbose       Log at debug level
package cli
