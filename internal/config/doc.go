// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for EduMate.
//
// Supports both TOML and JSON configuration formats, with defaults,
// .env files, environment variable overrides and struct-tag validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ResponderConfig: which assistant answers (simulated or Ollama)
//   - PipelineConfig: timeout and rate limit for assistant requests
//   - LocaleConfig: default language and translation overrides
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (EDUMATE_*), including ones set by a .env file
//   - ~/.edumate/config.toml
//   - ~/.edumate/config.json
//   - Built-in defaults
//
// The ~/.edumate directory can be moved with EDUMATE_HOME.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.Pipeline.Timeout()
package config
