// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes a study session over a local HTTP API.
//
// The API drives the same session state machine as the terminal front ends.
// Analysis and answers run in the background; clients poll the session to
// see them arrive.
//
// # Endpoints
//
//   - GET  /health          - Health check
//   - GET  /api/session     - Session state and messages
//   - POST /api/document    - Upload a document (multipart field "file")
//   - POST /api/messages    - Ask a question ({"text": "..."})
//   - POST /api/retry       - Retry a failed analysis
//   - POST /api/reset       - Start over with a new document
//   - PUT  /api/language    - Switch language ({"language": "es"})
//   - GET  /api/transcript  - Download the transcript (?format=md|json|html)
//
// # Middleware
//
// Requests pass through panic recovery, security headers, request logging,
// a per-client rate limit and, when a token is configured, bearer
// authentication.
package server
