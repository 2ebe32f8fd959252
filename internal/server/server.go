// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/jeranaias/edumate/internal/export"
	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/model"
	"github.com/jeranaias/edumate/internal/pipeline"
	"github.com/jeranaias/edumate/internal/session"
	"github.com/jeranaias/edumate/internal/util"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8787"

	// DefaultMaxUploadBytes caps a document upload.
	DefaultMaxUploadBytes = 20 << 20

	// MaxJSONBodySize caps JSON request bodies.
	MaxJSONBodySize = 64 << 10
)

// ============================================================================
// API TYPES
// ============================================================================

// SessionView is the JSON form of the session.
type SessionView struct {
	ID       string          `json:"id"`
	Mode     string          `json:"mode"`
	Document string          `json:"document,omitempty"`
	Busy     bool            `json:"busy"`
	Language string          `json:"language"`
	CanRetry bool            `json:"can_retry"`
	Messages []model.Message `json:"messages"`
}

// MessageRequest is the body of POST /api/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// LanguageRequest is the body of PUT /api/language.
type LanguageRequest struct {
	Language string `json:"language"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	// Addr defaults to DefaultAddr.
	Addr string

	// Token enables bearer authentication when not empty.
	Token string

	// MaxUploadBytes defaults to DefaultMaxUploadBytes.
	MaxUploadBytes int64

	// RatePerMinute limits requests per client; 0 disables the limit.
	RatePerMinute int

	Version string
	Logger  *zap.Logger
}

// Server serves one session over HTTP.
type Server struct {
	sess    *session.Session
	opts    Options
	logger  *zap.Logger
	router  *http.ServeMux
	handler http.Handler

	mu     sync.Mutex
	server *http.Server

	// jobs tracks pipeline jobs running in the background.
	jobs sync.WaitGroup
}

// New creates a server for sess.
func New(sess *session.Session, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "server"))

	s := &Server{
		sess:   sess,
		opts:   opts,
		logger: logger,
		router: http.NewServeMux(),
	}
	s.setupRoutes()

	s.handler = Chain(
		RecoveryMiddleware(logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(logger),
		RateLimitMiddleware(NewRateLimiter(opts.RatePerMinute, opts.RatePerMinute/10), logger),
		AuthMiddleware(opts.Token, logger),
	)(s.router)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	s.router.HandleFunc("GET /api/session", s.handleSession)
	s.router.HandleFunc("POST /api/document", s.handleDocument)
	s.router.HandleFunc("POST /api/messages", s.handleMessage)
	s.router.HandleFunc("POST /api/retry", s.handleRetry)
	s.router.HandleFunc("POST /api/reset", s.handleReset)
	s.router.HandleFunc("PUT /api/language", s.handleLanguage)
	s.router.HandleFunc("GET /api/transcript", s.handleTranscript)
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.opts.Version,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.opts.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("document exceeds %d bytes", s.opts.MaxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("document exceeds %d bytes", s.opts.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form with a \"file\" field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing \"file\" field")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !model.IsAccepted(name) {
		writeError(w, http.StatusUnsupportedMediaType, s.sess.Text(i18n.KeyUnsupportedFormat, i18n.Vars{
			"ext":   strings.ToLower(filepath.Ext(name)),
			"types": strings.Join(model.AcceptedExtensions, " "),
		}))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read document: "+err.Error())
		return
	}
	doc := model.NewDocument(name, data)
	if !doc.Valid() {
		writeError(w, http.StatusBadRequest, model.ErrEmptyDocument.Error())
		return
	}

	job, ok := s.sess.SelectDocument(doc)
	if !ok {
		writeError(w, http.StatusConflict, "session is not waiting for a document")
		return
	}
	s.logger.Info("document uploaded", zap.String("document", name), zap.Int("size", len(data)))
	s.run(job)
	writeJSON(w, http.StatusAccepted, s.view())
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if util.IsBlank(req.Text) {
		writeError(w, http.StatusBadRequest, "text is empty")
		return
	}

	job, ok := s.sess.SubmitText(req.Text)
	if !ok {
		writeError(w, http.StatusConflict, "session is not ready for a question")
		return
	}
	s.run(job)
	writeJSON(w, http.StatusAccepted, s.view())
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	job, ok := s.sess.RetryAnalysis()
	if !ok {
		writeError(w, http.StatusConflict, "there is no failed analysis to retry")
		return
	}
	s.run(job)
	writeJSON(w, http.StatusAccepted, s.view())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.sess.Reset()
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := language.Parse(req.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid language tag %q", req.Language))
		return
	}
	if err := s.sess.ChangeLanguage(r.Context(), tag); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	opts := export.SessionOptions(s.sess, "")
	exporter, err := export.ForFormat(r.URL.Query().Get("format"), opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := export.NewTranscript(s.sess.Snapshot(), s.sess.Messages())
	content, err := exporter.Export(t)
	if errors.Is(err, export.ErrEmptyTranscript) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", exporter.MimeType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.Filename(t, exporter),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// ============================================================================
// BACKGROUND JOBS
// ============================================================================

// run executes job in the background and applies its completion.
func (s *Server) run(job pipeline.Job) {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		s.sess.Apply(job())
	}()
}

// Wait blocks until background jobs have finished.
func (s *Server) Wait() {
	s.jobs.Wait()
}

func (s *Server) view() SessionView {
	snap := s.sess.Snapshot()
	msgs := slices.Collect(s.sess.Messages())
	if msgs == nil {
		msgs = []model.Message{}
	}
	return SessionView{
		ID:       snap.ID,
		Mode:     snap.Mode.String(),
		Document: snap.DocumentName,
		Busy:     snap.Busy,
		Language: snap.Language.String(),
		CanRetry: snap.CanRetry,
		Messages: msgs,
	}
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until Shutdown is called. It returns nil after a
// clean shutdown.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("server start", zap.String("addr", s.opts.Addr), zap.Bool("auth", s.opts.Token != ""))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight requests and
// background jobs until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("server shutdown")
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ============================================================================
// HELPERS
// ============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	var resp ErrorResponse
	resp.Error.Message = message
	resp.Error.Code = status
	writeJSON(w, status, resp)
}
