// EduMate - a study companion that chats about your documents.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/jeranaias/edumate/internal/cli"
	"github.com/jeranaias/edumate/internal/config"
	"github.com/jeranaias/edumate/internal/i18n"
	"github.com/jeranaias/edumate/internal/logging"
	"github.com/jeranaias/edumate/internal/ollama"
	"github.com/jeranaias/edumate/internal/pipeline"
	"github.com/jeranaias/edumate/internal/server"
	"github.com/jeranaias/edumate/internal/session"
	"github.com/jeranaias/edumate/internal/storage"
	"github.com/jeranaias/edumate/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

func run(raw []string) error {
	args, err := cli.ParseArgs(raw)
	if err != nil {
		return err
	}

	switch args.Command {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return nil
	case cli.CmdVersion:
		cli.RunVersion(os.Stdout)
		return nil
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if args.Command == cli.CmdConfig {
		return cli.RunConfig(cfg, args, os.Stdout)
	}

	logger := newLogger(cfg, args.Verbose)
	defer func() { _ = logger.Sync() }()

	catalog, err := i18n.NewCatalog()
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	if dir := cfg.Locale.OverrideDir; dir != "" {
		if err := catalog.LoadOverrides(dir); err != nil {
			return fmt.Errorf("load translation overrides: %w", err)
		}
	}
	if args.Command == cli.CmdLocales {
		return cli.RunLocales(catalog, args, os.Stdout)
	}

	store, err := storage.Open(cfg.Storage.Backend, cfg.StoragePath())
	if err != nil {
		return fmt.Errorf("open preference store: %w", err)
	}
	defer store.Close()

	text := i18n.NewProvider(catalog, store, i18n.ProviderOptions{
		Default: defaultLanguage(cfg, catalog),
		Strict:  cfg.Locale.Strict,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args.Command == cli.CmdLang {
		return cli.RunLang(ctx, text, args, os.Stdout)
	}

	lang := text.Load(ctx)
	if args.Lang != "" {
		tag, err := language.Parse(args.Lang)
		if err != nil || !catalog.Supports(tag) {
			return fmt.Errorf("unsupported language %q", args.Lang)
		}
		// A flag applies to this run only; the stored preference stays.
		text = i18n.NewProvider(catalog, nil, i18n.ProviderOptions{
			Default: tag,
			Strict:  cfg.Locale.Strict,
			Logger:  logger,
		})
		lang = tag
	}
	logger.Info("starting",
		zap.String("version", Version),
		zap.String("responder", cfg.Responder.Kind),
		zap.Stringer("language", lang))

	responder, err := newResponder(ctx, cfg, text, logger)
	if err != nil {
		return err
	}
	pipe := pipeline.New(responder, pipeline.Options{
		Timeout: cfg.Pipeline.Timeout(),
		Limiter: pipeline.NewLimiter(cfg.Pipeline.RatePerMinute, cfg.Pipeline.Burst),
		Logger:  logger,
	})
	sess := session.New(pipe, text, session.Options{Logger: logger})
	defer sess.Reset()

	if args.Command == cli.CmdServe {
		return runServer(ctx, cfg, catalog, sess, args, logger)
	}
	if useTUI(cfg, args) {
		return runTUI(cfg, catalog, sess, logger)
	}
	return runLine(ctx, cfg, catalog, sess, logger)
}

// =============================================================================
// SETUP
// =============================================================================

func loadConfig(args cli.Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.Simulate {
		cfg.Responder.Kind = "simulated"
	}
	if args.Model != "" {
		cfg.Responder.Kind = "ollama"
		cfg.Local.OllamaModel = args.Model
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// newLogger opens the rotating log file. Logging is never fatal: on failure
// the app runs with a no-op logger.
func newLogger(cfg *config.Config, verbose bool) *zap.Logger {
	logger, err := logging.New(logging.Options{
		Path:       cfg.LogPath(),
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		if verbose {
			fmt.Fprintln(os.Stderr, cli.WarningStyle.Render("logging disabled: "+err.Error()))
		}
		return logging.Nop()
	}
	return logger
}

// defaultLanguage is the configured language, else the best match for the
// POSIX locale variables, else English.
func defaultLanguage(cfg *config.Config, catalog *i18n.Catalog) language.Tag {
	if cfg.Locale.Default != "" {
		if tag, err := language.Parse(cfg.Locale.Default); err == nil && catalog.Supports(tag) {
			return tag
		}
	}
	if tag, ok := catalog.Match(os.Getenv("LC_ALL"), os.Getenv("LC_MESSAGES"), os.Getenv("LANG")); ok {
		return tag
	}
	return language.English
}

func newResponder(ctx context.Context, cfg *config.Config, text *i18n.Provider, logger *zap.Logger) (pipeline.Responder, error) {
	switch cfg.Responder.Kind {
	case "ollama":
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.Local.OllamaURL,
			Timeout:      cfg.Pipeline.Timeout(),
			DefaultModel: cfg.Local.OllamaModel,
		})
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.CheckRunning(checkCtx); err != nil {
			// Requests fail with a templated message until the server is up.
			logger.Warn("ollama not reachable", zap.String("url", cfg.Local.OllamaURL), zap.Error(err))
		}
		return pipeline.NewOllama(client, cfg.Local.OllamaModel, cfg.Local.MaxDocumentChars, logger), nil

	default:
		sim := pipeline.NewSimulated(
			time.Duration(cfg.Responder.AnalyzeDelayMs)*time.Millisecond,
			time.Duration(cfg.Responder.AnswerDelayMs)*time.Millisecond,
			text,
		)
		sim.FailRate = cfg.Responder.FailRate
		return sim, nil
	}
}

func useTUI(cfg *config.Config, args cli.Args) bool {
	if args.Command == cli.CmdChat {
		return false
	}
	switch cfg.UI.Mode {
	case "tui":
		return true
	case "line":
		return false
	default:
		return cli.Interactive()
	}
}

// watchLocales starts reloading overrides on change when enabled.
func watchLocales(cfg *config.Config, catalog *i18n.Catalog, logger *zap.Logger, onReload func(error)) *i18n.Watcher {
	if cfg.Locale.OverrideDir == "" || !cfg.Locale.Watch {
		return nil
	}
	w, err := i18n.NewWatcher(catalog, cfg.Locale.OverrideDir, 0, logger, onReload)
	if err != nil {
		logger.Warn("translation watcher disabled", zap.Error(err))
		return nil
	}
	return w
}

// =============================================================================
// FRONT ENDS
// =============================================================================

func runTUI(cfg *config.Config, catalog *i18n.Catalog, sess *session.Session, logger *zap.Logger) error {
	model := app.New(sess, app.Options{
		Markdown:  cfg.UI.Markdown,
		ExportDir: cfg.ExportDir(),
		Logger:    logger,
	})

	opts := []tea.ProgramOption{}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	defer model.Close()
	p := tea.NewProgram(model, opts...)

	if w := watchLocales(cfg, catalog, logger, func(err error) {
		p.Send(app.LocalesReloaded(err))
	}); w != nil {
		defer w.Close()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}

func runLine(ctx context.Context, cfg *config.Config, catalog *i18n.Catalog, sess *session.Session, logger *zap.Logger) error {
	if w := watchLocales(cfg, catalog, logger, nil); w != nil {
		defer w.Close()
	}

	historyFile := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, "chat_history")
	}
	in := cli.NewLineReader(historyFile)
	defer in.Close()

	repl := cli.NewREPL(sess, cli.REPLOptions{
		In:        in,
		Out:       os.Stdout,
		Render:    markdownRenderer(cfg),
		ExportDir: cfg.ExportDir(),
		Logger:    logger,
	})
	return repl.Run(ctx)
}

func runServer(ctx context.Context, cfg *config.Config, catalog *i18n.Catalog, sess *session.Session, args cli.Args, logger *zap.Logger) error {
	if w := watchLocales(cfg, catalog, logger, nil); w != nil {
		defer w.Close()
	}

	addr := cfg.Server.Addr
	if args.Addr != "" {
		addr = args.Addr
	}
	srv := server.New(sess, server.Options{
		Addr:           addr,
		Token:          cfg.Server.Token,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		RatePerMinute:  cfg.Server.RatePerMinute,
		Version:        Version,
		Logger:         logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintln(os.Stdout, cli.SuccessStyle.Render("Serving on http://"+srv.Addr()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// markdownRenderer formats assistant replies for line mode, or returns nil
// to print them as they are.
func markdownRenderer(cfg *config.Config) func(string) string {
	if !cfg.UI.Markdown || !cli.ColorsEnabled() {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(cli.TerminalWidth()-4),
	)
	if err != nil {
		return nil
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return out
	}
}
