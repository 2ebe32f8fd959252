// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/text/language"

	"github.com/jeranaias/edumate/internal/config"
	"github.com/jeranaias/edumate/internal/i18n"
)

// Version information (overridden at build time with -ldflags).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ErrMissingTranslations is returned by "locales check" when a table lacks
// keys.
var ErrMissingTranslations = errors.New("missing translations")

const usageText = `edumate - document study companion

Usage:
  edumate                      Start EduMate (full screen on a terminal)
  edumate chat                 Line-mode chat
  edumate lang [tag]           Show or set the preferred language
  edumate locales [check|list] Check or list string tables
  edumate config [show|path|init|get <key>]
  edumate serve                Serve the session over HTTP
  edumate version              Show version information
  edumate help                 Show this help

Flags:
  --config PATH   Load configuration from PATH
  --lang TAG      Use language TAG for this run
  --model NAME    Answer with the local Ollama model NAME
  --addr H:P      Listen address for serve
  --simulate      Use the simulated assistant
  --verbose       Log at debug level

Environment:
  EDUMATE_HOME    Configuration directory (default ~/.edumate)
  EDUMATE_*       Override configuration values (see 'edumate config show')
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// RunVersion writes version information.
func RunVersion(w io.Writer) {
	fmt.Fprintf(w, "edumate %s\n", Version)
	fmt.Fprintln(w, RenderKV("Commit", GitCommit))
	fmt.Fprintln(w, RenderKV("Built", BuildDate))
	fmt.Fprintln(w, RenderKV("Go", runtime.Version()))
}

// =============================================================================
// LANG
// =============================================================================

// RunLang shows the stored language preference, or stores a new one when
// args has a tag.
func RunLang(ctx context.Context, text *i18n.Provider, args Args, w io.Writer) error {
	if args.Subcommand == "" {
		current := text.Preference(ctx)
		fmt.Fprintln(w, TitleStyle.Render("Languages"))
		for _, tag := range text.Catalog().Supported() {
			marker := "  "
			if tag == current {
				marker = SuccessStyle.Render("* ")
			}
			name, _ := text.Catalog().Resolve(tag, i18n.KeyLanguageName, nil)
			fmt.Fprintf(w, "%s%s\n", marker, RenderKV(tag.String(), name))
		}
		return nil
	}

	tag, err := language.Parse(args.Subcommand)
	if err != nil {
		return fmt.Errorf("invalid language tag %q: %w", args.Subcommand, err)
	}
	if err := text.SetPreference(ctx, tag); err != nil {
		return err
	}
	fmt.Fprintln(w, SuccessStyle.Render(text.Text(i18n.KeyLanguageChanged, i18n.Vars{
		"language": text.Text(i18n.KeyLanguageName, nil),
	})))
	return nil
}

// =============================================================================
// LOCALES
// =============================================================================

// RunLocales validates or lists the string tables.
func RunLocales(catalog *i18n.Catalog, args Args, w io.Writer) error {
	switch args.Subcommand {
	case "", "check":
		missing := catalog.Validate()
		for _, m := range missing {
			fmt.Fprintln(w, ErrorStyle.Render("missing ")+m.String())
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %d", ErrMissingTranslations, len(missing))
		}
		fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("OK: %d languages, %d keys",
			len(catalog.Supported()), len(i18n.RequiredKeys))))
		return nil

	case "list":
		for _, tag := range catalog.Supported() {
			name, _ := catalog.Resolve(tag, i18n.KeyLanguageName, nil)
			fmt.Fprintln(w, RenderKV(tag.String(), name))
		}
		return nil

	default:
		return fmt.Errorf("unknown locales subcommand %q", args.Subcommand)
	}
}

// =============================================================================
// CONFIG
// =============================================================================

// RunConfig shows the configuration, its path, or writes a default file.
func RunConfig(cfg *config.Config, args Args, w io.Writer) error {
	switch args.Subcommand {
	case "", "show":
		fmt.Fprintln(w, cfg.String())
		return nil

	case "path":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, path)
		return nil

	case "init":
		path, err := configPath(args)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintln(w, SuccessStyle.Render("Wrote "+path))
		return nil

	case "get":
		if len(args.Positional) < 2 {
			return errors.New("usage: edumate config get <section.key>")
		}
		v, err := cfg.Get(args.Positional[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(w, v)
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q", args.Subcommand)
	}
}

func configPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}
