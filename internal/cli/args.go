// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command is the subcommand to execute.
type Command int

const (
	CmdDefault Command = iota
	CmdChat
	CmdLang
	CmdLocales
	CmdConfig
	CmdServe
	CmdVersion
	CmdHelp
)

var commandNames = map[string]Command{
	"chat":    CmdChat,
	"lang":    CmdLang,
	"locales": CmdLocales,
	"config":  CmdConfig,
	"serve":   CmdServe,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// Args holds parsed command-line arguments.
type Args struct {
	Command Command

	// Subcommand is the first positional argument after the command.
	Subcommand string

	// Positional holds the arguments after the command, Subcommand included.
	Positional []string

	// Global flags
	ConfigPath string
	Lang       string
	Model      string
	Addr       string
	Simulate   bool
	Verbose    bool
}

// Flags that take a value. Every other flag is boolean.
var valueFlags = map[string]bool{
	"config": true,
	"lang":   true,
	"model":  true,
	"addr":   true,
}

var boolFlags = map[string]bool{
	"simulate": true,
	"verbose":  true,
	"help":     true,
	"h":        true,
	"version":  true,
}

// =============================================================================
// PARSING
// =============================================================================

// ParseArgs parses raw (os.Args[1:]). Flags may appear anywhere, as
// --flag value or --flag=value. Unknown flags are an error.
func ParseArgs(raw []string) (Args, error) {
	var (
		args       Args
		positional []string
	)

	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if arg == "--" {
			positional = append(positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positional = append(positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		switch {
		case valueFlags[name]:
			if !hasValue {
				if i+1 >= len(raw) {
					return Args{}, fmt.Errorf("flag --%s needs a value", name)
				}
				i++
				value = raw[i]
			}
			args.setValue(name, value)

		case boolFlags[name]:
			on := true
			if hasValue {
				switch strings.ToLower(value) {
				case "true", "1", "yes":
				case "false", "0", "no":
					on = false
				default:
					return Args{}, fmt.Errorf("flag --%s expects true or false, got %q", name, value)
				}
			}
			args.setBool(name, on)

		default:
			return Args{}, fmt.Errorf("unknown flag %s", arg)
		}
	}

	if args.Command == CmdDefault && len(positional) > 0 {
		cmd, ok := commandNames[strings.ToLower(positional[0])]
		if !ok {
			return Args{}, fmt.Errorf("unknown command %q (see 'edumate help')", positional[0])
		}
		args.Command = cmd
		positional = positional[1:]
	}
	args.Positional = positional
	if len(positional) > 0 {
		args.Subcommand = positional[0]
	}
	return args, nil
}

func (a *Args) setValue(name, value string) {
	switch name {
	case "config":
		a.ConfigPath = value
	case "lang":
		a.Lang = value
	case "model":
		a.Model = value
	case "addr":
		a.Addr = value
	}
}

func (a *Args) setBool(name string, on bool) {
	switch name {
	case "simulate":
		a.Simulate = on
	case "verbose":
		a.Verbose = on
	case "help", "h":
		if on {
			a.Command = CmdHelp
		}
	case "version":
		if on {
			a.Command = CmdVersion
		}
	}
}
