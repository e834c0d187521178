// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

// Command cpres inspects, packs, and unpacks presentation bundles.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/churchpresenter/cpres"
	"github.com/spf13/cobra"
)

// app carries state shared by subcommands after global flags are parsed.
type app struct {
	logger *slog.Logger
	config *cliConfig
}

// globalOptions is the parsed form of the persistent flags.
type globalOptions struct {
	Logger *slog.Logger
	Config *cliConfig
}

// errProblemsFound is returned by verify when the bundle does not match its records.
var errProblemsFound = errors.New("verification found problems")

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cpres",
		Short: "Inspect and build presentation bundles (.cpres)",
		Long: `cpres reads and writes presentation bundles: ZIP archives holding
manifest.json, slides.json, arrangement.json, themes and media payloads.

Saves are atomic: the destination is either left as it was or fully replaced.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := readGlobalOptions(cmd)
			if err != nil {
				return err
			}

			a.logger = opts.Logger
			a.config = opts.Config
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file (default: $"+configEnv+")")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text, json")
	flags.BoolP("verbose", "v", false, "Enable debug logging (overrides --log-level)")

	root.AddCommand(
		newInspectCmd(a),
		newListCmd(a),
		newCatCmd(a),
		newImportCmd(a),
		newPackCmd(a),
		newExtractCmd(a),
		newVerifyCmd(a),
		newThumbCmd(a),
	)

	return root
}

// readGlobalOptions validates persistent flags and builds the logger and config.
func readGlobalOptions(cmd *cobra.Command) (*globalOptions, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	formatName, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")
	configPath, _ := cmd.Flags().GetString("config")

	level, err := parseLogLevel(levelName)
	if err != nil {
		return nil, err
	}

	if verbose {
		level = slog.LevelDebug
	}

	logger, err := newLogger(cmd.ErrOrStderr(), formatName, level)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	return &globalOptions{Logger: logger, Config: cfg}, nil
}

// parseLogLevel maps a --log-level value to a slog level.
func parseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid --log-level %q (want debug, info, warn, error)", name)
	}
}

// newLogger builds a slog logger writing to w in the given format.
func newLogger(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text, json)", format)
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if errors.Is(err, errProblemsFound) {
		return 3
	}

	switch cpres.KindOf(err) {
	case cpres.KindIO:
		return 4
	case cpres.KindFormat, cpres.KindJSON, cpres.KindValidation, cpres.KindMissingEntry:
		return 5
	default:
		return 1
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cpres: %v\n", err)
		os.Exit(exitCode(err))
	}
}
