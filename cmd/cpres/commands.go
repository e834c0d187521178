// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"text/tabwriter"

	"github.com/churchpresenter/cpres"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// inspectSummary is the inspect command output.
type inspectSummary struct {
	Path             string            `json:"path"`
	Manifest         json.RawMessage   `json:"manifest"`
	SlidesBytes      int               `json:"slides_bytes"`
	ArrangementBytes int               `json:"arrangement_bytes"`
	Themes           []string          `json:"themes"`
	Media            []cpres.EntryInfo `json:"media"`
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <bundle>",
		Short: "Validate a bundle and print a JSON summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := cpres.Open(args[0])
			if err != nil {
				return err
			}

			media, err := cpres.MediaEntries(args[0])
			if err != nil {
				return err
			}

			summary := inspectSummary{
				Path:             args[0],
				Manifest:         json.RawMessage(bundle.Manifest),
				SlidesBytes:      len(bundle.Slides),
				ArrangementBytes: len(bundle.Arrangement),
				Themes:           make([]string, 0, len(bundle.Themes)),
				Media:            media,
			}
			for _, theme := range bundle.Themes {
				summary.Themes = append(summary.Themes, theme.Filename)
			}

			a.logger.Debug("bundle opened", slog.String("path", args[0]), slog.Int("themes", len(bundle.Themes)))
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls <bundle>",
		Aliases: []string{"list"},
		Short:   "List archive entries without reading payloads",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := cpres.ListEntries(args[0])
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METHOD\tSIZE\tPACKED\tPATH")
			for _, e := range entries {
				method := "deflate"
				if e.IsStored() {
					method = "store"
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", method, e.Size, e.CompressedSize, e.Path)
			}

			a.logger.Debug("entries listed", slog.String("path", args[0]), slog.Int("count", len(entries)))
			return tw.Flush()
		},
	}

	cmd.Flags().Bool("json", false, "Print entries as JSON")
	return cmd
}

func newCatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <bundle> <entry>",
		Short: "Write one entry payload to stdout or a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := cpres.OpenMedia(args[0], args[1])
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()

			outputPath, _ := cmd.Flags().GetString("output")
			if outputPath == "" {
				n, err := io.Copy(cmd.OutOrStdout(), rc)
				if err != nil {
					return err
				}

				a.logger.Debug("entry written", slog.String("entry", args[1]), slog.Int64("bytes", n))
				return nil
			}

			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}

			n, err := io.Copy(f, rc)
			closeErr := f.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return fmt.Errorf("close output: %w", closeErr)
			}

			a.logger.Debug("entry written",
				slog.String("entry", args[1]),
				slog.Int64("bytes", n),
				slog.String("output", outputPath),
			)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <files...>",
		Short: "Hash and classify files and print their bundle entries as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fonts, _ := cmd.Flags().GetBool("fonts")
			opts := cpres.ImportOptions{MeasureImages: a.config.Import.MeasureImages}
			if cmd.Flags().Changed("measure") {
				opts.MeasureImages, _ = cmd.Flags().GetBool("measure")
			}

			if fonts {
				entries, err := cpres.ImportFontsWithOptions(args, opts)
				if err != nil {
					return err
				}

				a.logger.Info("fonts imported", slog.Int("count", len(entries)))
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			entries, err := cpres.ImportMediaWithOptions(args, opts)
			if err != nil {
				return err
			}

			a.logger.Info("media imported", slog.Int("count", len(entries)))
			return writeJSON(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().Bool("fonts", false, "Import files as fonts (fonts/ directory)")
	cmd.Flags().Bool("measure", false, "Decode image headers to record width and height")
	return cmd
}

func newPackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack --state <state.json|state.yaml> <bundle>",
		Short: "Write a bundle atomically from a state file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statePath, _ := cmd.Flags().GetString("state")
			state, err := readState(statePath)
			if err != nil {
				return err
			}

			opts := a.config.saveOptions()
			opts.Logger = a.logger

			if noDefault, _ := cmd.Flags().GetBool("no-default-store"); noDefault {
				opts.Store = cpres.StoreRules(a.config.Save.Store...)
			}

			extra, _ := cmd.Flags().GetStringArray("store")
			opts.Store = append(opts.Store, cpres.StoreRules(extra...)...)
			opts.PreviousBundle, _ = cmd.Flags().GetString("previous")

			if cmd.Flags().Changed("backup-keep") {
				opts.BackupKeep, _ = cmd.Flags().GetInt("backup-keep")
			}
			if cmd.Flags().Changed("level") {
				opts.CompressionLevel, _ = cmd.Flags().GetInt("level")
			}

			res, err := cpres.SaveWithOptions(args[0], state, opts)
			if err != nil {
				return err
			}

			a.logger.Info("bundle written",
				slog.String("path", args[0]),
				slog.Int("entries", res.WrittenEntries),
				slog.Int("carried", res.CarriedEntries),
				slog.Int("stored", res.StoredEntries),
				slog.Int64("bytes", res.Bytes),
			)
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().String("state", "", "Bundle state file (JSON, or YAML by .yaml/.yml extension)")
	cmd.Flags().StringArray("store", nil, "Extra pattern of entries written without compression (repeatable)")
	cmd.Flags().Bool("no-default-store", false, "Do not store common compressed media formats uncompressed")
	cmd.Flags().String("previous", "", "Bundle that bundle: media sources are copied from (default: destination)")
	cmd.Flags().Int("backup-keep", 0, "Backup generations of the replaced bundle to keep")
	cmd.Flags().Int("level", 0, "Deflate level 1-9 (0: default)")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <bundle> <dir>",
		Short: "Extract media and font payloads to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.config.extractOptions()
			opts.Logger = a.logger

			if cmd.Flags().Changed("workers") {
				opts.MaxWorkers, _ = cmd.Flags().GetInt("workers")
			}
			if prefixes, _ := cmd.Flags().GetStringArray("prefix"); len(prefixes) > 0 {
				opts.Prefixes = prefixes
			}

			var count atomic.Int64
			opts.OnEntryDone = func(_ cpres.EntryInfo, _ int64, _ string) {
				count.Add(1)
			}

			if err := cpres.ExtractMedia(cmd.Context(), args[0], args[1], opts); err != nil {
				return err
			}

			a.logger.Info("media extracted", slog.String("dir", args[1]), slog.Int64("count", count.Load()))
			return nil
		},
	}

	cmd.Flags().Int("workers", 0, "Extraction workers (0: GOMAXPROCS)")
	cmd.Flags().StringArray("prefix", nil, "Archive directory to extract (repeatable, default: media/ and fonts/)")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <bundle> --entries <media.json>",
		Short: "Check media payloads against recorded sizes and SHA-256 digests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entriesPath, _ := cmd.Flags().GetString("entries")
			data, err := os.ReadFile(entriesPath)
			if err != nil {
				return fmt.Errorf("read entries: %w", err)
			}

			var entries []cpres.MediaEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("parse entries %s: %w", entriesPath, err)
			}

			problems, err := cpres.VerifyMedia(args[0], entries)
			if err != nil {
				return err
			}

			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), p.String())
			}

			if len(problems) > 0 {
				return fmt.Errorf("%w: %d of %d entries", errProblemsFound, len(problems), len(entries))
			}

			a.logger.Info("media verified", slog.Int("entries", len(entries)))
			return nil
		},
	}

	cmd.Flags().String("entries", "", "JSON array of media entries as printed by import")
	_ = cmd.MarkFlagRequired("entries")
	return cmd
}

func newThumbCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thumb <bundle> <entry> -o <out.jpg>",
		Short: "Render a JPEG thumbnail of one image entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetInt("size")
			outputPath, _ := cmd.Flags().GetString("output")

			data, err := cpres.Thumbnail(args[0], args[1], size)
			if err != nil {
				return err
			}

			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return fmt.Errorf("write thumbnail: %w", err)
			}

			a.logger.Debug("thumbnail written", slog.String("output", outputPath), slog.Int("bytes", len(data)))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output JPEG path")
	cmd.Flags().Int("size", cpres.DefaultThumbnailSize, "Bounding box edge in pixels")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// readState decodes a bundle state file. YAML is chosen by extension.
func readState(path string) (*cpres.BundleState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var state cpres.BundleState
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &state)
	default:
		err = json.Unmarshal(data, &state)
	}
	if err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}

	return &state, nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
