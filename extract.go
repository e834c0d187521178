// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/woozymasta/pathrules"
	"golang.org/x/sync/errgroup"
)

// extractTask is one selected entry and its output file.
type extractTask struct {
	file   *zip.File
	entry  EntryInfo
	target string
}

// ExtractMedia writes media and font payloads of the bundle at bundlePath to dstDir,
// keeping their archive-relative layout. Up to MaxWorkers entries are written
// concurrently; the first failure cancels the rest and is returned.
func ExtractMedia(ctx context.Context, bundlePath string, dstDir string, opts ExtractOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	r, err := openArchive(bundlePath)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	root, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("%w: resolve output dir %s: %w", ErrIO, dstDir, err)
	}

	tasks, err := planExtract(r, root, opts.Prefixes)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := makeTargetDirs(tasks); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers(opts.MaxWorkers))
	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			return extractTaskTo(r.path, task, opts)
		})
	}

	return g.Wait()
}

// extractWorkers returns the worker limit for n; non-positive means GOMAXPROCS.
func extractWorkers(n int) int {
	if n > 0 {
		return n
	}

	return max(runtime.GOMAXPROCS(0), 1)
}

// planExtract selects entries under prefixes and resolves their output paths under root.
// Duplicate archive names keep their first occurrence.
func planExtract(r *archiveReader, root string, prefixes []string) ([]extractTask, error) {
	matcher, err := newPrefixMatcher(prefixes)
	if err != nil {
		return nil, err
	}

	var tasks []extractTask
	seen := make(map[string]bool)
	for _, entry := range listArchiveEntries(r) {
		if seen[entry.Path] || !matcher.Included(entry.Path, false) {
			continue
		}
		seen[entry.Path] = true

		rel, err := normalizeExtractEntryPath(entry.Path)
		if err != nil {
			return nil, err
		}

		f, err := r.lookup(entry.Path)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, extractTask{
			file:   f,
			entry:  entry,
			target: filepath.Join(root, filepath.FromSlash(rel)),
		})
	}

	return tasks, nil
}

// newPrefixMatcher compiles archive directories into anchored include rules.
// An empty directory selects every entry.
func newPrefixMatcher(prefixes []string) (*pathrules.Matcher, error) {
	rules := make([]pathrules.Rule, 0, len(prefixes))
	for _, prefix := range prefixes {
		pattern := "**"
		if dir := NormalizePath(prefix); dir != "" {
			pattern = dir + "/**"
		}

		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: pattern})
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionExclude,
	})
	if err != nil {
		return nil, fmt.Errorf("compile extract prefixes: %w", err)
	}

	return matcher, nil
}

// makeTargetDirs creates each distinct parent directory once, before workers start.
func makeTargetDirs(tasks []extractTask) error {
	made := make(map[string]bool)
	for _, task := range tasks {
		dir := filepath.Dir(task.target)
		if made[dir] {
			continue
		}
		made[dir] = true

		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: create output directory %s: %w", ErrIO, dir, err)
		}
	}

	return nil
}

// extractTaskTo decompresses one entry into its target file.
func extractTaskTo(bundlePath string, task extractTask, opts ExtractOptions) error {
	rc, err := task.file.Open()
	if err != nil {
		return classifyEntryError(bundlePath, task.entry.Path, "open", err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(task.target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, task.target, err)
	}

	written, err := copyBuffered(out, rc)
	closeErr := out.Close()
	if err != nil {
		return classifyEntryError(bundlePath, task.entry.Path, "extract", err)
	}

	if closeErr != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, task.target, closeErr)
	}

	opts.Logger.Debug("media extracted",
		slog.String("entry", task.entry.Path),
		slog.Int64("written", written),
		slog.String("output", task.target),
	)

	if opts.OnEntryDone != nil {
		opts.OnEntryDone(task.entry, written, task.target)
	}

	return nil
}

// normalizeExtractEntryPath returns entryPath as a clean relative slash path.
// Rooted, drive-qualified, NUL-bearing and ".." paths are rejected.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(entryPath), `\`, "/")
	if raw == "" || strings.HasPrefix(raw, "/") || strings.ContainsRune(raw, 0) || hasDriveLetter(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtractPath, entryPath)
	}

	segments := make([]string, 0, strings.Count(raw, "/")+1)
	for segment := range strings.SplitSeq(raw, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q escapes the output directory", ErrInvalidExtractPath, entryPath)
		}

		segments = append(segments, segment)
	}

	if len(segments) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtractPath, entryPath)
	}

	return strings.Join(segments, "/"), nil
}

// hasDriveLetter reports a Windows drive prefix such as "C:".
func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}

	c := p[0] | 0x20
	return c >= 'a' && c <= 'z'
}
