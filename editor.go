// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Editor accumulates changes to an existing bundle and applies them on Commit.
// Media already in the bundle is carried over raw; it is never re-read from disk.
type Editor struct {
	path  string
	state BundleState
}

// OpenEditor opens the bundle at path for staged editing.
func OpenEditor(path string) (*Editor, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, fmt.Errorf("%w: empty bundle path", ErrInvalidEntryPath)
	}

	parsed, err := Open(trimmedPath)
	if err != nil {
		return nil, err
	}

	media, err := MediaEntries(trimmedPath)
	if err != nil {
		return nil, err
	}

	state := BundleState{
		Manifest:    parsed.Manifest,
		Slides:      parsed.Slides,
		Arrangement: parsed.Arrangement,
		Themes:      parsed.Themes,
		Media:       make([]MediaFileRef, 0, len(media)),
	}

	for _, entry := range media {
		state.Media = append(state.Media, MediaFileRef{
			ID:         entryID(entry.Path),
			SourcePath: BundleSource(entry.Path),
			BundlePath: entry.Path,
		})
	}

	return &Editor{
		path:  trimmedPath,
		state: state,
	}, nil
}

// Path returns the edited bundle path.
func (e *Editor) Path() string {
	return e.path
}

// State returns a copy of the staged bundle state.
func (e *Editor) State() BundleState {
	out := e.state
	out.Themes = append([]ThemeFile(nil), e.state.Themes...)
	out.Media = append([]MediaFileRef(nil), e.state.Media...)
	return out
}

// SetManifest replaces manifest.json. The new manifest must pass ValidateManifest.
func (e *Editor) SetManifest(manifest string) error {
	if err := ValidateManifest(manifest); err != nil {
		return err
	}

	e.state.Manifest = manifest
	return nil
}

// SetSlides replaces slides.json.
func (e *Editor) SetSlides(slides string) {
	e.state.Slides = slides
}

// SetArrangement replaces arrangement.json.
func (e *Editor) SetArrangement(arrangement string) {
	e.state.Arrangement = arrangement
}

// PutTheme adds a theme or replaces the theme with the same filename.
func (e *Editor) PutTheme(filename string, content string) error {
	name, err := checkEntryPath(filename)
	if err != nil {
		return err
	}

	if !isThemePath(name) {
		return fmt.Errorf("%w: theme %q must be %s*%s", ErrValidation, filename, ThemesDir, themeExt)
	}

	for i := range e.state.Themes {
		if e.state.Themes[i].Filename == name {
			e.state.Themes[i] = ThemeFile{Filename: name, Content: content}
			return nil
		}
	}

	e.state.Themes = append(e.state.Themes, ThemeFile{Filename: name, Content: content})
	return nil
}

// AddMedia schedules an imported entry whose payload is read from sourcePath on Commit.
// It fails when the entry path is already taken.
func (e *Editor) AddMedia(entry MediaEntry, sourcePath string) error {
	return e.addRef(entry.ID, entry.Path, sourcePath)
}

// AddFont schedules an imported font whose payload is read from sourcePath on Commit.
func (e *Editor) AddFont(entry FontEntry, sourcePath string) error {
	return e.addRef(entry.ID, entry.Path, sourcePath)
}

// addRef appends one file-backed media ref.
func (e *Editor) addRef(id string, bundlePath string, sourcePath string) error {
	name, err := checkEntryPath(bundlePath)
	if err != nil {
		return err
	}

	if strings.TrimSpace(sourcePath) == "" {
		return fmt.Errorf("%w: media %s has no source path", ErrValidation, name)
	}

	if e.hasEntry(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateEntryPath, name)
	}

	e.state.Media = append(e.state.Media, MediaFileRef{
		ID:         id,
		SourcePath: sourcePath,
		BundlePath: name,
	})

	return nil
}

// DeleteTheme drops the theme with the given filename.
func (e *Editor) DeleteTheme(filename string) error {
	removed := e.removeWhere(func(candidate string) bool {
		return candidate == filename && isThemePath(candidate)
	})
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrMissingEntry, filename)
	}

	return nil
}

// RemoveMedia drops the media or font entry stored at bundlePath.
func (e *Editor) RemoveMedia(bundlePath string) error {
	removed := e.removeWhere(func(candidate string) bool {
		return candidate == bundlePath && !isThemePath(candidate)
	})
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrMissingEntry, bundlePath)
	}

	return nil
}

// RemoveDir drops themes and media under the given archive directories
// and returns the number of removed entries.
func (e *Editor) RemoveDir(prefixes ...string) int {
	return e.removeWhere(func(name string) bool {
		for _, prefix := range prefixes {
			if hasDirPrefix(name, prefix) {
				return true
			}
		}

		return false
	})
}

// removeWhere filters staged themes and media in place.
func (e *Editor) removeWhere(match func(name string) bool) int {
	removed := 0

	themes := e.state.Themes[:0]
	for _, theme := range e.state.Themes {
		if match(theme.Filename) {
			removed++
			continue
		}

		themes = append(themes, theme)
	}
	e.state.Themes = themes

	media := e.state.Media[:0]
	for _, ref := range e.state.Media {
		if match(ref.BundlePath) {
			removed++
			continue
		}

		media = append(media, ref)
	}
	e.state.Media = media

	return removed
}

// hasEntry reports whether a staged theme or media entry uses name.
func (e *Editor) hasEntry(name string) bool {
	for _, theme := range e.state.Themes {
		if theme.Filename == name {
			return true
		}
	}

	for _, ref := range e.state.Media {
		if ref.BundlePath == name {
			return true
		}
	}

	return false
}

// Commit writes the staged state over the bundle atomically.
// opts.PreviousBundle is ignored; kept media always comes from the edited bundle.
// After a successful commit every media entry is sourced from the new bundle.
func (e *Editor) Commit(opts SaveOptions) (*SaveResult, error) {
	opts.PreviousBundle = e.path

	res, err := SaveWithOptions(e.path, &e.state, opts)
	if err != nil {
		return nil, err
	}

	for i := range e.state.Media {
		e.state.Media[i].SourcePath = BundleSource(e.state.Media[i].BundlePath)
	}

	return res, nil
}

// ResolveBundleSources extracts every "bundle:" payload of state from bundlePath
// into dir and returns a copy of state whose refs point at those files.
// The result can be saved to any destination, including bundlePath itself.
func ResolveBundleSources(state *BundleState, bundlePath string, dir string) (*BundleState, error) {
	if state == nil {
		return nil, ErrNilState
	}

	out := *state
	out.Themes = append([]ThemeFile(nil), state.Themes...)
	out.Media = append([]MediaFileRef(nil), state.Media...)

	var r *archiveReader
	defer func() {
		if r != nil {
			_ = r.Close()
		}
	}()

	for i := range out.Media {
		ref := &out.Media[i]
		if !ref.IsBundleSource() {
			continue
		}

		if r == nil {
			var err error
			if r, err = openArchive(bundlePath); err != nil {
				return nil, err
			}
		}

		name := ref.BundleSourcePath()
		target, err := resolvedSourcePath(dir, name)
		if err != nil {
			return nil, err
		}

		if err := extractEntryTo(r, name, target); err != nil {
			return nil, err
		}

		ref.SourcePath = target
	}

	return &out, nil
}

// resolvedSourcePath maps an archive path to a file under dir.
func resolvedSourcePath(dir string, name string) (string, error) {
	rel, err := normalizeExtractEntryPath(name)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}

// extractEntryTo writes one decompressed entry to target, creating parent directories.
func extractEntryTo(r *archiveReader, name string, target string) error {
	rc, _, err := r.openEntry(name)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: create directory for %s: %w", ErrIO, target, err)
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, target, err)
	}

	if _, err := copyBuffered(out, rc); err != nil {
		_ = out.Close()
		return classifyEntryError(r.path, name, "extract", err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, target, err)
	}

	return nil
}

// entryID recovers the short id from a derived entry path like "media/3f2a9c1b.png".
func entryID(name string) string {
	base := path.Base(name)
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}

	return base
}
