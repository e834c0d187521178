// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// saveItem is one planned archive entry.
type saveItem struct {
	// path is the normalized archive path.
	path string
	// text is the payload of JSON entries.
	text string
	// ref is set for media entries.
	ref *MediaFileRef
}

// Save writes state to path atomically.
// The destination is either left untouched or fully replaced.
func Save(path string, state *BundleState) error {
	_, err := SaveWithOptions(path, state, SaveOptions{})
	return err
}

// SaveWithOptions writes state to path atomically with explicit options.
//
// Entries are written in order: manifest.json, slides.json, arrangement.json,
// themes in the given order, then media in the given order. Media refs with a
// "bundle:" source are copied raw from opts.PreviousBundle, or from the
// destination itself when PreviousBundle is empty.
func SaveWithOptions(path string, state *BundleState, opts SaveOptions) (*SaveResult, error) {
	if state == nil {
		return nil, ErrNilState
	}

	opts.applyDefaults()
	started := time.Now()

	plan, err := planSave(state)
	if err != nil {
		return nil, err
	}

	store, err := newStoreMatcher(opts.Store, opts.StoreMatcherOptions)
	if err != nil {
		return nil, err
	}

	previous, err := openPreviousBundle(path, plan, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if previous != nil {
			_ = previous.Close()
		}
	}()

	f, err := createSiblingTemp(path)
	if err != nil {
		return nil, err
	}

	tmpPath := f.Name()
	committed := false
	defer func() {
		if committed {
			return
		}

		if f != nil {
			_ = f.Close()
		}

		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			opts.Logger.Warn("remove temporary bundle",
				slog.String("path", tmpPath),
				slog.Any("error", err),
			)
		}
	}()

	res := &SaveResult{}
	w := newArchiveWriter(f, store, opts.CompressionLevel, started)
	for i := range plan {
		progress, err := writeSaveItem(w, previous, plan[i])
		if err != nil {
			return nil, err
		}

		res.WrittenEntries++
		if progress.Stored {
			res.StoredEntries++
		}
		if progress.Carried {
			res.CarriedEntries++
		}

		opts.Logger.Debug("bundle entry written",
			slog.String("entry", progress.Path),
			slog.Int64("size", progress.Size),
			slog.Bool("stored", progress.Stored),
			slog.Bool("carried", progress.Carried),
		)

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(progress)
		}
	}

	if err := w.close(); err != nil {
		return nil, err
	}

	if err := f.Chmod(opts.FileMode); err != nil {
		return nil, fmt.Errorf("%w: chmod %s: %w", ErrIO, tmpPath, err)
	}

	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("%w: sync %s: %w", ErrIO, tmpPath, err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, tmpPath, err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: close %s: %w", ErrIO, tmpPath, err)
	}
	f = nil

	// The previous bundle may be the destination; release it before replacing.
	if previous != nil {
		_ = previous.Close()
		previous = nil
	}

	if err := writeBackup(path, opts.BackupKeep); err != nil {
		return nil, err
	}

	if err := replaceFile(tmpPath, path); err != nil {
		return nil, err
	}
	committed = true

	res.Bytes = info.Size()
	res.Duration = time.Since(started)

	opts.Logger.Debug("bundle saved",
		slog.String("path", path),
		slog.Int("entries", res.WrittenEntries),
		slog.Int("carried", res.CarriedEntries),
		slog.Int64("bytes", res.Bytes),
		slog.Duration("duration", res.Duration),
	)

	return res, nil
}

// planSave validates state and returns entries in write order.
// Paths are written exactly as given; non-canonical paths and duplicates are rejected.
func planSave(state *BundleState) ([]saveItem, error) {
	plan := make([]saveItem, 0, 3+len(state.Themes)+len(state.Media))
	plan = append(plan,
		saveItem{path: ManifestFile, text: state.Manifest},
		saveItem{path: SlidesFile, text: state.Slides},
		saveItem{path: ArrangementFile, text: state.Arrangement},
	)

	for _, theme := range state.Themes {
		name, err := checkEntryPath(theme.Filename)
		if err != nil {
			return nil, fmt.Errorf("theme: %w", err)
		}

		if !isThemePath(name) {
			return nil, fmt.Errorf("%w: theme %q must be %s*%s", ErrValidation, theme.Filename, ThemesDir, themeExt)
		}

		plan = append(plan, saveItem{path: name, text: theme.Content})
	}

	for i := range state.Media {
		ref := state.Media[i]
		name, err := checkEntryPath(ref.BundlePath)
		if err != nil {
			return nil, fmt.Errorf("media %s: %w", ref.ID, err)
		}

		if !ref.IsBundleSource() && ref.SourcePath == "" {
			return nil, fmt.Errorf("%w: media %s has no source path", ErrValidation, name)
		}

		plan = append(plan, saveItem{path: name, ref: &ref})
	}

	seen := make(map[string]struct{}, len(plan))
	for _, item := range plan {
		if _, exists := seen[item.path]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntryPath, item.path)
		}

		seen[item.path] = struct{}{}
	}

	return plan, nil
}

// openPreviousBundle opens the carry-over source when any media ref needs it
// and checks every carried entry exists before anything is written.
func openPreviousBundle(path string, plan []saveItem, opts SaveOptions) (*archiveReader, error) {
	var carried []string
	for _, item := range plan {
		if item.ref != nil && item.ref.IsBundleSource() {
			carried = append(carried, item.ref.BundleSourcePath())
		}
	}

	if len(carried) == 0 {
		return nil, nil
	}

	source := opts.PreviousBundle
	if source == "" {
		source = path
	}

	r, err := openArchive(source)
	if err != nil {
		return nil, fmt.Errorf("carry media from %s: %w", source, err)
	}

	for _, name := range carried {
		if _, err := r.lookup(name); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("carry media from %s: %w", source, err)
		}
	}

	return r, nil
}

// writeSaveItem writes one planned entry.
func writeSaveItem(w *archiveWriter, previous *archiveReader, item saveItem) (SaveEntryProgress, error) {
	progress := SaveEntryProgress{Path: item.path}

	switch {
	case item.ref == nil:
		stored, err := w.writeEntry(item.path, []byte(item.text))
		if err != nil {
			return progress, err
		}

		progress.Size = int64(len(item.text))
		progress.Stored = stored

	case item.ref.IsBundleSource():
		f, err := previous.copyRaw(w, item.ref.BundleSourcePath(), item.path)
		if err != nil {
			return progress, err
		}

		progress.Size = int64(f.UncompressedSize64)
		progress.Stored = f.Method == 0
		progress.Carried = true

	default:
		src, err := os.Open(item.ref.SourcePath)
		if err != nil {
			return progress, fmt.Errorf("%w: media source %s for %s: %w", ErrIO, item.ref.SourcePath, item.path, err)
		}
		defer func() { _ = src.Close() }()

		n, stored, err := w.writeEntryFrom(item.path, src)
		if err != nil {
			return progress, err
		}

		progress.Size = n
		progress.Stored = stored
	}

	return progress, nil
}
