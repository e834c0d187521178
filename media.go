// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"fmt"
	"os"
)

// ImportMedia builds media entries for the given files, in order.
// Any unreadable file fails the whole batch; no partial result is returned.
func ImportMedia(paths []string) ([]MediaEntry, error) {
	return ImportMediaWithOptions(paths, ImportOptions{})
}

// ImportMediaWithOptions is ImportMedia with explicit options.
func ImportMediaWithOptions(paths []string, opts ImportOptions) ([]MediaEntry, error) {
	opts.applyDefaults()

	entries := make([]MediaEntry, 0, len(paths))
	for _, p := range paths {
		entry, err := importMediaFile(p, opts)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// importMediaFile builds one media entry.
func importMediaFile(p string, opts ImportOptions) (MediaEntry, error) {
	id, err := opts.NewID()
	if err != nil {
		return MediaEntry{}, fmt.Errorf("import %s: %w", p, err)
	}

	ext := extensionOf(p)
	mime := MediaMIMEType(ext)

	data, err := readImportFile(p)
	if err != nil {
		return MediaEntry{}, err
	}

	entry := MediaEntry{
		ID:        id,
		Filename:  fileNameOf(p),
		Path:      derivedEntryPath(MediaDir, id, ext),
		MIME:      mime,
		SHA256:    HashBytes(data),
		ByteSize:  uint64(len(data)),
		MediaType: MediaTypeOf(mime),
	}

	if opts.MeasureImages && entry.MediaType == MediaTypeImage {
		entry.Width, entry.Height = decodeImageSize(data)
	}

	return entry, nil
}

// readImportFile reads a whole regular file for import.
func readImportFile(p string) ([]byte, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: import %s: %w", ErrIO, p, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: import %s: not a regular file", ErrIO, p)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: import %s: %w", ErrIO, p, err)
	}

	return data, nil
}
