// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"fmt"
	"io"
	"strings"
)

// entryReadCloser closes the owning archive together with the entry stream.
type entryReadCloser struct {
	io.ReadCloser
	archive *archiveReader
	name    string
}

// Read reads uncompressed entry bytes, tagging container failures.
func (e *entryReadCloser) Read(p []byte) (int, error) {
	n, err := e.ReadCloser.Read(p)
	if err != nil && err != io.EOF {
		return n, classifyEntryError(e.archive.path, e.name, "read", err)
	}

	return n, err
}

// Close closes the entry stream and the archive.
func (e *entryReadCloser) Close() error {
	entryErr := e.ReadCloser.Close()
	archiveErr := e.archive.Close()
	if entryErr != nil {
		return entryErr
	}

	return archiveErr
}

// ReadMedia reads one payload from the bundle at bundlePath without parsing
// or loading any other entry. mediaPath must match the stored entry name exactly.
func ReadMedia(bundlePath string, mediaPath string) ([]byte, error) {
	r, err := openArchive(bundlePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data, err := r.readEntry(mediaPath)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// OpenMedia opens one payload stream from the bundle at bundlePath.
// Closing the stream releases the bundle file.
func OpenMedia(bundlePath string, mediaPath string) (io.ReadCloser, error) {
	if strings.TrimSpace(mediaPath) == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntryPath, mediaPath)
	}

	r, err := openArchive(bundlePath)
	if err != nil {
		return nil, err
	}

	rc, _, err := r.openEntry(mediaPath)
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	return &entryReadCloser{ReadCloser: rc, archive: r, name: mediaPath}, nil
}
