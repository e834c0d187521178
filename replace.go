// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// replaceFile moves src over dst. Rename within one directory is atomic on
// POSIX systems and on Windows via MoveFileEx.
func replaceFile(src string, dst string) error {
	return replaceFileWith(os.Rename, src, dst)
}

// replaceFileWith is replaceFile with the rename call supplied by the caller.
// When rename fails and dst is an existing regular file, dst is removed and
// the rename retried; between those two calls dst briefly does not exist.
// Directories, links and other non-regular destinations are never removed.
func replaceFileWith(rename func(string, string) error, src string, dst string) error {
	err := rename(src, dst)
	if err == nil {
		return nil
	}

	// Never drop dst when there is nothing to put in its place.
	if _, statErr := os.Lstat(src); statErr != nil {
		return fmt.Errorf("%w: rename %s to %s: %w", ErrIO, src, dst, err)
	}

	info, statErr := os.Lstat(dst)
	if statErr != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: rename %s to %s: %w", ErrIO, src, dst, err)
	}

	if rmErr := os.Remove(dst); rmErr != nil {
		return fmt.Errorf("%w: replace %s: rename: %v: remove: %w", ErrIO, dst, err, rmErr)
	}

	if err := rename(src, dst); err != nil {
		return fmt.Errorf("%w: rename %s to %s: %w", ErrIO, src, dst, err)
	}

	return nil
}

// createSiblingTemp creates a temporary file next to dst so the final
// replace stays on one filesystem.
func createSiblingTemp(dst string) (*os.File, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory %s: %w", ErrIO, dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(dst)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: create temporary file in %s: %w", ErrIO, dir, err)
	}

	return f, nil
}

// fileExists reports whether path names an existing file system object.
func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
}
