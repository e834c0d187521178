// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// NormalizePath converts an archive path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, `/`)
	p = strings.TrimPrefix(p, "./")
	return p
}

// checkEntryPath accepts raw only when it is already a canonical archive path:
// non-empty, slash-separated, relative, with no empty, "." or ".." segments.
// The path is never rewritten, so the name written is the name the caller gave.
func checkEntryPath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidEntryPath)
	}

	if strings.ContainsAny(raw, "\\\x00") || strings.HasPrefix(raw, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
	}

	for segment := range strings.SplitSeq(raw, "/") {
		switch segment {
		case "", ".", "..":
			return "", fmt.Errorf("%w: %q has an empty, \".\" or \"..\" segment", ErrInvalidEntryPath, raw)
		}
	}

	return raw, nil
}

// isThemePath reports whether an archive path is an embedded theme document.
func isThemePath(name string) bool {
	return strings.HasPrefix(name, ThemesDir) && strings.HasSuffix(name, themeExt)
}

// hasDirPrefix reports whether archive path name lies under dir (given with or without trailing slash).
// name is compared as stored; only dir is normalized.
func hasDirPrefix(name string, dir string) bool {
	dir = NormalizePath(dir)
	if dir == "" {
		return true
	}

	return strings.HasPrefix(name, dir+"/")
}

// fileNameOf returns the final path segment, or "unknown" when there is none.
func fileNameOf(p string) string {
	base := filepath.Base(p)
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "unknown"
	}

	return base
}

// extensionOf returns the lower-cased extension without the dot.
// Dot files like ".bashrc" have no extension.
func extensionOf(p string) string {
	base := filepath.Base(p)
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 {
		return ""
	}

	return strings.ToLower(base[idx+1:])
}

// derivedEntryPath builds "<dir><first 8 hex of id>.<ext>", omitting the dot for empty ext.
func derivedEntryPath(dir string, id string, ext string) string {
	name := shortID(id)
	if ext != "" {
		name += "." + ext
	}

	return dir + name
}
