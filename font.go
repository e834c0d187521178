// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"fmt"

	"golang.org/x/image/font/sfnt"
)

// ImportFonts builds font entries for the given files, in order.
// Any unreadable file fails the whole batch; no partial result is returned.
func ImportFonts(paths []string) ([]FontEntry, error) {
	return ImportFontsWithOptions(paths, ImportOptions{})
}

// ImportFontsWithOptions is ImportFonts with explicit options.
func ImportFontsWithOptions(paths []string, opts ImportOptions) ([]FontEntry, error) {
	opts.applyDefaults()

	entries := make([]FontEntry, 0, len(paths))
	for _, p := range paths {
		id, err := opts.NewID()
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", p, err)
		}

		data, err := readImportFile(p)
		if err != nil {
			return nil, err
		}

		ext := extensionOf(p)
		entry := FontEntry{
			ID:       id,
			Filename: fileNameOf(p),
			Path:     derivedEntryPath(FontsDir, id, ext),
			MIME:     FontMIMEType(ext),
			SHA256:   HashBytes(data),
			ByteSize: uint64(len(data)),
		}
		entry.Family, entry.Subfamily = fontNames(data)

		entries = append(entries, entry)
	}

	return entries, nil
}

// fontNames reads family and subfamily from a TrueType/OpenType name table.
// WOFF and unparseable files report empty names.
func fontNames(data []byte) (string, string) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", ""
	}

	var buf sfnt.Buffer
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil {
		return "", ""
	}

	subfamily, err := f.Name(&buf, sfnt.NameIDSubfamily)
	if err != nil {
		subfamily = ""
	}

	return family, subfamily
}
