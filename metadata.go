// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

// ListEntries opens a bundle and returns entry metadata without payload reads.
// Entries are returned in archive order; the manifest is not validated.
func ListEntries(path string) ([]EntryInfo, error) {
	r, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return listArchiveEntries(r), nil
}

// listArchiveEntries converts container headers to EntryInfo, skipping directory records.
func listArchiveEntries(r *archiveReader) []EntryInfo {
	files := r.entries()
	out := make([]EntryInfo, 0, len(files))
	for _, f := range files {
		if f.Name == "" || f.FileInfo().IsDir() {
			continue
		}

		out = append(out, EntryInfo{
			Path:           f.Name,
			Method:         f.Method,
			CompressedSize: f.CompressedSize64,
			Size:           f.UncompressedSize64,
			CRC32:          f.CRC32,
			Modified:       f.Modified,
		})
	}

	return out
}

// MediaEntries returns metadata for entries under media/ and fonts/.
func MediaEntries(path string) ([]EntryInfo, error) {
	entries, err := ListEntries(path)
	if err != nil {
		return nil, err
	}

	out := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		if hasDirPrefix(e.Path, MediaDir) || hasDirPrefix(e.Path, FontsDir) {
			out = append(out, e)
		}
	}

	return out, nil
}
