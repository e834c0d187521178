// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
)

// copyBufferSize is the per-copy buffer used by streaming payload writes.
const copyBufferSize = 64 * 1024

// copyBufferPool reuses payload copy buffers between entries.
var copyBufferPool = sync.Pool{
	New: func() any {
		return new([copyBufferSize]byte)
	},
}

// copyBuffered copies src to dst with a pooled buffer.
func copyBuffered(dst io.Writer, src io.Reader) (int64, error) {
	buf := copyBufferPool.Get().(*[copyBufferSize]byte)
	defer copyBufferPool.Put(buf)

	return io.CopyBuffer(dst, src, buf[:])
}

// archiveReader provides named-entry random access to a bundle container.
type archiveReader struct {
	// zr owns the underlying file handle.
	zr *zip.ReadCloser
	// files maps stored entry names to their first occurrence.
	files map[string]*zip.File
	// path is the bundle path, used in error messages.
	path string
}

// openArchive opens the container at path and indexes its entries.
func openArchive(path string) (*archiveReader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, classifyOpenError(path, err)
	}

	r := &archiveReader{
		zr:    zr,
		files: make(map[string]*zip.File, len(zr.File)),
		path:  path,
	}

	for _, f := range zr.File {
		if _, exists := r.files[f.Name]; !exists {
			r.files[f.Name] = f
		}
	}

	return r, nil
}

// Close releases the container file handle.
func (r *archiveReader) Close() error {
	return r.zr.Close()
}

// entries returns archive entries in natural enumeration order.
func (r *archiveReader) entries() []*zip.File {
	return r.zr.File
}

// lookup resolves one entry by its exact stored name.
func (r *archiveReader) lookup(name string) (*zip.File, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingEntry, name)
	}

	return f, nil
}

// openEntry opens a decompressing stream for the named entry.
func (r *archiveReader) openEntry(name string) (io.ReadCloser, *zip.File, error) {
	f, err := r.lookup(name)
	if err != nil {
		return nil, nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, nil, classifyEntryError(r.path, name, "open", err)
	}

	return rc, f, nil
}

// readEntry reads the full uncompressed payload of the named entry.
func (r *archiveReader) readEntry(name string) ([]byte, error) {
	rc, _, err := r.openEntry(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, classifyEntryError(r.path, name, "read", err)
	}

	return data, nil
}

// readText reads the named entry as UTF-8 text.
func (r *archiveReader) readText(name string) (string, error) {
	data, err := r.readEntry(name)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s: entry %s is not valid UTF-8", ErrFormat, r.path, name)
	}

	return string(data), nil
}

// copyRaw copies the named entry without recompression into w under dstName.
func (r *archiveReader) copyRaw(w *archiveWriter, name string, dstName string) (*zip.File, error) {
	f, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	raw, err := f.OpenRaw()
	if err != nil {
		return nil, classifyEntryError(r.path, name, "open raw", err)
	}

	header := f.FileHeader
	header.Name = dstName
	dst, err := w.zw.CreateRaw(&header)
	if err != nil {
		return nil, fmt.Errorf("%w: create entry %s: %w", ErrIO, dstName, err)
	}

	if _, err := copyBuffered(dst, raw); err != nil {
		return nil, fmt.Errorf("%w: copy entry %s: %w", ErrIO, name, err)
	}

	return f, nil
}

// archiveWriter writes named entries sequentially in caller order.
type archiveWriter struct {
	zw       *zip.Writer
	store    *storeMatcher
	modified time.Time
}

// newArchiveWriter wraps w with a zip writer using the given store policy and deflate level.
func newArchiveWriter(w io.Writer, store *storeMatcher, level int, modified time.Time) *archiveWriter {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, deflateCompressor(level))

	return &archiveWriter{
		zw:       zw,
		store:    store,
		modified: modified,
	}
}

// createEntry starts a new entry and reports whether it is stored uncompressed.
func (w *archiveWriter) createEntry(name string) (io.Writer, bool, error) {
	method := w.store.methodFor(name)
	header := &zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: w.modified,
	}
	header.SetMode(0o644)

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return nil, false, fmt.Errorf("%w: create entry %s: %w", ErrIO, name, err)
	}

	return dst, method == zip.Store, nil
}

// writeEntry writes one in-memory payload.
func (w *archiveWriter) writeEntry(name string, data []byte) (bool, error) {
	dst, stored, err := w.createEntry(name)
	if err != nil {
		return false, err
	}

	if _, err := dst.Write(data); err != nil {
		return false, fmt.Errorf("%w: write entry %s: %w", ErrIO, name, err)
	}

	return stored, nil
}

// writeEntryFrom streams one payload from src and returns the copied size.
func (w *archiveWriter) writeEntryFrom(name string, src io.Reader) (int64, bool, error) {
	dst, stored, err := w.createEntry(name)
	if err != nil {
		return 0, false, err
	}

	n, err := copyBuffered(dst, src)
	if err != nil {
		return n, false, fmt.Errorf("%w: write entry %s: %w", ErrIO, name, err)
	}

	return n, stored, nil
}

// close writes the central directory. The underlying writer is not closed.
func (w *archiveWriter) close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("%w: finalize archive: %w", ErrIO, err)
	}

	return nil
}

// classifyOpenError maps container open failures to ErrIO or ErrFormat.
func classifyOpenError(path string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: open bundle %s: %w", ErrIO, path, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrFormat, path, err)
}

// classifyEntryError maps entry read failures to ErrIO or ErrFormat.
func classifyEntryError(path string, name string, op string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%w: %s entry %s in %s: %w", ErrIO, op, name, path, err)
	}

	return fmt.Errorf("%w: %s entry %s in %s: %w", ErrFormat, op, name, path, err)
}
