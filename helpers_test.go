// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

const (
	testManifest    = `{"formatVersion":1,"presentationId":"p-1","title":"Sunday"}`
	testSlides      = `[{"id":"s1","text":"Amazing grace"}]`
	testArrangement = `{"order":["s1"]}`
)

// zipEntry is one raw entry written by writeTestZip.
type zipEntry struct {
	name   string
	data   string
	stored bool
}

// writeTestZip builds a container directly, bypassing the bundle writer.
func writeTestZip(t *testing.T, path string, entries ...zipEntry) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}

	zw := zip.NewWriter(f)
	for _, e := range entries {
		method := zip.Deflate
		if e.stored {
			method = zip.Store
		}

		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: method})
		if err != nil {
			t.Fatalf("create entry %s: %v", e.name, err)
		}

		if _, err := w.Write([]byte(e.data)); err != nil {
			t.Fatalf("write entry %s: %v", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("close zip file: %v", err)
	}
}

// baseEntries returns the three required entries with test payloads.
func baseEntries() []zipEntry {
	return []zipEntry{
		{name: ManifestFile, data: testManifest},
		{name: SlidesFile, data: testSlides},
		{name: ArrangementFile, data: testArrangement},
	}
}

// writeTestFile writes data under dir and returns its path.
func writeTestFile(t *testing.T, dir string, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}

	return path
}

// readTestFile returns file contents or fails the test.
func readTestFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	return data
}

// baseState returns a state with the test JSON payloads and no media.
func baseState() *BundleState {
	return &BundleState{
		Manifest:    testManifest,
		Slides:      testSlides,
		Arrangement: testArrangement,
	}
}

// sequentialIDs returns an id generator yielding ids in order.
func sequentialIDs(ids ...string) func() (string, error) {
	next := 0
	return func() (string, error) {
		if next >= len(ids) {
			return "", fmt.Errorf("id generator exhausted after %d ids", len(ids))
		}

		id := ids[next]
		next++
		return id, nil
	}
}

// assertNoTempFiles fails when a save left temporary files in dir.
func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatalf("glob temp files: %v", err)
	}

	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}
