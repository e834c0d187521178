// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenReadsPayloadsAndThemesInArchiveOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deck.cpres")
	entries := append(baseEntries(),
		zipEntry{name: "themes/zeta.json", data: `{"name":"zeta"}`},
		zipEntry{name: "media/aaaa0000.png", data: "png", stored: true},
		zipEntry{name: "themes/alpha.json", data: `{"name":"alpha"}`},
		zipEntry{name: "themes/readme.txt", data: "not a theme"},
		zipEntry{name: "other/themes/x.json", data: "{}"},
	)
	writeTestZip(t, path, entries...)

	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if b.Manifest != testManifest {
		t.Fatalf("Manifest=%q, want %q", b.Manifest, testManifest)
	}
	if b.Slides != testSlides {
		t.Fatalf("Slides=%q, want %q", b.Slides, testSlides)
	}
	if b.Arrangement != testArrangement {
		t.Fatalf("Arrangement=%q, want %q", b.Arrangement, testArrangement)
	}

	if len(b.Themes) != 2 {
		t.Fatalf("len(Themes)=%d, want 2: %+v", len(b.Themes), b.Themes)
	}
	if b.Themes[0].Filename != "themes/zeta.json" || b.Themes[1].Filename != "themes/alpha.json" {
		t.Fatalf("theme order = [%s, %s], want archive order", b.Themes[0].Filename, b.Themes[1].Filename)
	}
	if b.Themes[1].Content != `{"name":"alpha"}` {
		t.Fatalf("alpha content=%q", b.Themes[1].Content)
	}
}

func TestOpenPassesOpaquePayloadsThrough(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deck.cpres")
	writeTestZip(t, path,
		zipEntry{name: ManifestFile, data: testManifest},
		zipEntry{name: SlidesFile, data: "not json at all"},
		zipEntry{name: ArrangementFile, data: ""},
	)

	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if b.Slides != "not json at all" {
		t.Fatalf("Slides=%q", b.Slides)
	}
	if b.Arrangement != "" {
		t.Fatalf("Arrangement=%q, want empty", b.Arrangement)
	}
	if len(b.Themes) != 0 {
		t.Fatalf("len(Themes)=%d, want 0", len(b.Themes))
	}
}

func TestOpenFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entries  []zipEntry
		want     error
		kind     ErrorKind
		contains string
	}{
		{
			name: "empty manifest object",
			entries: []zipEntry{
				{name: ManifestFile, data: `{}`},
				{name: SlidesFile, data: testSlides},
				{name: ArrangementFile, data: testArrangement},
			},
			want:     ErrValidation,
			kind:     KindValidation,
			contains: ManifestKeyFormatVersion,
		},
		{
			name: "missing presentation id",
			entries: []zipEntry{
				{name: ManifestFile, data: `{"formatVersion":1}`},
				{name: SlidesFile, data: testSlides},
				{name: ArrangementFile, data: testArrangement},
			},
			want:     ErrValidation,
			kind:     KindValidation,
			contains: ManifestKeyPresentationID,
		},
		{
			name: "manifest is not an object",
			entries: []zipEntry{
				{name: ManifestFile, data: `[1,2]`},
				{name: SlidesFile, data: testSlides},
				{name: ArrangementFile, data: testArrangement},
			},
			want:     ErrValidation,
			kind:     KindValidation,
			contains: ManifestFile,
		},
		{
			name: "manifest is not json",
			entries: []zipEntry{
				{name: ManifestFile, data: `{"formatVersion":`},
				{name: SlidesFile, data: testSlides},
				{name: ArrangementFile, data: testArrangement},
			},
			want:     ErrJSON,
			kind:     KindJSON,
			contains: ManifestFile,
		},
		{
			name: "missing manifest",
			entries: []zipEntry{
				{name: SlidesFile, data: testSlides},
				{name: ArrangementFile, data: testArrangement},
			},
			want:     ErrMissingEntry,
			kind:     KindMissingEntry,
			contains: ManifestFile,
		},
		{
			name: "missing slides",
			entries: []zipEntry{
				{name: ManifestFile, data: testManifest},
				{name: ArrangementFile, data: testArrangement},
			},
			want:     ErrMissingEntry,
			kind:     KindMissingEntry,
			contains: SlidesFile,
		},
		{
			name: "missing arrangement",
			entries: []zipEntry{
				{name: ManifestFile, data: testManifest},
				{name: SlidesFile, data: testSlides},
			},
			want:     ErrMissingEntry,
			kind:     KindMissingEntry,
			contains: ArrangementFile,
		},
		{
			name: "slides not utf-8",
			entries: []zipEntry{
				{name: ManifestFile, data: testManifest},
				{name: SlidesFile, data: "\xff\xfe\xfd"},
				{name: ArrangementFile, data: testArrangement},
			},
			want:     ErrFormat,
			kind:     KindFormat,
			contains: SlidesFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "deck.cpres")
			writeTestZip(t, path, tt.entries...)

			_, err := Open(path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Open error=%v, want %v", err, tt.want)
			}
			if got := KindOf(err); got != tt.kind {
				t.Fatalf("KindOf=%q, want %q", got, tt.kind)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Fatalf("error %q does not name %q", err, tt.contains)
			}
		})
	}
}

func TestOpenNotAnArchive(t *testing.T) {
	t.Parallel()

	path := writeTestFile(t, t.TempDir(), "deck.cpres", []byte("definitely not a zip file"))

	_, err := Open(path)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error %q does not name bundle path", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.cpres")

	_, err := Open(path)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestOpenDuplicateThemeKeepsFirst(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deck.cpres")
	entries := append(baseEntries(),
		zipEntry{name: "themes/dark.json", data: `{"v":1}`},
		zipEntry{name: "themes/dark.json", data: `{"v":2}`},
	)
	writeTestZip(t, path, entries...)

	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if len(b.Themes) != 1 {
		t.Fatalf("len(Themes)=%d, want 1", len(b.Themes))
	}
	if b.Themes[0].Content != `{"v":1}` {
		t.Fatalf("theme content=%q, want first occurrence", b.Themes[0].Content)
	}
}

func TestReadManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "deck.cpres")
	writeTestZip(t, path, zipEntry{name: ManifestFile, data: testManifest})

	manifest, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if manifest != testManifest {
		t.Fatalf("manifest=%q", manifest)
	}
}

func TestValidateManifest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest string
		want     error
	}{
		{name: "valid", manifest: testManifest},
		{name: "extra keys and null values", manifest: `{"formatVersion":null,"presentationId":null,"x":[]}`},
		{name: "empty object", manifest: `{}`, want: ErrValidation},
		{name: "null", manifest: `null`, want: ErrValidation},
		{name: "string", manifest: `"manifest"`, want: ErrValidation},
		{name: "truncated", manifest: `{"formatVersion":1`, want: ErrJSON},
		{name: "empty text", manifest: ``, want: ErrJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateManifest(tt.manifest)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("ValidateManifest: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("ValidateManifest error=%v, want %v", err, tt.want)
			}
		})
	}
}
