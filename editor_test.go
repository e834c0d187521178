// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeEditorBundle writes a bundle with one theme, two media payloads, and one font.
func writeEditorBundle(t *testing.T, path string) {
	t.Helper()

	entries := append(baseEntries(),
		zipEntry{name: "themes/dark.json", data: `{"bg":"#000"}`},
		zipEntry{name: "media/aaaa0001.png", data: "png-bytes", stored: true},
		zipEntry{name: "media/bbbb0002.mp3", data: "mp3-bytes"},
		zipEntry{name: "fonts/cccc0003.ttf", data: "ttf-bytes"},
	)
	writeTestZip(t, path, entries...)
}

func TestOpenEditorStagesBundleContents(t *testing.T) {
	t.Parallel()

	bundlePath := filepath.Join(t.TempDir(), "show.cpres")
	writeEditorBundle(t, bundlePath)

	editor, err := OpenEditor(bundlePath)
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}

	if editor.Path() != bundlePath {
		t.Fatalf("Path()=%q, want %q", editor.Path(), bundlePath)
	}

	state := editor.State()
	if state.Manifest != testManifest || state.Slides != testSlides || state.Arrangement != testArrangement {
		t.Fatalf("unexpected staged text: %+v", state)
	}
	if len(state.Themes) != 1 || state.Themes[0].Filename != "themes/dark.json" {
		t.Fatalf("Themes=%+v", state.Themes)
	}
	if len(state.Media) != 3 {
		t.Fatalf("len(Media)=%d, want 3", len(state.Media))
	}

	first := state.Media[0]
	if first.ID != "aaaa0001" || first.BundlePath != "media/aaaa0001.png" || first.SourcePath != BundleSource("media/aaaa0001.png") {
		t.Fatalf("Media[0]=%+v", first)
	}
	if !first.IsBundleSource() {
		t.Fatal("opened media must be bundle-sourced")
	}

	state.Media[0].SourcePath = "/tmp/elsewhere"
	if editor.State().Media[0].SourcePath == "/tmp/elsewhere" {
		t.Fatal("State must return a copy")
	}
}

func TestOpenEditorErrors(t *testing.T) {
	t.Parallel()

	if _, err := OpenEditor("  "); !errors.Is(err, ErrInvalidEntryPath) {
		t.Fatalf("empty path error=%v, want ErrInvalidEntryPath", err)
	}

	_, err := OpenEditor(filepath.Join(t.TempDir(), "missing.cpres"))
	if KindOf(err) != KindIO {
		t.Fatalf("missing bundle kind=%q, err=%v", KindOf(err), err)
	}
}

func TestEditorCommitAddRemoveThemes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bundlePath := filepath.Join(dir, "show.cpres")
	writeEditorBundle(t, bundlePath)

	photo := writeTestFile(t, dir, "src/cross.jpg", []byte("fresh-jpeg"))
	imported, err := ImportMediaWithOptions([]string{photo}, ImportOptions{
		NewID: sequentialIDs("dddd0004-0000-4000-8000-000000000000"),
	})
	if err != nil {
		t.Fatalf("ImportMediaWithOptions: %v", err)
	}

	editor, err := OpenEditor(bundlePath)
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}

	if err := editor.AddMedia(imported[0], photo); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}
	if err := editor.RemoveMedia("media/bbbb0002.mp3"); err != nil {
		t.Fatalf("RemoveMedia: %v", err)
	}
	if err := editor.PutTheme("themes/light.json", `{"bg":"#fff"}`); err != nil {
		t.Fatalf("PutTheme new: %v", err)
	}
	if err := editor.PutTheme("themes/dark.json", `{"bg":"#111"}`); err != nil {
		t.Fatalf("PutTheme replace: %v", err)
	}
	editor.SetSlides(`[]`)

	res, err := editor.Commit(SaveOptions{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.CarriedEntries != 2 {
		t.Fatalf("CarriedEntries=%d, want 2", res.CarriedEntries)
	}

	bundle, err := Open(bundlePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if bundle.Slides != `[]` {
		t.Fatalf("Slides=%q", bundle.Slides)
	}
	if len(bundle.Themes) != 2 || bundle.Themes[0].Content != `{"bg":"#111"}` || bundle.Themes[1].Filename != "themes/light.json" {
		t.Fatalf("Themes=%+v", bundle.Themes)
	}

	entries, err := MediaEntries(bundlePath)
	if err != nil {
		t.Fatalf("MediaEntries: %v", err)
	}

	got := make(map[string]EntryInfo, len(entries))
	for _, e := range entries {
		got[e.Path] = e
	}
	if _, ok := got["media/bbbb0002.mp3"]; ok {
		t.Fatal("removed media still present")
	}
	if e, ok := got["media/aaaa0001.png"]; !ok || !e.IsStored() {
		t.Fatalf("carried media lost its stored method: %+v", e)
	}
	if _, ok := got["fonts/cccc0003.ttf"]; !ok {
		t.Fatal("font was not carried")
	}

	data, err := ReadMedia(bundlePath, "media/dddd0004.jpg")
	if err != nil {
		t.Fatalf("ReadMedia: %v", err)
	}
	if string(data) != "fresh-jpeg" {
		t.Fatalf("new media=%q", data)
	}

	for _, ref := range editor.State().Media {
		if !ref.IsBundleSource() {
			t.Fatalf("ref %+v must be bundle-sourced after commit", ref)
		}
	}

	// The source file is no longer needed once committed.
	if err := os.Remove(photo); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	editor.SetArrangement(`{"order":[]}`)
	if _, err := editor.Commit(SaveOptions{}); err != nil {
		t.Fatalf("second Commit: %v", err)
	}

	data, err = ReadMedia(bundlePath, "media/dddd0004.jpg")
	if err != nil {
		t.Fatalf("ReadMedia after second commit: %v", err)
	}
	if string(data) != "fresh-jpeg" {
		t.Fatalf("media after second commit=%q", data)
	}

	assertNoTempFiles(t, dir)
}

func TestEditorValidation(t *testing.T) {
	t.Parallel()

	bundlePath := filepath.Join(t.TempDir(), "show.cpres")
	writeEditorBundle(t, bundlePath)

	editor, err := OpenEditor(bundlePath)
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}

	if err := editor.SetManifest(`{"formatVersion":1}`); !errors.Is(err, ErrValidation) {
		t.Fatalf("SetManifest error=%v, want ErrValidation", err)
	}
	if err := editor.SetManifest(`{"formatVersion":2,"presentationId":"p-2"}`); err != nil {
		t.Fatalf("SetManifest valid: %v", err)
	}

	if err := editor.PutTheme("styles/dark.css", "x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("PutTheme error=%v, want ErrValidation", err)
	}
	if err := editor.PutTheme("", "x"); !errors.Is(err, ErrInvalidEntryPath) {
		t.Fatalf("PutTheme empty error=%v, want ErrInvalidEntryPath", err)
	}
	for _, name := range []string{`themes\light.json`, "themes/../light.json", "/themes/light.json"} {
		if err := editor.PutTheme(name, "x"); !errors.Is(err, ErrInvalidEntryPath) {
			t.Fatalf("PutTheme(%q) error=%v, want ErrInvalidEntryPath", name, err)
		}
	}

	if err := editor.AddMedia(MediaEntry{ID: "x", Path: "media/aaaa0001.png"}, "/tmp/a.png"); !errors.Is(err, ErrDuplicateEntryPath) {
		t.Fatalf("AddMedia duplicate error=%v, want ErrDuplicateEntryPath", err)
	}
	for _, name := range []string{"media/../x.png", `media\x.png`, "/media/x.png"} {
		if err := editor.AddMedia(MediaEntry{ID: "z", Path: name}, "/tmp/x.png"); !errors.Is(err, ErrInvalidEntryPath) {
			t.Fatalf("AddMedia(%q) error=%v, want ErrInvalidEntryPath", name, err)
		}
	}
	if err := editor.AddFont(FontEntry{ID: "y", Path: "fonts/eeee0005.otf"}, " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("AddFont without source error=%v, want ErrValidation", err)
	}

	if err := editor.RemoveMedia("media/none.png"); !errors.Is(err, ErrMissingEntry) {
		t.Fatalf("RemoveMedia error=%v, want ErrMissingEntry", err)
	}
	if err := editor.RemoveMedia("themes/dark.json"); !errors.Is(err, ErrMissingEntry) {
		t.Fatalf("RemoveMedia on theme error=%v, want ErrMissingEntry", err)
	}
	if err := editor.DeleteTheme("themes/none.json"); !errors.Is(err, ErrMissingEntry) {
		t.Fatalf("DeleteTheme error=%v, want ErrMissingEntry", err)
	}
	if err := editor.DeleteTheme("themes/dark.json"); err != nil {
		t.Fatalf("DeleteTheme: %v", err)
	}
	if len(editor.State().Themes) != 0 {
		t.Fatal("theme not deleted")
	}
}

func TestEditorRemoveDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bundlePath := filepath.Join(dir, "show.cpres")
	writeEditorBundle(t, bundlePath)

	editor, err := OpenEditor(bundlePath)
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}

	if n := editor.RemoveDir("media", "themes/"); n != 3 {
		t.Fatalf("RemoveDir removed %d, want 3", n)
	}
	if n := editor.RemoveDir("media"); n != 0 {
		t.Fatalf("second RemoveDir removed %d, want 0", n)
	}

	if _, err := editor.Commit(SaveOptions{BackupKeep: 1}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, err := ListEntries(bundlePath)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}

	want := []string{ManifestFile, SlidesFile, ArrangementFile, "fonts/cccc0003.ttf"}
	if len(entries) != len(want) {
		t.Fatalf("entries=%+v, want %v", entries, want)
	}
	for i, e := range entries {
		if e.Path != want[i] {
			t.Fatalf("entries[%d]=%q, want %q", i, e.Path, want[i])
		}
	}

	backup, err := MediaEntries(bundlePath + backupSuffix)
	if err != nil {
		t.Fatalf("MediaEntries(backup): %v", err)
	}
	if len(backup) != 3 {
		t.Fatalf("backup media=%d, want 3", len(backup))
	}
}

func TestEditorCommitFailureKeepsBundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bundlePath := filepath.Join(dir, "show.cpres")
	writeEditorBundle(t, bundlePath)
	before := readTestFile(t, bundlePath)

	editor, err := OpenEditor(bundlePath)
	if err != nil {
		t.Fatalf("OpenEditor: %v", err)
	}

	if err := editor.AddMedia(MediaEntry{ID: "ffff0006", Path: "media/ffff0006.png"}, filepath.Join(dir, "gone.png")); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}

	if _, err := editor.Commit(SaveOptions{}); !errors.Is(err, ErrIO) {
		t.Fatalf("Commit error=%v, want ErrIO", err)
	}

	if string(readTestFile(t, bundlePath)) != string(before) {
		t.Fatal("failed commit modified the bundle")
	}
	if !editor.State().Media[0].IsBundleSource() {
		t.Fatal("failed commit must not rewrite staged refs")
	}
	assertNoTempFiles(t, dir)
}

func TestEntryID(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"media/3f2a9c1b.png": "3f2a9c1b",
		"fonts/0a0b0c0d":     "0a0b0c0d",
		"media/.hidden":      ".hidden",
	}
	for in, want := range cases {
		if got := entryID(in); got != want {
			t.Fatalf("entryID(%q)=%q, want %q", in, got, want)
		}
	}
}
