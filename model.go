// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/woozymasta/pathrules"
)

// Fixed archive layout.
const (
	ManifestFile    = "manifest.json"
	SlidesFile      = "slides.json"
	ArrangementFile = "arrangement.json"
	ThemesDir       = "themes/"
	MediaDir        = "media/"
	FontsDir        = "fonts/"

	themeExt = ".json"
	// bundleSourcePrefix marks MediaFileRef.SourcePath values that point into a bundle.
	bundleSourcePrefix = "bundle:"
	// shortIDLen is the number of id hex characters used in derived entry paths.
	shortIDLen = 8
)

// Required manifest keys.
const (
	ManifestKeyFormatVersion  = "formatVersion"
	ManifestKeyPresentationID = "presentationId"
)

// MediaType is the coarse media class derived from the MIME type.
type MediaType string

// Media classes.
const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeAudio   MediaType = "audio"
	MediaTypeFont    MediaType = "font"
	MediaTypeUnknown MediaType = "unknown"
)

// ParsedBundle is a read-only snapshot of an opened bundle.
// JSON payloads are kept as raw text for the caller to interpret.
type ParsedBundle struct {
	Manifest    string      `json:"manifest" yaml:"manifest"`
	Slides      string      `json:"slides" yaml:"slides"`
	Arrangement string      `json:"arrangement" yaml:"arrangement"`
	Themes      []ThemeFile `json:"themes" yaml:"themes"`
}

// ThemeFile is one embedded theme document.
type ThemeFile struct {
	// Filename is the archive path, always under themes/ with a .json suffix.
	Filename string `json:"filename" yaml:"filename"`
	// Content is the opaque theme JSON.
	Content string `json:"content" yaml:"content"`
}

// MediaEntry describes one imported media file and its place inside a bundle.
type MediaEntry struct {
	// ID is a random unique token; two imports of the same bytes get different ids.
	ID string `json:"id" yaml:"id"`
	// Filename is the original base name, for display only.
	Filename string `json:"filename" yaml:"filename"`
	// Path is the canonical bundle path: media/<first 8 hex of id>.<ext>.
	Path string `json:"path" yaml:"path"`
	// MIME is inferred from the file extension.
	MIME string `json:"mime" yaml:"mime"`
	// SHA256 is the lowercase hex content digest.
	SHA256 string `json:"sha256" yaml:"sha256"`
	// ByteSize is the payload size in bytes.
	ByteSize uint64 `json:"byte_size" yaml:"byte_size"`
	// MediaType is the coarse class derived from MIME.
	MediaType MediaType `json:"media_type" yaml:"media_type"`
	// Width is the image width in pixels when measured.
	Width int `json:"width,omitempty" yaml:"width,omitempty"`
	// Height is the image height in pixels when measured.
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

// FontEntry describes one imported font file.
type FontEntry struct {
	ID        string `json:"id" yaml:"id"`
	Filename  string `json:"filename" yaml:"filename"`
	Path      string `json:"path" yaml:"path"`
	MIME      string `json:"mime" yaml:"mime"`
	SHA256    string `json:"sha256" yaml:"sha256"`
	ByteSize  uint64 `json:"byte_size" yaml:"byte_size"`
	Family    string `json:"family,omitempty" yaml:"family,omitempty"`
	Subfamily string `json:"subfamily,omitempty" yaml:"subfamily,omitempty"`
}

// BundleState is the writer input.
type BundleState struct {
	Manifest    string         `json:"manifest" yaml:"manifest"`
	Slides      string         `json:"slides" yaml:"slides"`
	Arrangement string         `json:"arrangement" yaml:"arrangement"`
	Themes      []ThemeFile    `json:"themes" yaml:"themes"`
	Media       []MediaFileRef `json:"media" yaml:"media"`
}

// MediaFileRef points one archive media path at its payload source.
type MediaFileRef struct {
	ID string `json:"id" yaml:"id"`
	// SourcePath is an absolute filesystem path, or "bundle:<archive path>"
	// to carry the payload over from the bundle being replaced.
	SourcePath string `json:"source_path" yaml:"source_path"`
	// BundlePath is the destination path inside the written archive.
	BundlePath string `json:"bundle_path" yaml:"bundle_path"`
}

// BundleSource returns the sentinel source value for an existing archive path.
func BundleSource(archivePath string) string {
	return bundleSourcePrefix + archivePath
}

// IsBundleSource reports whether the payload must be carried over from a bundle.
func (ref MediaFileRef) IsBundleSource() bool {
	return strings.HasPrefix(ref.SourcePath, bundleSourcePrefix)
}

// BundleSourcePath returns the archive path of a sentinel source.
// The bundle path is used when the sentinel carries no explicit path.
func (ref MediaFileRef) BundleSourcePath() string {
	p := strings.TrimPrefix(ref.SourcePath, bundleSourcePrefix)
	if strings.TrimSpace(p) == "" {
		return ref.BundlePath
	}

	return p
}

// EntryInfo describes one archive entry without its payload.
type EntryInfo struct {
	Path           string    `json:"path" yaml:"path"`
	Method         uint16    `json:"method" yaml:"method"`
	CompressedSize uint64    `json:"compressed_size" yaml:"compressed_size"`
	Size           uint64    `json:"size" yaml:"size"`
	CRC32          uint32    `json:"crc32" yaml:"crc32"`
	Modified       time.Time `json:"modified,omitzero" yaml:"modified,omitempty"`
}

// IsStored reports whether the entry payload is not compressed.
func (e *EntryInfo) IsStored() bool {
	return e.Method == 0
}

// SaveEntryProgress contains one completed entry write event from save flow.
type SaveEntryProgress struct {
	// Path is entry path written to archive.
	Path string `json:"path" yaml:"path"`
	// Size is uncompressed payload size.
	Size int64 `json:"size" yaml:"size"`
	// Stored reports whether the payload was written without compression.
	Stored bool `json:"stored,omitempty" yaml:"stored,omitempty"`
	// Carried reports whether the payload was copied from the previous bundle.
	Carried bool `json:"carried,omitempty" yaml:"carried,omitempty"`
}

// SaveOptions configures Save behavior.
type SaveOptions struct {
	// Logger receives best-effort cleanup failures and debug events; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// OnEntryDone is called after one entry is fully written to the temporary archive.
	OnEntryDone func(entry SaveEntryProgress) `json:"-" yaml:"-"`
	// Store defines ordered path rules for entries written without compression.
	// Empty rule set means every entry is deflated.
	Store []pathrules.Rule `json:"store,omitempty" yaml:"store,omitempty"`
	// StoreMatcherOptions control store path rule matching.
	StoreMatcherOptions pathrules.MatcherOptions `json:"store_matcher_options,omitzero" yaml:"store_matcher_options,omitempty"`
	// PreviousBundle is the source of "bundle:" media refs; empty means the destination itself.
	PreviousBundle string `json:"previous_bundle,omitempty" yaml:"previous_bundle,omitempty"`
	// CompressionLevel is the deflate level; zero means flate.DefaultCompression.
	CompressionLevel int `json:"compression_level,omitempty" yaml:"compression_level,omitempty"`
	// BackupKeep controls how many backup generations of the replaced file are kept.
	// 0 keeps none, 1 keeps `<bundle>.bak`, N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
	// FileMode is the permission of the written bundle; zero means 0o644.
	FileMode os.FileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
}

// SaveResult contains save output statistics.
type SaveResult struct {
	// WrittenEntries is number of entries written to archive.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// CarriedEntries is number of media entries copied from the previous bundle.
	CarriedEntries int `json:"carried_entries,omitempty" yaml:"carried_entries,omitempty"`
	// StoredEntries is number of entries written without compression.
	StoredEntries int `json:"stored_entries,omitempty" yaml:"stored_entries,omitempty"`
	// Bytes is the size of the final bundle file.
	Bytes int64 `json:"bytes" yaml:"bytes"`
	// Duration is end-to-end save duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ImportOptions configures media and font import.
type ImportOptions struct {
	// NewID generates entry ids; nil means random UUIDs.
	NewID func() (string, error) `json:"-" yaml:"-"`
	// MeasureImages decodes image headers to fill Width and Height.
	MeasureImages bool `json:"measure_images,omitempty" yaml:"measure_images,omitempty"`
}

// ExtractOptions configures ExtractMedia behavior.
type ExtractOptions struct {
	// Logger receives per-entry debug events; nil discards.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryInfo, written int64, outputPath string) `json:"-" yaml:"-"`
	// Prefixes limits extraction to entries under these archive directories.
	// Empty means media/ and fonts/.
	Prefixes []string `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
}

// applyDefaults fills zero-valued save options with defaults.
func (opts *SaveOptions) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	if opts.CompressionLevel == 0 {
		opts.CompressionLevel = flate.DefaultCompression
	}

	if opts.CompressionLevel < flate.HuffmanOnly || opts.CompressionLevel > flate.BestCompression {
		opts.CompressionLevel = flate.DefaultCompression
	}

	if opts.StoreMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.StoreMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.StoreMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.StoreMatcherOptions.DefaultAction = pathrules.ActionExclude
	}

	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}

	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
}

// applyDefaults fills zero-valued import options with defaults.
func (opts *ImportOptions) applyDefaults() {
	if opts.NewID == nil {
		opts.NewID = NewID
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}

	if len(opts.Prefixes) == 0 {
		opts.Prefixes = []string{MediaDir, FontsDir}
	}
}

// discardLogger returns a logger that drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
