// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import "strings"

// octetStream is the MIME type of unrecognized extensions.
const octetStream = "application/octet-stream"

var (
	// mediaMIMETypes maps lower-case media extensions to MIME types.
	mediaMIMETypes = map[string]string{
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"png":  "image/png",
		"gif":  "image/gif",
		"webp": "image/webp",
		"svg":  "image/svg+xml",
		"mp4":  "video/mp4",
		"webm": "video/webm",
		"mov":  "video/quicktime",
		"mp3":  "audio/mpeg",
		"wav":  "audio/wav",
		"ogg":  "audio/ogg",
	}

	// fontMIMETypes maps lower-case font extensions to MIME types.
	fontMIMETypes = map[string]string{
		"ttf":   "font/ttf",
		"otf":   "font/otf",
		"woff":  "font/woff",
		"woff2": "font/woff2",
	}
)

// MediaMIMEType returns the MIME type for a media extension (without dot, any case).
func MediaMIMEType(ext string) string {
	if mime, ok := mediaMIMETypes[strings.ToLower(ext)]; ok {
		return mime
	}

	return octetStream
}

// FontMIMEType returns the MIME type for a font extension (without dot, any case).
func FontMIMEType(ext string) string {
	if mime, ok := fontMIMETypes[strings.ToLower(ext)]; ok {
		return mime
	}

	return octetStream
}

// MediaTypeOf derives the coarse media class from a MIME type.
func MediaTypeOf(mime string) MediaType {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaTypeImage
	case strings.HasPrefix(mime, "video/"):
		return MediaTypeVideo
	case strings.HasPrefix(mime, "audio/"):
		return MediaTypeAudio
	case strings.HasPrefix(mime, "font/"):
		return MediaTypeFont
	default:
		return MediaTypeUnknown
	}
}
