// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// DefaultThumbnailSize is the bounding box edge used when Thumbnail gets a non-positive size.
	DefaultThumbnailSize = 320
	// thumbnailQuality is the JPEG quality of generated thumbnails.
	thumbnailQuality = 85
)

// decodeImageSize decodes only the image header. Unknown or broken images report zero size.
func decodeImageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}

	return cfg.Width, cfg.Height
}

// Thumbnail reads one image payload from the bundle and returns a JPEG thumbnail
// fitted into a maxSize x maxSize box. Smaller images are not enlarged.
func Thumbnail(bundlePath string, mediaPath string, maxSize int) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultThumbnailSize
	}

	if mime := MediaMIMEType(extensionOf(mediaPath)); MediaTypeOf(mime) != MediaTypeImage || mime == "image/svg+xml" {
		return nil, fmt.Errorf("%w: thumbnail %s (%s)", ErrUnsupportedMedia, mediaPath, mime)
	}

	data, err := ReadMedia(bundlePath, mediaPath)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnsupportedMedia, mediaPath, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxSize || bounds.Dy() > maxSize {
		img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail %s: %w", mediaPath, err)
	}

	return out.Bytes(), nil
}
