// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates uploaded product and category pictures and
// produces the JPEG thumbnails shown in listings.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// ThumbWidth is the width of listing thumbnails in pixels.
	ThumbWidth = 400

	// ThumbQuality is the JPEG quality of thumbnails.
	ThumbQuality = 80

	// MaxPixels rejects decompression bombs: 10000x10000 decodes to ~400 MB.
	MaxPixels = 100_000_000
)

// ErrUnsupported is returned for uploads that are not a raster image the
// shop can display and thumbnail.
var ErrUnsupported = errors.New("unsupported image type")

// allowedTypes maps accepted content types to file extensions.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Detect sniffs the content type of an upload and returns it with the
// matching file extension. Anything but JPEG, PNG, GIF or WebP yields
// ErrUnsupported.
func Detect(data []byte) (contentType, ext string, err error) {
	contentType = http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupported, contentType)
	}
	return contentType, ext, nil
}

// Image is an encoded picture with its dimensions.
type Image struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

// Thumbnail decodes data and returns a JPEG at most maxWidth pixels wide,
// preserving the aspect ratio. Smaller images are re-encoded at their own
// size, never upscaled. Transparent areas become white.
func Thumbnail(data []byte, maxWidth int) (*Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxWidth {
		h = int(float64(h) * float64(maxWidth) / float64(w))
		w = maxWidth
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: ThumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return &Image{Data: buf.Bytes(), Width: w, Height: h, ContentType: "image/jpeg"}, nil
}
