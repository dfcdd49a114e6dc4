// Package imageproc validates, resizes, and encodes image attachments so
// they satisfy a provider's resolution and transport ceilings before they
// are placed in a message.
//
// Prepare is a pure function: the same input bytes and limits always yield
// the same ImageRef, and an output fed back into Prepare passes through
// untouched (already compliant).
package imageproc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"

	"metanoia/model"
)

// Limits holds the per-provider ceilings an attachment must satisfy.
type Limits struct {
	// MaxPixels is the resolution ceiling (width times height).
	MaxPixels int

	// MaxEncodedBytes is the transport ceiling on the encoded image
	// bytes, before base64 expansion.
	MaxEncodedBytes int
}

// Groq ceilings: 33,177,600 px resolution limit, 4 MiB for inline
// base64-encoded transport.
const (
	defaultMaxPixels       = 33_177_600
	defaultMaxEncodedBytes = 4 << 20
)

// JPEG quality ladder for the progressive size reduction.
const (
	qualityStart = 95
	qualityFloor = 30
	qualityStep  = 5
)

// DefaultLimits returns the Groq ceilings, the strictest in the table.
func DefaultLimits() Limits {
	return Limits{MaxPixels: defaultMaxPixels, MaxEncodedBytes: defaultMaxEncodedBytes}
}

// LimitsFor returns the ceilings for a profile's provider. A data table,
// like the registry's budget column.
func LimitsFor(profile model.Profile) Limits {
	switch profile.Provider {
	case "anthropic":
		return Limits{MaxPixels: defaultMaxPixels, MaxEncodedBytes: 5 << 20}
	case "ollama":
		// Local transport; only the resolution ceiling matters in
		// practice, but keep a generous byte cap as a sanity bound.
		return Limits{MaxPixels: defaultMaxPixels, MaxEncodedBytes: 20 << 20}
	default:
		return DefaultLimits()
	}
}

// Prepare validates and, where needed, downscales and re-encodes raw image
// bytes until they satisfy the limits, returning the provider-ready
// ImageRef. Returns model.ErrUnsupportedFormat for undecodable input and
// model.ErrImageTooLarge when no quality step satisfies the transport
// ceiling.
func Prepare(raw []byte, limits Limits) (model.ImageRef, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return model.ImageRef{}, fmt.Errorf("%w: %v", model.ErrUnsupportedFormat, err)
	}

	pixels := cfg.Width * cfg.Height

	// Already compliant JPEG bytes pass through untouched, so re-running
	// Prepare on its own output is a no-op.
	if format == "jpeg" && pixels <= limits.MaxPixels && len(raw) <= limits.MaxEncodedBytes {
		return newRef(raw, cfg.Width, cfg.Height), nil
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return model.ImageRef{}, fmt.Errorf("%w: %v", model.ErrUnsupportedFormat, err)
	}

	if pixels > limits.MaxPixels {
		img = downscale(img, limits.MaxPixels)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// Progressive quality reduction until the encoded bytes fit the
	// transport ceiling.
	for quality := qualityStart; quality >= qualityFloor; quality -= qualityStep {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return model.ImageRef{}, fmt.Errorf("encode image: %w", err)
		}
		if buf.Len() <= limits.MaxEncodedBytes {
			return newRef(buf.Bytes(), width, height), nil
		}
	}

	return model.ImageRef{}, fmt.Errorf("%w: %d bytes exceeds ceiling at minimum quality", model.ErrImageTooLarge, len(raw))
}

// downscale resizes proportionally so the pixel count fits maxPixels,
// preserving aspect ratio, with high-quality resampling.
func downscale(img image.Image, maxPixels int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	ratio := math.Sqrt(float64(maxPixels) / float64(width*height))
	newWidth := int(float64(width) * ratio)
	newHeight := int(float64(height) * ratio)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}
	// Flooring can still land a hair over the ceiling; trim until under.
	for newWidth*newHeight > maxPixels && newWidth > 1 {
		newWidth--
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func newRef(encoded []byte, width, height int) model.ImageRef {
	return model.ImageRef{
		DataURI:   "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(encoded),
		MimeType:  "image/jpeg",
		Width:     width,
		Height:    height,
		SizeBytes: len(encoded),
	}
}
