// Package transcode downsamples and re-encodes oversized images before they
// are stored. Every failure returns the original payload.
package transcode

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"clipstash/internal/models"
)

const (
	DefaultSoftLimitBytes int64   = 2 * 1024 * 1024
	DefaultMaxDimension           = 2048
	DefaultMinScale       float64 = 0.15
	DefaultQuality                = 82

	outputMIME       = "image/jpeg"
	outputExtension  = ".jpg"
	unitScaleEpsilon = 0.001
)

// Options bounds the transcoder. Zero values fall back to the defaults.
type Options struct {
	SoftLimitBytes int64
	MaxDimension   int
	MinScale       float64
	Quality        int
}

// Payload is an image (or any) binary with its declared type and name.
type Payload struct {
	Data []byte
	MIME string
	Name string
}

// Transcoder shrinks large images.
type Transcoder struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Transcoder.
func New(opts Options, logger *slog.Logger) *Transcoder {
	if opts.SoftLimitBytes <= 0 {
		opts.SoftLimitBytes = DefaultSoftLimitBytes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.MinScale <= 0 || opts.MinScale > 1 {
		opts.MinScale = DefaultMinScale
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcoder{opts: opts, logger: logger.With("component", "transcode")}
}

// Options returns the effective options.
func (t *Transcoder) Options() Options {
	return t.opts
}

// Transcode returns a smaller re-encoded copy of in when in is an image above
// the soft limit and re-encoding actually saves bytes; otherwise in itself.
func (t *Transcoder) Transcode(ctx context.Context, in Payload) Payload {
	if !models.IsImageMIME(in.MIME) || int64(len(in.Data)) <= t.opts.SoftLimitBytes {
		return in
	}
	if ctx.Err() != nil {
		return in
	}

	src, format, err := image.Decode(bytes.NewReader(in.Data))
	if err != nil {
		t.logger.Debug("image decode failed, keeping original", "name", in.Name, "mime", in.MIME, "error", err)
		return in
	}

	bounds := src.Bounds()
	scale := t.Scale(bounds.Dx(), bounds.Dy())
	if scale >= 1-unitScaleEpsilon {
		return in
	}

	width := max(1, int(math.Round(float64(bounds.Dx())*scale)))
	height := max(1, int(math.Round(float64(bounds.Dy())*scale)))

	// JPEG has no alpha; flatten onto white before resampling.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: t.opts.Quality}); err != nil {
		t.logger.Debug("image encode failed, keeping original", "name", in.Name, "error", err)
		return in
	}
	if buf.Len() >= len(in.Data) {
		return in
	}

	t.logger.Debug("image transcoded",
		"name", in.Name,
		"from_format", format,
		"from_bytes", len(in.Data),
		"to_bytes", buf.Len(),
		"width", width,
		"height", height,
	)
	return Payload{Data: buf.Bytes(), MIME: outputMIME, Name: renameExtension(in.Name)}
}

// Scale returns the uniform downscale factor for an image of the given size.
func (t *Transcoder) Scale(width, height int) float64 {
	longer := max(width, height)
	if longer <= 0 {
		return 1
	}
	scale := math.Min(1, float64(t.opts.MaxDimension)/float64(longer))
	return math.Max(scale, t.opts.MinScale)
}

func renameExtension(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "image" + outputExtension
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + outputExtension
}
