// Package decode turns raw tile bytes into render payloads.
package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/gen2brain/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/metrics"
)

var (
	ErrEmpty  = errors.New("decode: empty tile")
	ErrFormat = errors.New("decode: unsupported tile format")
)

// Image is the payload of a decoded raster tile.
type Image struct {
	Address pyramid.Address
	Format  string
	Image   image.Image
}

func (i *Image) Width() int {
	return i.Image.Bounds().Dx()
}

func (i *Image) Height() int {
	return i.Image.Bounds().Dy()
}

// Raster decodes raw as png, jpeg, gif, webp, bmp or tiff.
func Raster(_ context.Context, w *Worker, _ pyramid.ViewWindow, a pyramid.Address, raw []byte) (*Image, error) {
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	start := time.Now()
	img, format, err := decodeImage(raw)
	metrics.DecodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: tile %s", ErrFormat, a)
		}
		return nil, fmt.Errorf("decode: tile %s: %w", a, err)
	}

	w.decoded.Add(1)

	return &Image{
		Address: a,
		Format:  format,
		Image:   img,
	}, nil
}

func decodeImage(raw []byte) (image.Image, string, error) {
	if isWebP(raw) {
		img, err := webp.Decode(bytes.NewReader(raw))
		return img, "webp", err
	}
	return image.Decode(bytes.NewReader(raw))
}

func isWebP(raw []byte) bool {
	return len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WEBP"
}

// Config reads only the header of raw. The seed command uses it to check
// that stored bytes are an image without decoding the pixels.
func Config(raw []byte) (image.Config, string, error) {
	if isWebP(raw) {
		cfg, err := webp.DecodeConfig(bytes.NewReader(raw))
		return cfg, "webp", err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return image.Config{}, "", ErrFormat
		}
		return image.Config{}, "", err
	}
	return cfg, format, nil
}
