package processor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/disintegration/imaging"
)

const _defaultMaxSide = 4096

type ImageProcessor struct {
	maxSide int
}

func New(opts ...Option) *ImageProcessor {
	p := &ImageProcessor{maxSide: _defaultMaxSide}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

type Option func(*ImageProcessor)

// MaxSide bounds the longer side of prepared images.
func MaxSide(px int) Option {
	return func(p *ImageProcessor) {
		p.maxSide = px
	}
}

// Prepare checks that data is a decodable image and downsizes it to fit
// maxSide x maxSide. Images already within bounds are returned untouched.
func (p *ImageProcessor) Prepare(data []byte) ([]byte, error) {
	img, format, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Prepare - decodeImage: %w", err)
	}

	b := img.Bounds()
	if b.Dx() <= p.maxSide && b.Dy() <= p.maxSide {
		return data, nil
	}

	fitted := imaging.Fit(img, p.maxSide, p.maxSide, imaging.Lanczos)

	res, err := encodeImage(fitted, format)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Prepare - encodeImage: %w", err)
	}

	return res, nil
}

func decodeImage(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errs.ErrUnsupportedImage, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errs.ErrUnsupportedImage, err)
	}

	return img, format, nil
}

func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var f imaging.Format

	switch format {
	case "jpeg":
		f = imaging.JPEG
	case "gif":
		f = imaging.GIF
	default:
		f = imaging.PNG
	}

	err := imaging.Encode(&buf, img, f)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - encodeImage - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
