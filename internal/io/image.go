package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// ImageService provides image processing for document previews.
//
// ImageService is used to:
//   - Encode rendered preview pages as PNG
//   - Scale pages down to thumbnails for list views
//
// Example usage:
//
//	svc := NewImageService()
//
//	page, _ := svc.EncodePNG(ctx, img)
//	thumb, _ := svc.ResizeImage(ctx, page, 200, 200)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// EncodePNG encodes img as PNG bytes.
func (s *ImageService) EncodePNG(ctx context.Context, img image.Image) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved and images already within bounds keep their
// size. The result is PNG-encoded.
//
// The Catmull-Rom algorithm is used for high-quality resizing.
//
// Example:
//
//	// A 1240x1754 A4 page at 150 DPI becomes 141x200
//	thumb, err := svc.ResizeImage(ctx, pageData, 200, 200)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			// Height is the limiting factor
			width = int(float64(maxHeight) * ratio)
			height = maxHeight
		} else {
			height = int(float64(maxWidth) / ratio)
			width = maxWidth
		}
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return s.EncodePNG(ctx, dst)
}
