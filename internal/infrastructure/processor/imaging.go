package processor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/xueshanchen/picbed/internal/dto"
	"github.com/xueshanchen/picbed/internal/infrastructure"
	"github.com/xueshanchen/picbed/pkg/types/errs"

	// webp uploads are decodable, thumbnails re-encode as png below
	_ "golang.org/x/image/webp"
)

const defaultMaxSize = 200

// ImageProcessor derives thumbnails bounded to a maxSize x maxSize box,
// preserving aspect ratio and never upscaling.
type ImageProcessor struct {
	maxSize int
}

var _ infrastructure.ThumbnailProcessor = (*ImageProcessor)(nil)

func New(maxSize int) *ImageProcessor {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}

	return &ImageProcessor{maxSize: maxSize}
}

func (p *ImageProcessor) Process(data []byte) (*dto.ProcessedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Process - image.Decode: %w", errs.ErrInvalidImage)
	}

	bounds := img.Bounds()

	thumb := imaging.Fit(img, p.maxSize, p.maxSize, imaging.Lanczos)

	encoded, encodedFormat, err := encodeImage(thumb, format)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Process - encodeImage: %w", err)
	}

	return &dto.ProcessedImage{
		Width:           bounds.Dx(),
		Height:          bounds.Dy(),
		Format:          format,
		Thumbnail:       encoded,
		ThumbnailFormat: encodedFormat,
	}, nil
}

func encodeImage(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	var f imaging.Format

	switch format {
	case "jpeg":
		f = imaging.JPEG
	case "png":
		f = imaging.PNG
	case "gif":
		f = imaging.GIF
	default:
		// imaging has no webp encoder
		f = imaging.PNG
		format = "png"
	}

	err := imaging.Encode(&buf, img, f)
	if err != nil {
		return nil, "", fmt.Errorf("ImageProcessor - encodeImage - imaging.Encode: %w", err)
	}

	return buf.Bytes(), format, nil
}
