package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration
)

const (
	// Thumbnail bounding box
	defaultMaxWidth  = 122
	defaultMaxHeight = 150

	defaultMaxPixels = 100 * 1000 * 1000 // 100 megapixels
)

// ErrImageDecode is returned when cover bytes cannot be decoded as an
// image in any registered format.
var ErrImageDecode = errors.New("image decode failed")

// Renderer decodes cover bytes and produces a bounded PNG thumbnail.
type Renderer struct {
	MaxWidth  int
	MaxHeight int
	MaxPixels int // Total pixel count limit for decode (width * height)
	Filter    imaging.ResampleFilter
}

// Thumbnail holds the encoded PNG and its dimensions.
type Thumbnail struct {
	Data   []byte
	Width  int
	Height int
}

// NewRenderer creates a renderer with the standard thumbnail bounds.
func NewRenderer() *Renderer {
	return &Renderer{
		MaxWidth:  defaultMaxWidth,
		MaxHeight: defaultMaxHeight,
		MaxPixels: defaultMaxPixels,
		Filter:    imaging.Lanczos,
	}
}

// Render decodes input, shrinks it to fit within the bounding box
// preserving aspect ratio (never upscaling), and encodes it as PNG.
// Decoding goes through image.Decode format auto-detection; the pixel
// result is always NRGBA regardless of the source color model
// (CMYK JPEG, paletted PNG, grayscale).
func (r *Renderer) Render(input []byte) (Thumbnail, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err == nil && r.MaxPixels > 0 {
		pixels := uint64(cfg.Width) * uint64(cfg.Height)
		if pixels > uint64(r.MaxPixels) {
			return Thumbnail{}, fmt.Errorf("%w: image too large to decode: %dx%d", ErrImageDecode, cfg.Width, cfg.Height)
		}
	}

	src, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return Thumbnail{}, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	// Fit shrinks to the box and returns an NRGBA clone when the source
	// is already within bounds, which also handles color normalization.
	fitted := imaging.Fit(src, r.MaxWidth, r.MaxHeight, r.Filter)

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, fitted); err != nil {
		return Thumbnail{}, fmt.Errorf("png encode failed: %w", err)
	}

	return Thumbnail{
		Data:   buf.Bytes(),
		Width:  fitted.Bounds().Dx(),
		Height: fitted.Bounds().Dy(),
	}, nil
}
