// Package thumbnail renders height-driven JPEG thumbnails from original
// uploads. Rendering is a pure function of the input bytes and the height.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/gift"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	JPEGQuality = 90
	ContentType = "image/jpeg"

	MaxImageWidth  = 4000
	MaxImageHeight = 4000
)

var (
	ErrDecode        = errors.New("thumbnail: not a decodable image")
	ErrInvalidHeight = errors.New("thumbnail: height must be positive")
	ErrTooLarge      = errors.New("thumbnail: image dimensions exceed the limit")
)

// Info describes an original upload without decoding its pixels.
type Info struct {
	Format string
	Width  int
	Height int
}

// Inspect reads the image header and reports its format and dimensions.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Validate checks the declared dimensions against maxWidth and maxHeight
// before decoding every pixel, so truncated files and decompression bombs
// are both rejected. Non-positive limits fall back to the defaults.
func Validate(data []byte, maxWidth, maxHeight int) (Info, error) {
	if maxWidth <= 0 {
		maxWidth = MaxImageWidth
	}
	if maxHeight <= 0 {
		maxHeight = MaxImageHeight
	}

	info, err := Inspect(data)
	if err != nil {
		return Info{}, err
	}
	if info.Width > maxWidth || info.Height > maxHeight {
		return Info{}, fmt.Errorf("%w: %dx%d (max %dx%d)", ErrTooLarge, info.Width, info.Height, maxWidth, maxHeight)
	}

	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return info, nil
}

// ScaledWidth derives the output width that keeps the aspect ratio when the
// height becomes targetHeight.
func ScaledWidth(width, height, targetHeight int) int {
	w := int(math.Round(float64(targetHeight) * float64(width) / float64(height)))
	if w < 1 {
		return 1
	}
	return w
}

// Render resizes original to targetHeight pixels tall and encodes it as a
// JPEG. Images larger or smaller than the target are scaled alike.
func Render(original []byte, targetHeight int) ([]byte, error) {
	if targetHeight <= 0 {
		return nil, ErrInvalidHeight
	}

	src, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	width := ScaledWidth(bounds.Dx(), bounds.Dy(), targetHeight)
	g := gift.New(gift.Resize(width, targetHeight, gift.LanczosResampling))

	resized := image.NewNRGBA(g.Bounds(bounds))
	g.Draw(resized, src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(resized), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten composites img over white; JPEG has no alpha channel.
func flatten(img image.Image) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	return dst
}

// Filename is the attachment name for a rendered thumbnail.
func Filename(imageID uint, height int) string {
	return fmt.Sprintf("thumbnail-%d-height-%dpx.jpg", imageID, height)
}
