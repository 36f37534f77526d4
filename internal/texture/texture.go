// Package texture wraps GPU-resident 2D images.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"isoengine/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrUnsupportedImageFormat = errors.New("texture: unsupported image format")

// UnsupportedImageFormatError reports a pixel buffer that cannot be uploaded
// as 32-bit RGBA.
type UnsupportedImageFormatError struct {
	Format string
	Reason string
}

func (e *UnsupportedImageFormatError) Error() string {
	return fmt.Sprintf("texture: unsupported image format %s: %s", e.Format, e.Reason)
}

func (e *UnsupportedImageFormatError) Is(target error) bool {
	return target == ErrUnsupportedImageFormat
}

// Texture owns exactly one driver handle from construction until Release.
// Pixel data is uploaded once; there is no re-upload.
type Texture struct {
	drv       gpu.Driver
	handle    gpu.Handle
	width     int
	height    int
	pixelated bool
	released  bool
}

// New uploads img, which must be an *image.RGBA or *image.NRGBA. Pixelated
// textures sample nearest-neighbor, others linearly.
func New(drv gpu.Driver, img image.Image, pixelated bool) (*Texture, error) {
	pix, w, h, err := packedPixels(img)
	if err != nil {
		return nil, err
	}

	filter := gpu.FilterLinear
	if pixelated {
		filter = gpu.FilterNearest
	}
	handle, err := drv.CreateTexture(gpu.TextureSpec{
		Width:  w,
		Height: h,
		Pixels: pix,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %dx%d texture: %w", w, h, err)
	}

	return &Texture{
		drv:       drv,
		handle:    handle,
		width:     w,
		height:    h,
		pixelated: pixelated,
	}, nil
}

// FromImage converts any decoded image to RGBA before uploading it. A nil
// image is rejected by New.
func FromImage(drv gpu.Driver, img image.Image, pixelated bool) (*Texture, error) {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, nil:
		return New(drv, img, pixelated)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return New(drv, rgba, pixelated)
}

func (t *Texture) Handle() gpu.Handle { return t.handle }
func (t *Texture) Width() int         { return t.width }
func (t *Texture) Height() int        { return t.height }
func (t *Texture) Pixelated() bool    { return t.pixelated }
func (t *Texture) Released() bool     { return t.released }

// Area is the number of pixels in the texture.
func (t *Texture) Area() int { return t.width * t.height }

// Size returns the dimensions as a vector.
func (t *Texture) Size() mgl32.Vec2 {
	return mgl32.Vec2{float32(t.width), float32(t.height)}
}

// Release deletes the driver handle. Calling it again is a no-op.
func (t *Texture) Release() {
	if t.released {
		return
	}
	t.drv.DeleteTexture(t.handle)
	t.released = true
}

// packedPixels returns tightly packed RGBA bytes for img.
func packedPixels(img image.Image) ([]byte, int, int, error) {
	var (
		pix    []byte
		stride int
		rect   image.Rectangle
		format string
	)
	switch m := img.(type) {
	case *image.RGBA:
		pix, stride, rect, format = m.Pix, m.Stride, m.Rect, "RGBA"
	case *image.NRGBA:
		pix, stride, rect, format = m.Pix, m.Stride, m.Rect, "NRGBA"
	case nil:
		return nil, 0, 0, &UnsupportedImageFormatError{Format: "nil", Reason: "no image"}
	default:
		return nil, 0, 0, &UnsupportedImageFormatError{Format: fmt.Sprintf("%T", img), Reason: "want 32-bit RGBA or NRGBA"}
	}

	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0, &UnsupportedImageFormatError{Format: format, Reason: "empty image"}
	}
	row := w * 4
	if stride < row || len(pix) < (h-1)*stride+row {
		return nil, 0, 0, &UnsupportedImageFormatError{
			Format: format,
			Reason: fmt.Sprintf("pixel buffer of %d bytes (stride %d) too short for %dx%d", len(pix), stride, w, h),
		}
	}
	if stride == row && len(pix) == row*h {
		return pix, w, h, nil
	}

	packed := make([]byte, row*h)
	for y := 0; y < h; y++ {
		copy(packed[y*row:(y+1)*row], pix[y*stride:y*stride+row])
	}
	return packed, w, h, nil
}
