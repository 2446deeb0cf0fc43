// Package imaging normalizes raw face regions for stable matching.
// Every step is deterministic: identical input bytes always produce
// identical output bytes, which the recognizer's distance comparisons
// depend on.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/punchcardlabs/punchcard/internal/domain"
)

const (
	// Size is the fixed edge length of a normalized region. Enrollment
	// and matching must use the same value.
	Size = 128

	// MinRegion is the minimum acceptable input edge length.
	MinRegion = 50
)

// Decode parses an uploaded frame (jpeg, png, gif or bmp).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return img, nil
}

// Normalize converts a raw face region to the canonical matching form:
// single-channel luminance, local contrast equalization, fixed size.
func Normalize(region image.Image) (*image.Gray, error) {
	b := region.Bounds()
	if b.Dx() < MinRegion || b.Dy() < MinRegion {
		return nil, domain.ErrInsufficientResolution.WithError(
			fmt.Errorf("region %dx%d, need at least %dx%d", b.Dx(), b.Dy(), MinRegion, MinRegion))
	}

	gray := toGray(region)
	equalized := equalizeLocal(gray, claheTileGrid, claheClipLimit)
	return resizeGray(equalized, Size, Size), nil
}

// toGray converts to 8-bit luminance using the ITU-R BT.601 weights.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			luma := (299*(r>>8) + 587*(g>>8) + 114*(bl>>8) + 500) / 1000
			dst.SetGray(x, y, color.Gray{Y: uint8(luma)})
		}
	}
	return dst
}

func resizeGray(src *image.Gray, width, height int) *image.Gray {
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		return src
	}
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
