package recognizer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func textured(seed int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			v := (x*31 + y*17 + seed*97 + (x*y+seed)%53) % 256
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return img
}

func TestDescriptor_Shape(t *testing.T) {
	desc := Descriptor(textured(1))
	assert.Len(t, desc, DescriptorLen)

	// Interior pixels only: (128-2)^2 codes in total.
	var total float32
	for _, v := range desc {
		total += v
	}
	assert.Equal(t, float32(126*126), total)
}

func TestDescriptor_Deterministic(t *testing.T) {
	a := Descriptor(textured(7))
	b := Descriptor(textured(7))
	assert.Equal(t, a, b)
}

func TestDescriptor_DiscriminatesTextures(t *testing.T) {
	a := Descriptor(textured(1))
	b := Descriptor(textured(2))
	assert.NotEqual(t, a, b)
	assert.Greater(t, ChiSquare(a, b), 0.0)
}

func TestChiSquare(t *testing.T) {
	a := Descriptor(textured(3))
	b := Descriptor(textured(4))

	assert.Equal(t, 0.0, ChiSquare(a, a), "identical descriptors have zero distance")
	assert.InDelta(t, ChiSquare(a, b), ChiSquare(b, a), 1e-9, "symmetric")
	assert.Equal(t, maxDistance, ChiSquare(a, a[:10]), "length mismatch is maximal")
}
