package recognizer

import (
	"image"
)

const (
	// Bins is the number of local binary pattern codes per cell.
	Bins = 256

	// CellGrid splits the normalized region into CellGrid×CellGrid
	// cells; each cell contributes its own histogram so the descriptor
	// keeps coarse spatial layout.
	CellGrid = 4

	// DescriptorLen is the total descriptor dimensionality.
	DescriptorLen = CellGrid * CellGrid * Bins
)

// Descriptor computes the local-texture histogram descriptor of a
// normalized grayscale region: the 8-neighbor LBP code of every
// interior pixel, histogrammed per spatial cell and concatenated.
func Descriptor(region *image.Gray) []float32 {
	w, h := region.Bounds().Dx(), region.Bounds().Dy()
	desc := make([]float32, DescriptorLen)
	if w < 3 || h < 3 {
		return desc
	}

	cellW := (w + CellGrid - 1) / CellGrid
	cellH := (h + CellGrid - 1) / CellGrid

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			code := lbpCode(region, x, y)
			cell := (y/cellH)*CellGrid + x/cellW
			desc[cell*Bins+int(code)]++
		}
	}
	return desc
}

// lbpCode thresholds the 8 neighbors against the center pixel,
// clockwise from the top-left, into one byte.
func lbpCode(img *image.Gray, x, y int) uint8 {
	center := img.GrayAt(x, y).Y
	var code uint8
	neighbors := [8][2]int{
		{x - 1, y - 1}, {x, y - 1}, {x + 1, y - 1},
		{x + 1, y}, {x + 1, y + 1}, {x, y + 1},
		{x - 1, y + 1}, {x - 1, y},
	}
	for i, n := range neighbors {
		if img.GrayAt(n[0], n[1]).Y >= center {
			code |= 1 << uint(7-i)
		}
	}
	return code
}

// ChiSquare is the distance between two descriptors:
// sum((a-b)^2 / (a+b)) over bins with any mass. Zero for identical
// descriptors; lower is more similar.
func ChiSquare(a, b []float32) float64 {
	if len(a) != len(b) {
		return maxDistance
	}
	var d float64
	for i := range a {
		sum := float64(a[i] + b[i])
		if sum == 0 {
			continue
		}
		diff := float64(a[i] - b[i])
		d += diff * diff / sum
	}
	return d
}

const maxDistance = 1e18
