package imaging

import (
	"image"
)

const (
	claheTileGrid  = 8
	claheClipLimit = 2.0
)

// equalizeLocal applies contrast-limited adaptive histogram
// equalization. The image is divided into a grid×grid tile layout;
// each tile gets its own clipped equalization mapping and every pixel
// is remapped by bilinear interpolation between the four surrounding
// tile mappings, which avoids visible tile seams.
func equalizeLocal(src *image.Gray, grid int, clipLimit float64) *image.Gray {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w < grid || h < grid {
		return src
	}

	tileW := (w + grid - 1) / grid
	tileH := (h + grid - 1) / grid

	luts := make([][256]uint8, grid*grid)
	for ty := 0; ty < grid; ty++ {
		for tx := 0; tx < grid; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			luts[ty*grid+tx] = tileMapping(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := image.NewGray(src.Bounds())
	for y := 0; y < h; y++ {
		// Position relative to tile centers.
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(fy)
		if fy < 0 {
			ty0 = -1
		}
		wy := fy - float64(ty0)
		ty1 := ty0 + 1
		ty0 = clampIndex(ty0, grid)
		ty1 = clampIndex(ty1, grid)

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(fx)
			if fx < 0 {
				tx0 = -1
			}
			wx := fx - float64(tx0)
			tx1 := tx0 + 1
			tx0 = clampIndex(tx0, grid)
			tx1 = clampIndex(tx1, grid)

			v := src.GrayAt(x, y).Y
			top := (1-wx)*float64(luts[ty0*grid+tx0][v]) + wx*float64(luts[ty0*grid+tx1][v])
			bottom := (1-wx)*float64(luts[ty1*grid+tx0][v]) + wx*float64(luts[ty1*grid+tx1][v])
			out := (1-wy)*top + wy*bottom

			dst.Pix[y*dst.Stride+x] = uint8(out + 0.5)
		}
	}
	return dst
}

// tileMapping builds the clipped equalization LUT for one tile.
// Histogram mass above the clip ceiling is redistributed evenly so the
// mapping cannot over-amplify noise in flat regions.
func tileMapping(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	area := (x1 - x0) * (y1 - y0)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}

	clip := int(clipLimit * float64(area) / 256)
	if clip < 1 {
		clip = 1
	}

	excess := 0
	for i := range hist {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	bonus, rem := excess/256, excess%256
	for i := range hist {
		hist[i] += bonus
		if i < rem {
			hist[i]++
		}
	}

	var lut [256]uint8
	cdf := 0
	for i := range hist {
		cdf += hist[i]
		lut[i] = uint8((cdf*255 + area/2) / area)
	}
	return lut
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
