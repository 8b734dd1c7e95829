// Package yuv converts between packed YUYV 4:2:2 and packed RGB24,
// folding in the color-matrix and range conventions named by
// colorstate.ColorSpace/Range.
package yuv

import "github.com/vidloop/keystoned/pkg/colorstate"

// matrix holds the YUV->RGB coefficients for one color-space convention.
// Values follow the standard ITU-R conversion constants.
type matrix struct {
	// R = Y + Vr*V, G = Y - Ug*U - Vg*V, B = Y + Ub*U
	Vr, Ug, Vg, Ub float64
}

func matrixFor(cs colorstate.ColorSpace) matrix {
	switch cs {
	case colorstate.BT601:
		return matrix{Vr: 1.402, Ug: 0.344136, Vg: 0.714136, Ub: 1.772}
	case colorstate.BT2020:
		return matrix{Vr: 1.4746, Ug: 0.16455, Vg: 0.57135, Ub: 1.8814}
	default: // BT709
		return matrix{Vr: 1.5748, Ug: 0.1873, Vg: 0.4681, Ub: 1.8556}
	}
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// expandLuma maps limited-range Y (16-235) to full-range [0,255]; a no-op
// under Full range.
func expandLuma(y float64, r colorstate.Range) float64 {
	if r == colorstate.Full {
		return y
	}
	return clamp(((y - 16) * 255) / (235 - 16))
}

// expandChroma maps limited-range U/V (16-240, centered on 128) to
// full-range, per spec §4.4 step 2 ("for chroma-derived, use 240 as the
// upper anchor").
func expandChroma(c float64, r colorstate.Range) float64 {
	if r == colorstate.Full {
		return c
	}
	centered := c - 128
	scaled := centered * 255 / (240 - 16)
	return clamp(scaled + 128)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// DecodeYUYVToRGB24 converts a packed YUYV frame (width*height*2 bytes) into
// dst (width*height*3 bytes), using the given color-space matrix and input
// range. Two luma samples share one chroma pair, bilinear between the two
// chroma sites is intentionally skipped in favor of the sample-site
// interpolation the spec names: each of the two luma samples takes the
// shared (possibly range-expanded) chroma pair directly. dst must already
// be sized width*height*3; callers draw it from framepool rather than
// letting this hot-path function allocate.
func DecodeYUYVToRGB24(dst, src []byte, width, height int, cs colorstate.ColorSpace, r colorstate.Range) []byte {
	m := matrixFor(cs)

	rowBytes := width * 2
	for y := 0; y < height; y++ {
		srow := src[y*rowBytes : y*rowBytes+rowBytes]
		drow := dst[y*width*3 : y*width*3+width*3]

		for x := 0; x+1 < width; x += 2 {
			y0 := expandLuma(float64(srow[x*2]), r)
			u := expandChroma(float64(srow[x*2+1]), r) - 128
			y1 := expandLuma(float64(srow[x*2+2]), r)
			v := expandChroma(float64(srow[x*2+3]), r) - 128

			writeRGB(drow, x*3, y0, u, v, m)
			writeRGB(drow, (x+1)*3, y1, u, v, m)
		}
	}
	return dst
}

func writeRGB(dst []byte, off int, y, u, v float64, m matrix) {
	dst[off+0] = clampByte(y + m.Vr*v)
	dst[off+1] = clampByte(y - m.Ug*u - m.Vg*v)
	dst[off+2] = clampByte(y + m.Ub*u)
}

// EncodeRGB24ToYUYV converts packed RGB24 into dst (width*height*2 bytes)
// as packed YUYV using BT.709 Limited range — the output-sink convention
// fixed by spec §4.6 regardless of the input path (documented
// open-question decision, see DESIGN.md). dst must already be sized
// width*height*2; drawn from framepool by the caller.
func EncodeRGB24ToYUYV(dst, src []byte, width, height int) []byte {
	for y := 0; y < height; y++ {
		srow := src[y*width*3 : y*width*3+width*3]
		drow := dst[y*width*2 : y*width*2+width*2]

		for x := 0; x+1 < width; x += 2 {
			y0, u0, v0 := rgbToYUV(srow, x*3)
			y1, u1, v1 := rgbToYUV(srow, (x+1)*3)

			u := (u0 + u1) / 2
			v := (v0 + v1) / 2

			drow[x*2+0] = clampByte(y0)
			drow[x*2+1] = clampByte(u)
			drow[x*2+2] = clampByte(y1)
			drow[x*2+3] = clampByte(v)
			_ = v1
		}
	}
	return dst
}

// rgbToYUV returns BT.709 limited-range Y, U, V (centered on 128) for one
// RGB24 pixel at offset off within row.
func rgbToYUV(row []byte, off int) (y, u, v float64) {
	r, g, b := float64(row[off]), float64(row[off+1]), float64(row[off+2])

	y = 0.2126*r + 0.7152*g + 0.0722*b
	u = 128 + (-0.1146*r - 0.3854*g + 0.5*b)
	v = 128 + (0.5*r - 0.4542*g - 0.0458*b)

	// fold full-range math into limited-range output.
	y = 16 + y*(235-16)/255
	u = 16 + (u)*(240-16)/255
	v = 16 + (v)*(240-16)/255
	return
}
