// Package decode implements the decoder component (spec §4.3): a pure
// function from a captured source frame to an RGB24 frame, branching on
// pixel format.
package decode

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	"github.com/vidloop/keystoned/pkg/colorstate"
	"github.com/vidloop/keystoned/pkg/yuv"
)

// ErrDecode is returned on malformed input; the pipeline driver skips
// the frame and increments a counter rather than treating it as fatal.
var ErrDecode = errors.New("decode: malformed frame")

// YUYV decodes a packed YUYV source frame into dst (packed RGB24,
// already sized width*height*3 and drawn from framepool by the caller),
// folding in the active color-space matrix and range (spec §4.3 YUYV
// path). When color is disabled, callers pass colorstate.Default()'s
// space/range (BT.709 Limited), per spec's documented fallback.
func YUYV(dst, src []byte, width, height int, cs colorstate.ColorSpace, r colorstate.Range) error {
	if len(src) != width*height*2 {
		return ErrDecode
	}
	yuv.DecodeYUYVToRGB24(dst, src, width, height, cs, r)
	return nil
}

// MJPEG decodes a JPEG-compressed source frame into dst (packed RGB24,
// already sized width*height*3 and drawn from framepool by the caller).
// The JPEG's own colorimetry (JFIF implies BT.601 Limited) is whatever
// the stdlib decoder applies; this package does not re-matrix it, per
// spec §4.3 ("subsequent stages may further re-adjust via HSL controls
// but not re-matrix").
func MJPEG(dst, src []byte, width, height int) error {
	img, err := jpeg.Decode(bytes.NewReader(src))
	if err != nil {
		return ErrDecode
	}

	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return ErrDecode
	}

	toRGB24(dst, img)
	return nil
}

// toRGB24 packs an arbitrary image.Image (already decoded to its native
// color model by image/jpeg, typically YCbCr) into dst, tightly packed
// RGB24.
func toRGB24(dst []byte, img image.Image) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	for y := 0; y < h; y++ {
		row := dst[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := x * 3
			row[off+0] = byte(r >> 8)
			row[off+1] = byte(g >> 8)
			row[off+2] = byte(bl >> 8)
		}
	}
}
