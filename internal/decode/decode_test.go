package decode

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

func TestYUYVRejectsWrongSize(t *testing.T) {
	err := YUYV(make([]byte, 4*4*3), make([]byte, 3), 4, 4, colorstate.BT709, colorstate.Limited)
	require.ErrorIs(t, err, ErrDecode)
}

func TestYUYVProducesRGB24OfExpectedLength(t *testing.T) {
	src := make([]byte, 4*2*2) // 4x2 YUYV
	rgb := make([]byte, 4*2*3)
	err := YUYV(rgb, src, 4, 2, colorstate.BT709, colorstate.Limited)
	require.NoError(t, err)
	require.Len(t, rgb, 4*2*3)
}

func TestMJPEGRejectsMalformedInput(t *testing.T) {
	err := MJPEG(make([]byte, 4*4*3), []byte("not a jpeg"), 4, 4)
	require.ErrorIs(t, err, ErrDecode)
}

func TestMJPEGDecodesSolidColorImage(t *testing.T) {
	const w, h = 8, 8
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 10, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}))

	rgb := make([]byte, w*h*3)
	err := MJPEG(rgb, buf.Bytes(), w, h)
	require.NoError(t, err)
	require.Len(t, rgb, w*h*3)

	// JPEG chroma subsampling means exact equality isn't guaranteed;
	// check we're in the right ballpark for a solid-color source.
	require.InDelta(t, 200, int(rgb[0]), 20)
	require.InDelta(t, 50, int(rgb[1]), 20)
	require.InDelta(t, 10, int(rgb[2]), 20)
}

func TestMJPEGRejectsSizeMismatch(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	err := MJPEG(make([]byte, 4*4*3), buf.Bytes(), 4, 4)
	require.ErrorIs(t, err, ErrDecode)
}
