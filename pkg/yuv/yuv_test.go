package yuv

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

func TestDecodeYUYVToRGB24Shape(t *testing.T) {
	// 2x1 gray frame: Y=128, U=V=128 (neutral), full range.
	src := []byte{128, 128, 128, 128}
	rgb := DecodeYUYVToRGB24(make([]byte, 2*1*3), src, 2, 1, colorstate.BT709, colorstate.Full)

	require.Len(t, rgb, 2*1*3)
	for _, c := range rgb {
		require.InDelta(t, 128, int(c), 1)
	}
}

func TestDecodeYUYVLimitedRangeExpandsBlack(t *testing.T) {
	// Limited-range black (Y=16, neutral chroma) should decode near 0,0,0.
	src := []byte{16, 128, 16, 128}
	rgb := DecodeYUYVToRGB24(make([]byte, 2*1*3), src, 2, 1, colorstate.BT709, colorstate.Limited)

	for _, c := range rgb {
		require.InDelta(t, 0, int(c), 2)
	}
}

func TestEncodeRGB24ToYUYVShape(t *testing.T) {
	rgb := []byte{128, 128, 128, 128, 128, 128}
	yuyv := EncodeRGB24ToYUYV(make([]byte, 2*1*2), rgb, 2, 1)
	require.Len(t, yuyv, 2*1*2)
}

func TestRoundTripGrayIsApproximatelyStable(t *testing.T) {
	rgb := []byte{128, 128, 128, 128, 128, 128}
	yuyv := EncodeRGB24ToYUYV(make([]byte, 2*1*2), rgb, 2, 1)
	back := DecodeYUYVToRGB24(make([]byte, 2*1*3), yuyv, 2, 1, colorstate.BT709, colorstate.Limited)

	for _, c := range back {
		require.InDelta(t, 128, int(c), 5)
	}
}
