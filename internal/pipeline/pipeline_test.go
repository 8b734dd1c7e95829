package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/internal/preview"
	"github.com/vidloop/keystoned/internal/stats"
	"github.com/vidloop/keystoned/internal/state"
	"github.com/vidloop/keystoned/pkg/calib"
	"github.com/vidloop/keystoned/pkg/colorstate"
	"github.com/vidloop/keystoned/pkg/framepool"
	"github.com/vidloop/keystoned/pkg/v4l2/device"
)

const fakeYUYV = device.V4L2_PIX_FMT_YUYV

type fakeSource struct {
	width, height int
	pixFmt        uint32
	frames        [][]byte
	i             int
	err           error
}

func (f *fakeSource) PixelFormat() uint32 { return f.pixFmt }
func (f *fakeSource) Size() (int, int)    { return f.width, f.height }
func (f *fakeSource) NextFrame(pool *framepool.Pool, timeout time.Duration) (*framepool.Frame, error) {
	if f.err != nil {
		return nil, f.err
	}
	frame := pool.Acquire(f.width, f.height, framepool.FormatYUYV)
	data := f.frames[f.i%len(f.frames)]
	f.i++
	n := copy(frame.Data, data)
	frame.Data = frame.Data[:n]
	return frame, nil
}

type fakeSink struct {
	width, height int
	written       [][]byte
	err           error
}

func (f *fakeSink) Size() (int, int) { return f.width, f.height }
func (f *fakeSink) Write(rgb []byte) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, append([]byte(nil), rgb...))
	return nil
}

type noopColorStage struct{}

func (noopColorStage) Apply(rgb []byte, s colorstate.State, version uint64) {}

type identityWarpStage struct{}

func (identityWarpStage) Apply(dst, rgb []byte, s *calib.State, version uint64, srcW, srcH, dstW, dstH int) []byte {
	return rgb
}

func solidYUYV(w, h int) []byte {
	buf := make([]byte, w*h*2)
	for i := range buf {
		buf[i] = 128
	}
	return buf
}

func TestIterateWritesDecodedFrameToSink(t *testing.T) {
	const w, h = 4, 2
	src := &fakeSource{width: w, height: h, pixFmt: fakeYUYV, frames: [][]byte{solidYUYV(w, h)}}
	sink := &fakeSink{width: w, height: h}

	p := New(src, sink, framepool.New(), state.New(w, h), noopColorStage{}, identityWarpStage{}, &preview.Encoder{}, &stats.Stats{})

	require.NoError(t, p.iterate())
	require.Len(t, sink.written, 1)

	data, width, height, ok := p.LatestRGB()
	require.True(t, ok)
	require.Equal(t, w, width)
	require.Equal(t, h, height)
	require.Len(t, data, w*h*3)
}

func TestIterateDropsFrameOnTimeoutWithoutError(t *testing.T) {
	src := &fakeSource{width: 4, height: 2, pixFmt: fakeYUYV, err: device.ErrTimeout}
	sink := &fakeSink{width: 4, height: 2}

	p := New(src, sink, framepool.New(), state.New(4, 2), noopColorStage{}, identityWarpStage{}, &preview.Encoder{}, &stats.Stats{})

	require.NoError(t, p.iterate())
	require.Empty(t, sink.written)
	require.Equal(t, uint64(1), p.stats.Snapshot().FramesDropped)
}

func TestIteratePropagatesDeviceLostFromSink(t *testing.T) {
	const w, h = 4, 2
	src := &fakeSource{width: w, height: h, pixFmt: fakeYUYV, frames: [][]byte{solidYUYV(w, h)}}
	sink := &fakeSink{width: w, height: h, err: device.ErrDeviceLost}

	p := New(src, sink, framepool.New(), state.New(w, h), noopColorStage{}, identityWarpStage{}, &preview.Encoder{}, &stats.Stats{})

	err := p.iterate()
	require.True(t, errors.Is(err, device.ErrDeviceLost))
}
