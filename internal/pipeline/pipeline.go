// Package pipeline implements the pipeline-driver component (spec
// §4.10): the single-threaded capture -> decode -> color -> warp ->
// output loop, with an atomically-published copy of the latest
// post-decode frame for the HTTP-side auto-white-balance call (spec §5).
package pipeline

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/vidloop/keystoned/internal/app"
	"github.com/vidloop/keystoned/internal/capture"
	"github.com/vidloop/keystoned/internal/decode"
	"github.com/vidloop/keystoned/internal/preview"
	"github.com/vidloop/keystoned/internal/stats"
	"github.com/vidloop/keystoned/internal/state"
	"github.com/vidloop/keystoned/pkg/calib"
	"github.com/vidloop/keystoned/pkg/colorstate"
	"github.com/vidloop/keystoned/pkg/framepool"
	"github.com/vidloop/keystoned/pkg/v4l2/device"
)

var log = app.GetLogger("pipeline")

// CaptureTimeout bounds how long NextFrame blocks before the loop
// treats it as a dropped frame and continues (spec §4.2, §7).
const CaptureTimeout = 500 * time.Millisecond

// rawFrame is the atomically-published, point-in-time copy of the most
// recent post-decode RGB24 frame, read by the HTTP-side AWB call.
type rawFrame struct {
	data          []byte
	width, height int
}

// Pipeline owns every per-stage component and the single goroutine
// driving them. All mutation of shared configuration flows in from
// internal/state; the loop never holds a lock across stages.
type Pipeline struct {
	src   CaptureSource
	sink  OutputSink
	pool  *framepool.Pool
	state *state.Manager

	colorStage Stage
	warpStage  WarpStage
	preview    *preview.Encoder
	stats      *stats.Stats

	latest atomic.Pointer[rawFrame]

	done chan struct{}
}

// CaptureSource, OutputSink, Stage and WarpStage are the narrow
// interfaces pipeline depends on, satisfied by internal/capture.Source,
// internal/output.Sink, internal/color.Stage and internal/warp.Stage
// respectively — kept as interfaces so tests can substitute fakes
// without opening a real V4L2 device.
type CaptureSource interface {
	NextFrame(pool *framepool.Pool, timeout time.Duration) (*framepool.Frame, error)
	PixelFormat() uint32
	Size() (width, height int)
}

type OutputSink interface {
	Write(rgb []byte) error
	Size() (width, height int)
}

type Stage interface {
	Apply(rgb []byte, s colorstate.State, version uint64)
}

type WarpStage interface {
	Apply(dst, rgb []byte, s *calib.State, version uint64, srcW, srcH, dstW, dstH int) []byte
}

// New builds a Pipeline from an already-open capture source, output
// sink, and shared state manager.
func New(src CaptureSource, sink OutputSink, pool *framepool.Pool, mgr *state.Manager, colorStage Stage, warpStage WarpStage, prev *preview.Encoder, st *stats.Stats) *Pipeline {
	return &Pipeline{
		src: src, sink: sink, pool: pool, state: mgr,
		colorStage: colorStage, warpStage: warpStage,
		preview: prev, stats: st,
		done: make(chan struct{}),
	}
}

// LatestRGB returns a copy of the most recently published post-decode
// frame, for the HTTP-side auto-white-balance call (spec §5). ok is
// false before the first frame has been decoded.
func (p *Pipeline) LatestRGB() (data []byte, width, height int, ok bool) {
	f := p.latest.Load()
	if f == nil {
		return nil, 0, 0, false
	}
	return append([]byte(nil), f.data...), f.width, f.height, true
}

// Stop signals Run to exit after its current iteration.
func (p *Pipeline) Stop() {
	close(p.done)
}

// Run executes the loop from spec §4.10 until Stop is called or a
// fatal device error occurs; a fatal error is returned so the caller
// (main.go) can exit non-zero for the service manager to restart.
func (p *Pipeline) Run() error {
	for {
		select {
		case <-p.done:
			return nil
		default:
		}

		if err := p.iterate(); err != nil {
			if errors.Is(err, device.ErrDeviceLost) {
				log.Error().Err(err).Msg("pipeline: device lost, exiting")
				return err
			}
			log.Error().Err(err).Msg("pipeline: unexpected fatal error")
			return err
		}
	}
}

func (p *Pipeline) iterate() error {
	frameStart := time.Now()
	snap := p.state.Snapshot()

	waitStart := time.Now()
	frame, err := p.src.NextFrame(p.pool, CaptureTimeout)
	frameWait := time.Since(waitStart)

	if err != nil {
		if errors.Is(err, device.ErrTimeout) {
			p.stats.IncDropped()
			return nil
		}
		if errors.Is(err, capture.ErrFormatChanged) {
			log.Warn().Msg("pipeline: format changed mid-stream, dropping frame")
			p.stats.IncDropped()
			return nil
		}
		return err
	}

	decodeStart := time.Now()
	rgbFrame, width, height, err := p.decode(frame, snap)
	p.pool.Release(frame)
	decodeDur := time.Since(decodeStart)

	if err != nil {
		p.stats.IncDecodeError()
		return nil
	}
	rgb := rgbFrame.Data
	defer p.pool.Release(rgbFrame)

	rawCopy := append([]byte(nil), rgb...)
	p.latest.Store(&rawFrame{data: rawCopy, width: width, height: height})

	colorStart := time.Now()
	if snap.Color.Enabled {
		p.colorStage.Apply(rgb, snap.Color, snap.Version)
	}
	colorDur := time.Since(colorStart)

	dstW, dstH := p.sink.Size()
	warpStart := time.Now()
	warped := rgb
	if snap.Calib.Enabled {
		warpFrame := p.pool.Acquire(dstW, dstH, framepool.FormatRGB24)
		defer p.pool.Release(warpFrame)
		warped = p.warpStage.Apply(warpFrame.Data, rgb, snap.Calib, snap.Version, width, height, dstW, dstH)
	}
	warpDur := time.Since(warpStart)

	outputStart := time.Now()
	if err := p.sink.Write(warped); err != nil {
		return err
	}
	outputDur := time.Since(outputStart)

	previewStart := time.Now()
	if p.preview.Active() {
		if err := p.preview.EncodeIfActive(rawCopy, warped, width, height); err != nil {
			log.Warn().Err(err).Msg("pipeline: preview encode failed")
		}
	}
	previewDur := time.Since(previewStart)

	p.stats.Record(stats.Timings{
		FrameWait: frameWait,
		Decode:    decodeDur,
		Color:     colorDur,
		Warp:      warpDur,
		Output:    outputDur,
		Preview:   previewDur,
	}, frameStart)

	return nil
}

// decode acquires an RGB24 working buffer from the pool and fills it in
// place, so the hot loop never allocates a fresh decode buffer per frame.
func (p *Pipeline) decode(frame *framepool.Frame, snap *state.Snapshot) (rgbFrame *framepool.Frame, width, height int, err error) {
	cs, r := colorstate.BT709, colorstate.Limited
	if snap.Color.Enabled {
		cs, r = snap.Color.ColorSpace, snap.Color.InputRange
	}

	width, height = p.src.Size()
	rgbFrame = p.pool.Acquire(width, height, framepool.FormatRGB24)

	switch p.src.PixelFormat() {
	case device.V4L2_PIX_FMT_YUYV:
		err = decode.YUYV(rgbFrame.Data, frame.Data, width, height, cs, r)
	default:
		err = decode.MJPEG(rgbFrame.Data, frame.Data, width, height)
	}
	if err != nil {
		p.pool.Release(rgbFrame)
		return nil, 0, 0, err
	}
	return rgbFrame, width, height, nil
}
