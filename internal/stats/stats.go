// Package stats implements the pipeline driver's rolling-timing
// component (spec §4.10 "Stats.record"): exponentially-weighted moving
// averages per stage plus atomic frame/error counters, exposed as an
// immutable snapshot the HTTP layer reads without touching the
// pipeline's own lock, in the spirit of the atomic-counter-plus-
// snapshot-struct pattern the teacher's supplier.Stats() uses.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// ema is the smoothing factor for the rolling averages; 0.1 means each
// sample moves the average a tenth of the way toward it.
const ema = 0.1

// Timings is one frame's per-stage measured durations, per spec §4.10's
// loop comments ("measure frame_wait", "measure decode", ...).
type Timings struct {
	FrameWait time.Duration
	Decode    time.Duration
	Color     time.Duration
	Warp      time.Duration
	Output    time.Duration
	Preview   time.Duration
}

// Snapshot is a point-in-time, immutable view of the rolling stats.
type Snapshot struct {
	AvgFrameWaitMs float64
	AvgDecodeMs    float64
	AvgColorMs     float64
	AvgWarpMs      float64
	AvgOutputMs    float64
	AvgPreviewMs   float64
	AvgTotalMs     float64
	FPS            float64

	FramesTotal   uint64
	FramesDropped uint64
	DecodeErrors  uint64
}

// Stats accumulates rolling averages under a lock (writes are cheap and
// happen once per pipeline iteration) while counters use atomics so
// concurrent HTTP reads of FramesDropped/DecodeErrors never block it.
type Stats struct {
	mu                                                                sync.Mutex
	avgFrameWait, avgDecode, avgColor, avgWarp, avgOutput, avgPreview float64
	avgTotal, fps                                                     float64
	lastFrameStart                                                    time.Time

	framesTotal   atomic.Uint64
	framesDropped atomic.Uint64
	decodeErrors  atomic.Uint64
}

func ewma(prev float64, sample time.Duration) float64 {
	ms := float64(sample) / float64(time.Millisecond)
	if prev == 0 {
		return ms
	}
	return prev + ema*(ms-prev)
}

// Record folds one frame's measured timings into the rolling averages
// and updates the frames-per-second estimate from the gap since the
// previous call.
func (s *Stats) Record(t Timings, frameStart time.Time) {
	total := t.FrameWait + t.Decode + t.Color + t.Warp + t.Output + t.Preview

	s.mu.Lock()
	s.avgFrameWait = ewma(s.avgFrameWait, t.FrameWait)
	s.avgDecode = ewma(s.avgDecode, t.Decode)
	s.avgColor = ewma(s.avgColor, t.Color)
	s.avgWarp = ewma(s.avgWarp, t.Warp)
	s.avgOutput = ewma(s.avgOutput, t.Output)
	s.avgPreview = ewma(s.avgPreview, t.Preview)
	s.avgTotal = ewma(s.avgTotal, total)

	if !s.lastFrameStart.IsZero() {
		gap := frameStart.Sub(s.lastFrameStart)
		if gap > 0 {
			instFPS := float64(time.Second) / float64(gap)
			if s.fps == 0 {
				s.fps = instFPS
			} else {
				s.fps = s.fps + ema*(instFPS-s.fps)
			}
		}
	}
	s.lastFrameStart = frameStart
	s.mu.Unlock()

	s.framesTotal.Add(1)
}

// IncDropped counts a frame skipped on capture timeout or a mid-stream
// format change (spec §4.2 "the loop continues"); decode failures are
// counted by IncDecodeError instead.
func (s *Stats) IncDropped() {
	s.framesDropped.Add(1)
}

// IncDecodeError counts a DecodeError separately from a generic drop,
// per spec §7's error taxonomy.
func (s *Stats) IncDecodeError() {
	s.decodeErrors.Add(1)
}

// Snapshot returns the current rolling averages and counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		AvgFrameWaitMs: s.avgFrameWait,
		AvgDecodeMs:    s.avgDecode,
		AvgColorMs:     s.avgColor,
		AvgWarpMs:      s.avgWarp,
		AvgOutputMs:    s.avgOutput,
		AvgPreviewMs:   s.avgPreview,
		AvgTotalMs:     s.avgTotal,
		FPS:            s.fps,
	}
	s.mu.Unlock()

	snap.FramesTotal = s.framesTotal.Load()
	snap.FramesDropped = s.framesDropped.Load()
	snap.DecodeErrors = s.decodeErrors.Load()
	return snap
}

// Reset zeros every average and counter (spec §6 "POST /api/stats/reset").
func (s *Stats) Reset() {
	s.mu.Lock()
	s.avgFrameWait, s.avgDecode, s.avgColor = 0, 0, 0
	s.avgWarp, s.avgOutput, s.avgPreview = 0, 0, 0
	s.avgTotal, s.fps = 0, 0
	s.lastFrameStart = time.Time{}
	s.mu.Unlock()

	s.framesTotal.Store(0)
	s.framesDropped.Store(0)
	s.decodeErrors.Store(0)
}
