// Package framepool implements the frame buffer pool (spec §4.1): a
// fixed-size table of reusable buffers keyed by (size, format), so the
// hot pipeline loop never allocates in steady state.
package framepool

import (
	"sync"
	"time"
)

type PixelFormat int

const (
	FormatRGB24 PixelFormat = iota
	FormatYUYV
)

// Frame is a contiguous pixel buffer tagged per spec §3: (width, height,
// pixel_format, sequence, timestamp). Frames are acquired from a Pool,
// filled once, consumed once, and returned via Release.
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Format    PixelFormat
	Sequence  uint64
	Timestamp time.Time

	pooled bool
	class  class
}

type class struct {
	width, height int
	format        PixelFormat
}

func frameSize(w, h int, f PixelFormat) int {
	if f == FormatYUYV {
		return w * h * 2
	}
	return w * h * 3
}

// maxPerClass bounds how many idle buffers a single (size,format) class
// retains; beyond that, Acquire falls back to an unpooled allocation
// that Release simply drops (GC-collected), per spec §4.1 "Growth is
// bounded ... allocates a fallback buffer that is freed on release."
const maxPerClass = 8

// Pool is safe for concurrent use; the pipeline driver is the only
// caller in this service but the type makes no single-goroutine
// assumption.
type Pool struct {
	mu      sync.Mutex
	idle    map[class][][]byte
	created map[class]int
	seq     uint64
}

func New() *Pool {
	return &Pool{idle: make(map[class][][]byte), created: make(map[class]int)}
}

// Acquire returns an idle buffer for (width,height,format), or allocates
// one if the class's idle list is empty and it hasn't hit maxPerClass.
func (p *Pool) Acquire(width, height int, format PixelFormat) *Frame {
	c := class{width, height, format}

	p.mu.Lock()
	p.seq++
	seq := p.seq

	var data []byte
	pooled := true

	if bufs := p.idle[c]; len(bufs) > 0 {
		data = bufs[len(bufs)-1]
		p.idle[c] = bufs[:len(bufs)-1]
	} else if p.created[c] < maxPerClass {
		data = make([]byte, frameSize(width, height, format))
		p.created[c]++
	} else {
		data = make([]byte, frameSize(width, height, format))
		pooled = false
	}
	p.mu.Unlock()

	return &Frame{
		Data: data, Width: width, Height: height, Format: format,
		Sequence: seq, Timestamp: time.Now(), pooled: pooled, class: c,
	}
}

// Release returns f's buffer to the idle list for its class. A frame
// acquired as an unpooled fallback is simply discarded.
func (p *Pool) Release(f *Frame) {
	if f == nil || !f.pooled {
		return
	}
	p.mu.Lock()
	p.idle[f.class] = append(p.idle[f.class], f.Data)
	p.mu.Unlock()
}

// Outstanding reports, for tests, how many buffers of a class are
// currently neither idle nor unpooled-fallback — i.e. acquired and not
// yet released. Used to check the pool-conservation property (spec §8).
func (p *Pool) Outstanding(width, height int, format PixelFormat) int {
	c := class{width, height, format}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created[c] - len(p.idle[c])
}
