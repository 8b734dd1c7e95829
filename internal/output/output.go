// Package output wraps pkg/v4l2/device into the output-sink component
// (spec §4.6): opens the loopback device in output mode at a fixed
// YUYV format and writes each warped RGB24 frame as a single YUYV
// write, with a bounded short-write retry.
package output

import (
	"errors"
	"fmt"

	"github.com/vidloop/keystoned/pkg/framepool"
	"github.com/vidloop/keystoned/pkg/v4l2/device"
	"github.com/vidloop/keystoned/pkg/yuv"
)

// Sink owns the single output-mode V4L2 device handle.
type Sink struct {
	dev           *device.Device
	pool          *framepool.Pool
	Width, Height int
}

// Open negotiates YUYV at (width,height) on the output device, per
// spec §4.6 ("Opens the output device for writing with format YUYV").
// The re-encode buffer Write uses every frame is drawn from pool rather
// than allocated, per spec §4.1/§9.
func Open(path string, width, height, fps int, pool *framepool.Pool) (*Sink, error) {
	dev, err := device.Open(path, device.ModeOutput)
	if err != nil {
		return nil, fmt.Errorf("output: open %s: %w", path, err)
	}

	if err := dev.SetFormat(uint32(width), uint32(height), device.V4L2_PIX_FMT_YUYV); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("output: set format: %w", err)
	}
	if err := dev.SetParam(uint32(fps)); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("output: set param: %w", err)
	}
	if err := dev.StreamOn(); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("output: stream on: %w", err)
	}

	return &Sink{dev: dev, pool: pool, Width: int(dev.Width), Height: int(dev.Height)}, nil
}

// Write converts rgb (packed RGB24) to YUYV in a pool-drawn buffer and
// writes it in a single operation (spec §4.6). device.Write already
// retries a short write once internally before surfacing ErrShortWrite.
func (s *Sink) Write(rgb []byte) error {
	f := s.pool.Acquire(s.Width, s.Height, framepool.FormatYUYV)
	defer s.pool.Release(f)

	yuyv := yuv.EncodeRGB24ToYUYV(f.Data, rgb, s.Width, s.Height)
	return translateWriteErr(s.dev.Write(yuyv))
}

// translateWriteErr maps a persistent short write to DeviceLost, per
// spec §4.6 ("ShortWrite (retried once, else treated as DeviceLost)").
// device.Write already performs the one retry internally.
func translateWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, device.ErrShortWrite) {
		return device.ErrDeviceLost
	}
	return err
}

// Size reports the negotiated output frame dimensions.
func (s *Sink) Size() (width, height int) { return s.Width, s.Height }

func (s *Sink) Close() error {
	if err := s.dev.StreamOff(); err != nil {
		return err
	}
	return s.dev.Close()
}
