// Package capture wraps pkg/v4l2/device into the capture-source
// component (spec §4.2): format/size/rate negotiation with fallback,
// frame dequeue into the frame pool, camera-control passthrough, and a
// release/acquire lifecycle so another process can transiently touch
// the hardware.
package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/vidloop/keystoned/internal/app"
	"github.com/vidloop/keystoned/pkg/framepool"
	"github.com/vidloop/keystoned/pkg/v4l2/device"
)

var log = app.GetLogger("capture")

// ErrFormatChanged mirrors spec §4.2: detected when a dequeued buffer's
// size no longer matches the negotiated frame size for YUYV (MJPEG's
// variable size can't be checked this way and is left to the decoder).
var ErrFormatChanged = errors.New("capture: format changed mid-stream")

// ErrReleased is returned by NextFrame and control operations when the
// device handle has been released (spec §5 "release/acquire").
var ErrReleased = errors.New("capture: device released")

// Source owns the single capture-mode V4L2 device handle.
type Source struct {
	path string

	dev *device.Device

	Width, Height, FPS int
	PixFmt             uint32

	// requested values, kept so Acquire can renegotiate identically.
	reqWidth, reqHeight, reqFPS int
	preferMJPEG                 bool
}

// Open negotiates (width, height, pixFmt, fps) against the device at
// path per spec §4.2 step 2: try MJPEG first if preferMJPEG, else YUYV
// first, falling back to whichever the driver actually supports; the
// actually-applied values are recorded and any fallback is logged.
func Open(path string, width, height, fps int, preferMJPEG bool) (*Source, error) {
	s := &Source{
		path: path, reqWidth: width, reqHeight: height, reqFPS: fps,
		preferMJPEG: preferMJPEG,
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) acquire() error {
	dev, err := device.Open(s.path, device.ModeCapture)
	if err != nil {
		return fmt.Errorf("capture: open %s: %w", s.path, err)
	}

	order := []uint32{device.V4L2_PIX_FMT_YUYV, device.V4L2_PIX_FMT_MJPEG}
	if s.preferMJPEG {
		order = []uint32{device.V4L2_PIX_FMT_MJPEG, device.V4L2_PIX_FMT_YUYV}
	}

	supported, err := dev.ListFormats()
	if err != nil {
		_ = dev.Close()
		return fmt.Errorf("capture: list formats: %w", err)
	}

	pixFmt, ok := pickSupported(order, supported)
	if !ok {
		_ = dev.Close()
		return fmt.Errorf("capture: no supported format among %v", order)
	}

	if err := dev.SetFormat(uint32(s.reqWidth), uint32(s.reqHeight), pixFmt); err != nil {
		_ = dev.Close()
		return fmt.Errorf("capture: set format: %w", err)
	}

	if int(dev.Width) != s.reqWidth || int(dev.Height) != s.reqHeight || dev.PixFmt != pixFmt {
		log.Warn().
			Str("requested", fmt.Sprintf("%dx%d/%s", s.reqWidth, s.reqHeight, device.FormatName(pixFmt))).
			Str("applied", fmt.Sprintf("%dx%d/%s", dev.Width, dev.Height, device.FormatName(dev.PixFmt))).
			Msg("capture: driver applied a fallback format")
	}

	if err := dev.SetParam(uint32(s.reqFPS)); err != nil {
		log.Warn().Err(err).Msg("capture: fps negotiation failed, continuing at driver default")
	}

	if err := dev.StreamOn(); err != nil {
		_ = dev.Close()
		return fmt.Errorf("capture: stream on: %w", err)
	}

	s.dev = dev
	s.Width, s.Height, s.PixFmt = int(dev.Width), int(dev.Height), dev.PixFmt
	s.FPS = s.reqFPS
	return nil
}

func pickSupported(order, supported []uint32) (uint32, bool) {
	for _, want := range order {
		for _, have := range supported {
			if want == have {
				return want, true
			}
		}
	}
	return 0, false
}

// Format reports the active pixel format (spec §3 Frame.pixel_format).
func (s *Source) Format() framepool.PixelFormat {
	if s.PixFmt == device.V4L2_PIX_FMT_YUYV {
		return framepool.FormatYUYV
	}
	return framepool.FormatRGB24 // MJPEG decodes straight to RGB24-sized pool slot on read; see internal/decode
}

// frameSize is the expected dequeued buffer size for YUYV; MJPEG's size
// is variable and not checked.
func (s *Source) frameSize() int {
	return s.Width * s.Height * 2
}

// PixelFormat reports the negotiated V4L2 FourCC.
func (s *Source) PixelFormat() uint32 { return s.PixFmt }

// Size reports the negotiated frame dimensions.
func (s *Source) Size() (width, height int) { return s.Width, s.Height }

// NextFrame dequeues the next filled driver buffer into a pool-backed
// Frame (spec §4.2 next_frame). timeout<=0 blocks indefinitely.
func (s *Source) NextFrame(pool *framepool.Pool, timeout time.Duration) (*framepool.Frame, error) {
	if s.dev == nil {
		return nil, ErrReleased
	}

	raw, err := s.dev.Capture(timeout)
	if err != nil {
		if errors.Is(err, device.ErrTimeout) {
			return nil, device.ErrTimeout
		}
		return nil, err
	}

	if s.PixFmt == device.V4L2_PIX_FMT_YUYV && len(raw) != s.frameSize() {
		return nil, ErrFormatChanged
	}

	class := framepool.FormatYUYV
	if s.PixFmt == device.V4L2_PIX_FMT_MJPEG {
		class = framepool.FormatRGB24 // allocate generously; decode stage resizes into its own RGB buffer
	}

	frame := pool.Acquire(s.Width, s.Height, class)
	n := copy(frame.Data, raw)
	frame.Data = frame.Data[:n]
	return frame, nil
}

// Release closes the device handle without affecting process lifetime
// (spec §5 "may optionally be released via release endpoint").
func (s *Source) Release() error {
	if s.dev == nil {
		return nil
	}
	if err := s.dev.StreamOff(); err != nil {
		log.Warn().Err(err).Msg("capture: stream off during release")
	}
	err := s.dev.Close()
	s.dev = nil
	return err
}

// Acquire re-opens and renegotiates the device with the same requested
// parameters as the original Open call.
func (s *Source) Acquire() error {
	if s.dev != nil {
		return nil
	}
	return s.acquire()
}

// Released reports whether the handle is currently released.
func (s *Source) Released() bool {
	return s.dev == nil
}

// ControlInfo mirrors device.ControlInfo for the HTTP layer.
type ControlInfo = device.ControlInfo

// knownControls is the standard UVC/V4L2 control ID table this service
// enumerates; a camera exposing a subset simply returns an error for
// the IDs it lacks, which Controls filters out.
var knownControls = []uint32{
	0x00980900, // V4L2_CID_BRIGHTNESS
	0x00980901, // V4L2_CID_CONTRAST
	0x00980902, // V4L2_CID_SATURATION
	0x00980903, // V4L2_CID_HUE
	0x0098090c, // V4L2_CID_AUTO_WHITE_BALANCE
	0x0098090e, // V4L2_CID_RED_BALANCE
	0x0098090f, // V4L2_CID_BLUE_BALANCE
	0x00980911, // V4L2_CID_EXPOSURE
	0x0098091a, // V4L2_CID_WHITE_BALANCE_TEMPERATURE
	0x0098091b, // V4L2_CID_SHARPNESS
	0x0098091c, // V4L2_CID_BACKLIGHT_COMPENSATION
	0x009a0901, // V4L2_CID_EXPOSURE_AUTO
	0x009a0902, // V4L2_CID_EXPOSURE_ABSOLUTE
	0x009a0903, // V4L2_CID_EXPOSURE_AUTO_PRIORITY
	0x009a090a, // V4L2_CID_FOCUS_ABSOLUTE
	0x009a090c, // V4L2_CID_FOCUS_AUTO
	0x009a090d, // V4L2_CID_ZOOM_ABSOLUTE
}

// Controls enumerates every control the device actually supports, with
// its range, default and flags; current values come from GetControl (spec §4.2 "enumerate/get/set ... Disabled/inactive
// flags ... surfaced verbatim").
func (s *Source) Controls() ([]ControlInfo, error) {
	if s.dev == nil {
		return nil, ErrReleased
	}

	var out []ControlInfo
	for _, id := range knownControls {
		info, err := s.dev.QueryControl(id)
		if err != nil {
			continue
		}
		out = append(out, *info)
	}
	return out, nil
}

func (s *Source) GetControl(id uint32) (int32, error) {
	if s.dev == nil {
		return 0, ErrReleased
	}
	return s.dev.GetControl(id)
}

func (s *Source) SetControl(id uint32, value int32) error {
	if s.dev == nil {
		return ErrReleased
	}
	return s.dev.SetControl(id, value)
}

func (s *Source) Close() error {
	return s.Release()
}
