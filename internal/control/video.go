package control

import (
	"github.com/vidloop/keystoned/internal/app"
	"github.com/vidloop/keystoned/internal/capture"
)

// VideoSource is the subset of internal/capture.Source the control plane
// needs for the video-device surface (spec §6 "/api/video/*").
type VideoSource interface {
	PixelFormat() uint32
	Size() (width, height int)
	Capabilities() ([]capture.SizeRates, error)
	Release() error
	Acquire() error
	Released() bool
}

// PendingVideo is the "request-change (restart required)" block spec §6
// and §9 name: a change is recorded here and persisted, but the running
// capture source is left untouched until the next process start.
type PendingVideo struct {
	Device *string `yaml:"device,omitempty"`
	Width  *int    `yaml:"width,omitempty"`
	Height *int    `yaml:"height,omitempty"`
	FPS    *int    `yaml:"fps,omitempty"`
	Format *string `yaml:"format,omitempty"`
}

// Video wraps the live capture source plus whatever restart-pending
// change has been requested but not yet applied.
type Video struct {
	Source  VideoSource
	pending PendingVideo
}

// CurrentFormat reports the live negotiated format and size, the
// complement to whatever sits in Pending.
func (v *Video) CurrentFormat() (pixFmt uint32, width, height int) {
	width, height = v.Source.Size()
	return v.Source.PixelFormat(), width, height
}

// Capabilities implements GET /api/video/capabilities.
func (v *Video) Capabilities() ([]capture.SizeRates, error) {
	return v.Source.Capabilities()
}

// Devices implements GET /api/video/devices.
func (v *Video) Devices() ([]capture.DeviceInfo, error) {
	return capture.ListDevices()
}

// Pending returns the currently queued restart-required change, if any.
func (v *Video) Pending() PendingVideo {
	return v.pending
}

// RequestDevice implements POST /api/video/device: queues a new input
// device path for the next restart (spec §6, §9 "Device lifecycle on
// runtime parameter changes").
func (v *Video) RequestDevice(path string) error {
	v.pending.Device = &path
	return v.savePending()
}

// RequestSettings implements POST /api/video/settings: queues a new
// width/height/fps for the next restart.
func (v *Video) RequestSettings(width, height, fps int) error {
	v.pending.Width, v.pending.Height, v.pending.FPS = &width, &height, &fps
	return v.savePending()
}

// RequestFormat implements POST /api/video/format: queues a new
// preferred capture pixel format for the next restart.
func (v *Video) RequestFormat(format string) error {
	v.pending.Format = &format
	return v.savePending()
}

func (v *Video) savePending() error {
	if err := app.PatchConfig("video", v.pending, "pending"); err != nil {
		return err
	}
	return ErrRestartRequired
}

// Release implements POST /api/video/release (spec §4 supplemented
// features "Device release/acquire").
func (v *Video) Release() error {
	return v.Source.Release()
}

// Acquire implements POST /api/video/acquire.
func (v *Video) Acquire() error {
	return v.Source.Acquire()
}

// Released reports whether the capture source is currently released.
func (v *Video) Released() bool {
	return v.Source.Released()
}
