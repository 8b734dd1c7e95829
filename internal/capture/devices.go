package capture

import (
	"path/filepath"
	"sort"

	"github.com/vidloop/keystoned/pkg/v4l2/device"
)

// DeviceInfo describes one enumerated V4L2 node (spec §6 "GET
// /api/video/devices").
type DeviceInfo struct {
	Path   string `json:"path"`
	Driver string `json:"driver"`
	Card   string `json:"card"`
}

// ListDevices globs /dev/video* and opens each node just long enough to
// read its driver capability string; nodes that fail to open (busy,
// output-only, permission) are skipped rather than failing the request.
func ListDevices() ([]DeviceInfo, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []DeviceInfo
	for _, path := range paths {
		dev, err := device.Open(path, device.ModeCapture)
		if err != nil {
			continue
		}
		info, err := dev.Capability()
		_ = dev.Close()
		if err != nil {
			continue
		}
		out = append(out, DeviceInfo{Path: path, Driver: info.Driver, Card: info.Card})
	}
	return out, nil
}

// SizeRates pairs a discrete resolution with the frame rates the driver
// reports for it, for GET /api/video/capabilities.
type SizeRates struct {
	Width, Height int
	FPS           []int
}

// Capabilities enumerates every (width, height) this source's negotiated
// pixel format supports, each with its available frame rates.
func (s *Source) Capabilities() ([]SizeRates, error) {
	if s.dev == nil {
		return nil, ErrReleased
	}

	sizes, err := s.dev.ListSizes(s.PixFmt)
	if err != nil {
		return nil, err
	}

	out := make([]SizeRates, 0, len(sizes))
	for _, wh := range sizes {
		rates, err := s.dev.ListFrameRates(s.PixFmt, wh[0], wh[1])
		if err != nil {
			continue
		}
		fps := make([]int, 0, len(rates))
		for _, r := range rates {
			fps = append(fps, int(r))
		}
		out = append(out, SizeRates{Width: int(wh[0]), Height: int(wh[1]), FPS: fps})
	}
	return out, nil
}
