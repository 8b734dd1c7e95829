package control

import "github.com/vidloop/keystoned/internal/capture"

// CameraSource is the subset of internal/capture.Source the control
// plane needs for the camera-controls surface (spec §4.9 "Set camera
// control"), kept as an interface so tests can substitute a fake.
type CameraSource interface {
	Controls() ([]capture.ControlInfo, error)
	GetControl(id uint32) (int32, error)
	SetControl(id uint32, value int32) error
}

// Camera wraps a CameraSource with the refresh-on-write semantics spec
// §4.9 names ("on success, refresh dependent controls' active/inactive
// flags").
type Camera struct {
	Source CameraSource
}

// ListControls implements GET /api/camera/controls.
func (c *Camera) ListControls() ([]ControlValue, error) {
	infos, err := c.Source.Controls()
	if err != nil {
		return nil, err
	}

	out := make([]ControlValue, 0, len(infos))
	for _, info := range infos {
		v, err := c.Source.GetControl(info.ID)
		if err != nil {
			continue
		}
		out = append(out, ControlValue{Info: info, Value: v})
	}
	return out, nil
}

// ControlValue pairs a control's static metadata with its current
// value, as returned by GET /api/camera/controls.
type ControlValue struct {
	Info  capture.ControlInfo
	Value int32
}

// SetControl implements POST /api/camera/control/{id}, then refreshes
// the full control list so the caller observes any flags the driver
// changed as a side effect (e.g. auto-exposure disabling the manual
// exposure control).
func (c *Camera) SetControl(id uint32, value int32) ([]ControlValue, error) {
	if err := c.Source.SetControl(id, value); err != nil {
		return nil, err
	}
	return c.ListControls()
}

// ResetControls implements POST /api/camera/controls/reset: restores
// every control to its driver-reported default.
func (c *Camera) ResetControls() ([]ControlValue, error) {
	infos, err := c.Source.Controls()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Disabled {
			continue
		}
		_ = c.Source.SetControl(info.ID, info.Default)
	}
	return c.ListControls()
}

// RefreshControls implements POST /api/camera/controls/refresh: simply
// re-queries the device, which ListControls already does on each call.
func (c *Camera) RefreshControls() ([]ControlValue, error) {
	return c.ListControls()
}
