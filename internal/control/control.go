// Package control implements the control-plane business logic (spec
// §4.9): validated mutations of the shared calibration/color state,
// camera-control passthrough, auto white balance, and config
// persistence. internal/api calls into this package; this package
// never touches net/http.
package control

import (
	"errors"

	"github.com/vidloop/keystoned/internal/app"
	"github.com/vidloop/keystoned/internal/preview"
	"github.com/vidloop/keystoned/internal/stats"
	"github.com/vidloop/keystoned/internal/state"
	"github.com/vidloop/keystoned/pkg/calib"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

// ErrRestartRequired signals that a requested change cannot take effect
// live; it is written to the pending config block and the caller
// (internal/api) must report restart_required=true (spec §6, §9
// "Device lifecycle on runtime parameter changes").
var ErrRestartRequired = errors.New("control: change requires a process restart")

// Controller wires the shared state manager, preview encoder, and
// stats collector into the operations spec §4.9 names. Video is set
// separately by main.go once the capture source is open.
type Controller struct {
	State   *state.Manager
	Preview *preview.Encoder
	Stats   *stats.Stats
	Video   *Video
}

// New builds a Controller over an already-constructed Manager/Encoder/
// Stats triple.
func New(mgr *state.Manager, prev *preview.Encoder, st *stats.Stats) *Controller {
	return &Controller{State: mgr, Preview: prev, Stats: st}
}

// ---- Calibration ----

func (c *Controller) Calibration() *calib.State {
	return c.State.Snapshot().Calib
}

// UpdatePoint implements "Update calibration point" (spec §4.9).
func (c *Controller) UpdatePoint(id int, x, y float64) (*calib.State, error) {
	return c.State.MutateCalib(func(s *calib.State) error {
		return s.SetPoint(id, x, y)
	})
}

// AddEdgePoint implements "Add edge point", returning the new point ID.
func (c *Controller) AddEdgePoint(edge int, x, y float64) (int, *calib.State, error) {
	var newID int
	next, err := c.State.MutateCalib(func(s *calib.State) error {
		id, err := s.AddEdgePoint(edge, x, y)
		newID = id
		return err
	})
	if err != nil {
		return 0, nil, err
	}
	return newID, next, nil
}

// RemoveEdgePoint implements "Remove edge point".
func (c *Controller) RemoveEdgePoint(id int) (*calib.State, error) {
	return c.State.MutateCalib(func(s *calib.State) error {
		return s.RemoveEdgePoint(id)
	})
}

// ResetCalibration implements "Reset calibration".
func (c *Controller) ResetCalibration() *calib.State {
	return c.State.ResetCalib()
}

// ReplacePoints implements POST /api/calibration's "replace all points".
func (c *Controller) ReplacePoints(corners [4]calib.Point, edges []calib.Point) (*calib.State, error) {
	return c.State.MutateCalib(func(s *calib.State) error {
		s.Corners = corners
		s.EdgePoints = edges
		return nil
	})
}

// SetCalibrationEnabled implements "Enable/disable calibration".
func (c *Controller) SetCalibrationEnabled(enabled bool) (*calib.State, error) {
	return c.State.MutateCalib(func(s *calib.State) error {
		s.Enabled = enabled
		return nil
	})
}

// SaveCalibration persists the current calibration to the config file
// (spec §4.9 "Save").
func (c *Controller) SaveCalibration() error {
	s := c.Calibration()
	return app.PatchConfig("calibration", calibrationDoc{
		Enabled: s.Enabled,
		Corners: s.Corners[:],
		Edges:   s.EdgePoints,
	})
}

type calibrationDoc struct {
	Enabled bool          `yaml:"enabled"`
	Corners []calib.Point `yaml:"corners"`
	Edges   []calib.Point `yaml:"edges"`
}

// ---- Color ----

func (c *Controller) Color() colorstate.State {
	return c.State.Snapshot().Color
}

// PatchColor implements "Set color" — a partial update validated
// per-field before publication.
func (c *Controller) PatchColor(p colorstate.Patch) (colorstate.State, error) {
	return c.State.MutateColor(func(s colorstate.State) (colorstate.State, error) {
		return s.Apply(p)
	})
}

// ApplyColorPreset implements "Apply color preset".
func (c *Controller) ApplyColorPreset(name string) (colorstate.State, error) {
	preset, ok := colorstate.ByName(name)
	if !ok {
		return colorstate.State{}, errors.New("control: unknown color preset")
	}
	return c.State.MutateColor(func(colorstate.State) (colorstate.State, error) {
		return preset, nil
	})
}

// SetColorEnabled implements "Enable/disable ... color".
func (c *Controller) SetColorEnabled(enabled bool) (colorstate.State, error) {
	return c.State.MutateColor(func(s colorstate.State) (colorstate.State, error) {
		s.Enabled = enabled
		return s, nil
	})
}

// SaveColor persists the current ColorState to the config file.
func (c *Controller) SaveColor() error {
	return app.PatchConfig("color", c.Color())
}

// ---- Preview ----

// ActivatePreview implements POST /api/preview/activate.
func (c *Controller) ActivatePreview() int32 {
	return c.Preview.Activate()
}

// DeactivatePreview implements POST /api/preview/deactivate.
func (c *Controller) DeactivatePreview() int32 {
	return c.Preview.Deactivate()
}

// ErrPreviewNotReady is returned by ReadPreview/ReadRawPreview before the
// pipeline has encoded a first frame into the requested slot (spec §6
// "404 if not yet encoded").
var ErrPreviewNotReady = errors.New("control: preview not yet encoded")

// ReadPreview implements GET /api/preview (the corrected, post-warp slot).
func (c *Controller) ReadPreview() ([]byte, error) {
	data, ok := c.Preview.ReadCorrected()
	if !ok {
		return nil, ErrPreviewNotReady
	}
	return data, nil
}

// ReadRawPreview implements GET /api/preview/raw (the post-decode,
// pre-warp slot).
func (c *Controller) ReadRawPreview() ([]byte, error) {
	data, ok := c.Preview.ReadRaw()
	if !ok {
		return nil, ErrPreviewNotReady
	}
	return data, nil
}

// ---- Stats ----

// ReadStats implements GET /api/stats.
func (c *Controller) ReadStats() stats.Snapshot {
	return c.Stats.Snapshot()
}

// ResetStats implements POST /api/stats/reset.
func (c *Controller) ResetStats() {
	c.Stats.Reset()
}
