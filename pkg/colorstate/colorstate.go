// Package colorstate holds the color-correction parameters applied by
// the color stage, with field-level range validation and built-in
// presets.
package colorstate

import "errors"

type ColorSpace int

const (
	BT601 ColorSpace = iota
	BT709
	BT2020
)

func (c ColorSpace) String() string {
	switch c {
	case BT601:
		return "bt601"
	case BT709:
		return "bt709"
	case BT2020:
		return "bt2020"
	default:
		return "unknown"
	}
}

type Range int

const (
	Limited Range = iota
	Full
)

func (r Range) String() string {
	if r == Full {
		return "full"
	}
	return "limited"
}

// State mirrors spec §3 ColorState. enabled=false makes the stage a
// pass-through at zero cost.
type State struct {
	Enabled bool `json:"enabled"`

	ColorSpace ColorSpace `json:"color_space"`
	InputRange Range      `json:"input_range"`

	RedGain    float64 `json:"red_gain"`
	GreenGain  float64 `json:"green_gain"`
	BlueGain   float64 `json:"blue_gain"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Hue        float64 `json:"hue"`
	Gamma      float64 `json:"gamma"`
}

var ErrRange = errors.New("colorstate: value out of range")

// Default is BT.709 Limited with all adjustments neutral — the convention
// the decoder falls back to when color is disabled (spec §4.3).
func Default() State {
	return State{
		Enabled:    false,
		ColorSpace: BT709,
		InputRange: Limited,
		RedGain:    1, GreenGain: 1, BlueGain: 1,
		Brightness: 0,
		Contrast:   1,
		Saturation: 1,
		Hue:        0,
		Gamma:      1,
	}
}

// clampRange validates v against [lo,hi]; returns ErrRange if outside.
func clampRange(v, lo, hi float64) error {
	if v < lo || v > hi {
		return ErrRange
	}
	return nil
}

// Validate checks every numeric field against the ranges in spec §3.
func (s State) Validate() error {
	if err := clampRange(s.RedGain, 0.5, 2.0); err != nil {
		return err
	}
	if err := clampRange(s.GreenGain, 0.5, 2.0); err != nil {
		return err
	}
	if err := clampRange(s.BlueGain, 0.5, 2.0); err != nil {
		return err
	}
	if err := clampRange(s.Brightness, -100, 100); err != nil {
		return err
	}
	if err := clampRange(s.Contrast, 0, 2); err != nil {
		return err
	}
	if err := clampRange(s.Saturation, 0, 2); err != nil {
		return err
	}
	if err := clampRange(s.Hue, -180, 180); err != nil {
		return err
	}
	if err := clampRange(s.Gamma, 0.1, 3.0); err != nil {
		return err
	}
	return nil
}

// Patch is a partial update: nil fields are left unchanged. It is applied
// to a copy and validated as a whole before being accepted by the caller.
type Patch struct {
	Enabled    *bool       `json:"enabled,omitempty"`
	ColorSpace *ColorSpace `json:"color_space,omitempty"`
	InputRange *Range      `json:"input_range,omitempty"`
	RedGain    *float64    `json:"red_gain,omitempty"`
	GreenGain  *float64    `json:"green_gain,omitempty"`
	BlueGain   *float64    `json:"blue_gain,omitempty"`
	Brightness *float64    `json:"brightness,omitempty"`
	Contrast   *float64    `json:"contrast,omitempty"`
	Saturation *float64    `json:"saturation,omitempty"`
	Hue        *float64    `json:"hue,omitempty"`
	Gamma      *float64    `json:"gamma,omitempty"`
}

// Apply returns a new, validated State with p's non-nil fields overlaid
// onto s. On validation failure it returns the error and the original s.
func (s State) Apply(p Patch) (State, error) {
	next := s

	if p.Enabled != nil {
		next.Enabled = *p.Enabled
	}
	if p.ColorSpace != nil {
		next.ColorSpace = *p.ColorSpace
	}
	if p.InputRange != nil {
		next.InputRange = *p.InputRange
	}
	if p.RedGain != nil {
		next.RedGain = *p.RedGain
	}
	if p.GreenGain != nil {
		next.GreenGain = *p.GreenGain
	}
	if p.BlueGain != nil {
		next.BlueGain = *p.BlueGain
	}
	if p.Brightness != nil {
		next.Brightness = *p.Brightness
	}
	if p.Contrast != nil {
		next.Contrast = *p.Contrast
	}
	if p.Saturation != nil {
		next.Saturation = *p.Saturation
	}
	if p.Hue != nil {
		next.Hue = *p.Hue
	}
	if p.Gamma != nil {
		next.Gamma = *p.Gamma
	}

	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

// Preset is a named, built-in color configuration (spec §4.9 "Apply
// color preset").
type Preset struct {
	Name  string
	State State
}

// Presets lists the built-in table from spec §4.9.
var Presets = []Preset{
	{"passthrough", State{Enabled: false, ColorSpace: BT709, InputRange: Limited, RedGain: 1, GreenGain: 1, BlueGain: 1, Contrast: 1, Saturation: 1, Gamma: 1}},
	{"hd-standard", State{Enabled: true, ColorSpace: BT709, InputRange: Limited, RedGain: 1, GreenGain: 1, BlueGain: 1, Contrast: 1, Saturation: 1, Gamma: 1}},
	{"hdr-bt2020", State{Enabled: true, ColorSpace: BT2020, InputRange: Limited, RedGain: 1, GreenGain: 1, BlueGain: 1, Contrast: 1, Saturation: 1, Gamma: 1}},
	{"pc-full-range", State{Enabled: true, ColorSpace: BT709, InputRange: Full, RedGain: 1, GreenGain: 1, BlueGain: 1, Contrast: 1, Saturation: 1, Gamma: 1}},
	{"sd-legacy", State{Enabled: true, ColorSpace: BT601, InputRange: Limited, RedGain: 1, GreenGain: 1, BlueGain: 1, Contrast: 1, Saturation: 1, Gamma: 1}},
}

// ByName looks up a preset by name; ok is false if no preset matches.
func ByName(name string) (State, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p.State, true
		}
	}
	return State{}, false
}
