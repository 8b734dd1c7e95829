package api

import (
	"net/http"

	"github.com/vidloop/keystoned/internal/control"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

// colorHandler implements GET/POST /api/color.
func (d Deps) colorHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ResponseJSON(w, d.Controller.Color())
	case http.MethodPost:
		var patch colorstate.Patch
		if !decodeJSON(w, r, &patch) {
			return
		}
		s, err := d.Controller.PatchColor(patch)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ResponseJSON(w, s)
	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

// colorPresetsHandler implements GET /api/color/presets.
func (d Deps) colorPresetsHandler(w http.ResponseWriter, r *http.Request) {
	ResponseJSON(w, colorstate.Presets)
}

// colorPresetApplyHandler implements POST /api/color/preset/{name}.
func (d Deps) colorPresetApplyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	name := lastSegment(r.URL.Path)
	s, err := d.Controller.ApplyColorPreset(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	ResponseJSON(w, s)
}

// colorAWBHandler implements POST /api/color/auto-white-balance.
func (d Deps) colorAWBHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	red, green, blue, err := d.Controller.AutoWhiteBalance(d.Frames)
	if err != nil {
		switch err {
		case control.ErrNoFrameYet:
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	ResponseJSON(w, struct {
		RedGain   float64 `json:"red_gain"`
		GreenGain float64 `json:"green_gain"`
		BlueGain  float64 `json:"blue_gain"`
	}{red, green, blue})
}
