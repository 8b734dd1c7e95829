package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vidloop/keystoned/pkg/calib"
)

// calibrationHandler implements GET/POST /api/calibration.
func (d Deps) calibrationHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ResponseJSON(w, d.Controller.Calibration())
	case http.MethodPost:
		var body struct {
			Corners [4]calib.Point `json:"corners"`
			Edges   []calib.Point  `json:"edge_points"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		s, err := d.Controller.ReplacePoints(body.Corners, body.Edges)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ResponseJSON(w, s)
	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

// calibrationPointHandler implements POST /api/calibration/point/{id}
// and DELETE /api/calibration/point/{id}.
func (d Deps) calibrationPointHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(lastSegment(r.URL.Path))
	if err != nil {
		http.Error(w, "invalid point id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var body struct{ X, Y float64 }
		if !decodeJSON(w, r, &body) {
			return
		}
		s, err := d.Controller.UpdatePoint(id, body.X, body.Y)
		if err != nil {
			writeCalibError(w, err)
			return
		}
		ResponseJSON(w, s)
	case http.MethodDelete:
		s, err := d.Controller.RemoveEdgePoint(id)
		if err != nil {
			writeCalibError(w, err)
			return
		}
		ResponseJSON(w, s)
	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

// calibrationAddPointHandler implements POST /api/calibration/point/add.
func (d Deps) calibrationAddPointHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Edge int     `json:"edge"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	id, s, err := d.Controller.AddEdgePoint(body.Edge, body.X, body.Y)
	if err != nil {
		writeCalibError(w, err)
		return
	}
	ResponseJSON(w, struct {
		ID    int          `json:"id"`
		State *calib.State `json:"state"`
	}{ID: id, State: s})
}

// calibrationResetHandler implements POST /api/calibration/reset.
func (d Deps) calibrationResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	ResponseJSON(w, d.Controller.ResetCalibration())
}

// calibrationSaveHandler implements POST /api/calibration/save.
func (d Deps) calibrationSaveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	if err := d.Controller.SaveCalibration(); err != nil {
		Error(w, err)
		return
	}
	Response(w, []byte("OK"), MimeText)
}

// calibrationEnableHandler implements POST /api/calibration/enable and
// /api/calibration/disable.
func (d Deps) calibrationEnableHandler(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "", http.StatusMethodNotAllowed)
			return
		}
		s, err := d.Controller.SetCalibrationEnabled(enabled)
		if err != nil {
			Error(w, err)
			return
		}
		ResponseJSON(w, s)
	}
}

func writeCalibError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calib.ErrNotFound), errors.Is(err, calib.ErrCornerID),
		errors.Is(err, calib.ErrInvalidEdge), errors.Is(err, calib.ErrRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		Error(w, err)
	}
}
