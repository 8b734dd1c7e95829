package api

import (
	"net/http"
	"strconv"
)

// cameraControlsHandler implements GET /api/camera/controls.
func (d Deps) cameraControlsHandler(w http.ResponseWriter, r *http.Request) {
	vals, err := d.Camera.ListControls()
	if err != nil {
		Error(w, err)
		return
	}
	ResponseJSON(w, vals)
}

// cameraControlSetHandler implements POST /api/camera/control/{id}.
func (d Deps) cameraControlSetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseUint(lastSegment(r.URL.Path), 10, 32)
	if err != nil {
		http.Error(w, "invalid control id", http.StatusBadRequest)
		return
	}

	var body struct {
		Value int32 `json:"value"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	vals, err := d.Camera.SetControl(uint32(id), body.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ResponseJSON(w, vals)
}

// cameraControlsResetHandler implements POST /api/camera/controls/reset.
func (d Deps) cameraControlsResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	vals, err := d.Camera.ResetControls()
	if err != nil {
		Error(w, err)
		return
	}
	ResponseJSON(w, vals)
}

// cameraControlsRefreshHandler implements POST /api/camera/controls/refresh.
func (d Deps) cameraControlsRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	vals, err := d.Camera.RefreshControls()
	if err != nil {
		Error(w, err)
		return
	}
	ResponseJSON(w, vals)
}
