package api

import (
	"errors"
	"net/http"

	"github.com/vidloop/keystoned/internal/control"
	"github.com/vidloop/keystoned/pkg/v4l2/device"
)

// videoDevicesHandler implements GET /api/video/devices.
func (d Deps) videoDevicesHandler(w http.ResponseWriter, r *http.Request) {
	devs, err := d.Controller.Video.Devices()
	if err != nil {
		Error(w, err)
		return
	}
	ResponseJSON(w, devs)
}

// videoDeviceHandler implements GET/POST /api/video/device.
func (d Deps) videoDeviceHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		pixFmt, width, height := d.Controller.Video.CurrentFormat()
		ResponseJSON(w, struct {
			Format        string `json:"format"`
			Width, Height int
			Pending       control.PendingVideo `json:"pending"`
		}{Format: device.FormatName(pixFmt), Width: width, Height: height, Pending: d.Controller.Video.Pending()})
	case http.MethodPost:
		var body struct {
			Path string `json:"path"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		writeRestartRequired(w, d.Controller.Video.RequestDevice(body.Path))
	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

// videoSettingsHandler implements GET/POST /api/video/settings.
func (d Deps) videoSettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		_, width, height := d.Controller.Video.CurrentFormat()
		ResponseJSON(w, struct {
			Width, Height int
			Pending       control.PendingVideo `json:"pending"`
		}{Width: width, Height: height, Pending: d.Controller.Video.Pending()})
	case http.MethodPost:
		var body struct {
			Width, Height, FPS int
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		writeRestartRequired(w, d.Controller.Video.RequestSettings(body.Width, body.Height, body.FPS))
	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

// videoFormatHandler implements GET/POST /api/video/format.
func (d Deps) videoFormatHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		pixFmt, _, _ := d.Controller.Video.CurrentFormat()
		ResponseJSON(w, struct {
			Format  string               `json:"format"`
			Pending control.PendingVideo `json:"pending"`
		}{Format: device.FormatName(pixFmt), Pending: d.Controller.Video.Pending()})
	case http.MethodPost:
		var body struct {
			Format string `json:"format"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		writeRestartRequired(w, d.Controller.Video.RequestFormat(body.Format))
	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

// videoCapabilitiesHandler implements GET /api/video/capabilities.
func (d Deps) videoCapabilitiesHandler(w http.ResponseWriter, r *http.Request) {
	caps, err := d.Controller.Video.Capabilities()
	if err != nil {
		Error(w, err)
		return
	}
	ResponseJSON(w, caps)
}

// videoReleaseHandler implements POST /api/video/release.
func (d Deps) videoReleaseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	if err := d.Controller.Video.Release(); err != nil {
		Error(w, err)
		return
	}
	Response(w, []byte("OK"), MimeText)
}

// videoAcquireHandler implements POST /api/video/acquire.
func (d Deps) videoAcquireHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	if err := d.Controller.Video.Acquire(); err != nil {
		Error(w, err)
		return
	}
	Response(w, []byte("OK"), MimeText)
}

// writeRestartRequired writes the restart_required response spec §6
// names, or a 500 if the change could not even be persisted.
func writeRestartRequired(w http.ResponseWriter, err error) {
	if err == nil || errors.Is(err, control.ErrRestartRequired) {
		ResponseJSON(w, struct {
			RestartRequired bool `json:"restart_required"`
		}{RestartRequired: true})
		return
	}
	Error(w, err)
}
