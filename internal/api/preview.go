package api

import (
	"errors"
	"net/http"

	"github.com/vidloop/keystoned/internal/control"
)

// previewHandler implements GET /api/preview (corrected slot).
func (d Deps) previewHandler(w http.ResponseWriter, r *http.Request) {
	data, err := d.Controller.ReadPreview()
	writePreview(w, data, err)
}

// previewRawHandler implements GET /api/preview/raw.
func (d Deps) previewRawHandler(w http.ResponseWriter, r *http.Request) {
	data, err := d.Controller.ReadRawPreview()
	writePreview(w, data, err)
}

func writePreview(w http.ResponseWriter, data []byte, err error) {
	if err != nil {
		if errors.Is(err, control.ErrPreviewNotReady) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		Error(w, err)
		return
	}
	Response(w, data, "image/jpeg")
}

// previewActivateHandler implements POST /api/preview/activate.
func (d Deps) previewActivateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	ResponseJSON(w, struct {
		Refcount int32 `json:"refcount"`
	}{d.Controller.ActivatePreview()})
}

// previewDeactivateHandler implements POST /api/preview/deactivate.
func (d Deps) previewDeactivateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	ResponseJSON(w, struct {
		Refcount int32 `json:"refcount"`
	}{d.Controller.DeactivatePreview()})
}
