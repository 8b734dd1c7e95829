package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/internal/capture"
	"github.com/vidloop/keystoned/internal/control"
)

type fakeCameraSource struct {
	infos  []capture.ControlInfo
	values map[uint32]int32
}

func (f *fakeCameraSource) Controls() ([]capture.ControlInfo, error) { return f.infos, nil }
func (f *fakeCameraSource) GetControl(id uint32) (int32, error)      { return f.values[id], nil }
func (f *fakeCameraSource) SetControl(id uint32, value int32) error {
	f.values[id] = value
	return nil
}

func newTestCameraDeps() Deps {
	d := newTestDeps()
	src := &fakeCameraSource{
		infos:  []capture.ControlInfo{{ID: 1, Name: "brightness", Min: -100, Max: 100, Default: 0}},
		values: map[uint32]int32{1: 0},
	}
	d.Camera = &control.Camera{Source: src}
	return d
}

func TestCameraControlsHandler(t *testing.T) {
	d := newTestCameraDeps()

	req := httptest.NewRequest(http.MethodGet, "/api/camera/controls", nil)
	w := httptest.NewRecorder()
	d.cameraControlsHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var vals []control.ControlValue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vals))
	require.Len(t, vals, 1)
}

func TestCameraControlSetHandler(t *testing.T) {
	d := newTestCameraDeps()

	req := httptest.NewRequest(http.MethodPost, "/api/camera/control/1", strings.NewReader(`{"value":42}`))
	w := httptest.NewRecorder()
	d.cameraControlSetHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var vals []control.ControlValue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vals))
	require.Equal(t, int32(42), vals[0].Value)
}
