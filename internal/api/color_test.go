package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

func TestColorHandlerPatch(t *testing.T) {
	d := newTestDeps()

	req := httptest.NewRequest(http.MethodPost, "/api/color", strings.NewReader(`{"enabled":true,"contrast":1.5}`))
	w := httptest.NewRecorder()
	d.colorHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var s colorstate.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.True(t, s.Enabled)
	require.Equal(t, 1.5, s.Contrast)
}

func TestColorHandlerPatchRejectsOutOfRange(t *testing.T) {
	d := newTestDeps()

	req := httptest.NewRequest(http.MethodPost, "/api/color", strings.NewReader(`{"contrast":99}`))
	w := httptest.NewRecorder()
	d.colorHandler(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestColorPresetApplyHandler(t *testing.T) {
	d := newTestDeps()

	req := httptest.NewRequest(http.MethodPost, "/api/color/preset/hdr-bt2020", nil)
	w := httptest.NewRecorder()
	d.colorPresetApplyHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var s colorstate.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.Equal(t, colorstate.BT2020, s.ColorSpace)
}

func TestColorPresetApplyHandlerUnknownName(t *testing.T) {
	d := newTestDeps()

	req := httptest.NewRequest(http.MethodPost, "/api/color/preset/nonexistent", nil)
	w := httptest.NewRecorder()
	d.colorPresetApplyHandler(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestColorAWBHandlerNoFrameYet(t *testing.T) {
	d := newTestDeps()
	d.Frames = &fakeFrames{ok: false}

	req := httptest.NewRequest(http.MethodPost, "/api/color/auto-white-balance", nil)
	w := httptest.NewRecorder()
	d.colorAWBHandler(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type fakeFrames struct {
	data          []byte
	width, height int
	ok            bool
}

func (f *fakeFrames) LatestRGB() ([]byte, int, int, bool) {
	return f.data, f.width, f.height, f.ok
}
