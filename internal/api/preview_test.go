package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreviewHandlerNotReadyReturns404(t *testing.T) {
	d := newTestDeps()

	req := httptest.NewRequest(http.MethodGet, "/api/preview", nil)
	w := httptest.NewRecorder()
	d.previewHandler(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreviewActivateDeactivateRoundTrip(t *testing.T) {
	d := newTestDeps()

	actReq := httptest.NewRequest(http.MethodPost, "/api/preview/activate", nil)
	actW := httptest.NewRecorder()
	d.previewActivateHandler(actW, actReq)
	require.Equal(t, http.StatusOK, actW.Code)
	require.True(t, d.Controller.Preview.Active())

	deactReq := httptest.NewRequest(http.MethodPost, "/api/preview/deactivate", nil)
	deactW := httptest.NewRecorder()
	d.previewDeactivateHandler(deactW, deactReq)
	require.Equal(t, http.StatusOK, deactW.Code)
	require.False(t, d.Controller.Preview.Active())
}

func TestStatsResetHandler(t *testing.T) {
	d := newTestDeps()
	d.Controller.Stats.IncDropped()

	req := httptest.NewRequest(http.MethodPost, "/api/stats/reset", nil)
	w := httptest.NewRecorder()
	d.statsResetHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, uint64(0), d.Controller.ReadStats().FramesDropped)
}
