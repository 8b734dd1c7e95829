// Package api implements the HTTP control plane (spec §6): calibration,
// color, camera-control, video-device, preview, and stats endpoints on
// top of internal/control. It never reaches into the pipeline directly.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vidloop/keystoned/internal/app"
	"github.com/vidloop/keystoned/internal/control"
)

// Deps is the set of components the HTTP surface is wired against;
// main.go builds one after opening the devices and starting the
// pipeline.
type Deps struct {
	Controller *control.Controller
	Camera     *control.Camera
	Frames     control.FrameSource
}

var log zerolog.Logger

// Init registers every route named in spec §6 and returns the composed
// handler; it does not start listening (see Serve).
func Init(deps Deps) http.Handler {
	log = app.GetLogger("api")

	HandleFunc("/api/info", infoHandler)

	HandleFunc("/api/calibration", deps.calibrationHandler)
	HandleFunc("/api/calibration/point/", deps.calibrationPointHandler)
	HandleFunc("/api/calibration/point/add", deps.calibrationAddPointHandler)
	HandleFunc("/api/calibration/reset", deps.calibrationResetHandler)
	HandleFunc("/api/calibration/save", deps.calibrationSaveHandler)
	HandleFunc("/api/calibration/enable", deps.calibrationEnableHandler(true))
	HandleFunc("/api/calibration/disable", deps.calibrationEnableHandler(false))

	HandleFunc("/api/color", deps.colorHandler)
	HandleFunc("/api/color/presets", deps.colorPresetsHandler)
	HandleFunc("/api/color/preset/", deps.colorPresetApplyHandler)
	HandleFunc("/api/color/auto-white-balance", deps.colorAWBHandler)

	HandleFunc("/api/camera/controls", deps.cameraControlsHandler)
	HandleFunc("/api/camera/control/", deps.cameraControlSetHandler)
	HandleFunc("/api/camera/controls/reset", deps.cameraControlsResetHandler)
	HandleFunc("/api/camera/controls/refresh", deps.cameraControlsRefreshHandler)

	HandleFunc("/api/video/devices", deps.videoDevicesHandler)
	HandleFunc("/api/video/device", deps.videoDeviceHandler)
	HandleFunc("/api/video/settings", deps.videoSettingsHandler)
	HandleFunc("/api/video/format", deps.videoFormatHandler)
	HandleFunc("/api/video/capabilities", deps.videoCapabilitiesHandler)
	HandleFunc("/api/video/release", deps.videoReleaseHandler)
	HandleFunc("/api/video/acquire", deps.videoAcquireHandler)

	HandleFunc("/api/preview", deps.previewHandler)
	HandleFunc("/api/preview/raw", deps.previewRawHandler)
	HandleFunc("/api/preview/activate", deps.previewActivateHandler)
	HandleFunc("/api/preview/deactivate", deps.previewDeactivateHandler)

	HandleFunc("/api/stats", deps.statsHandler)
	HandleFunc("/api/stats/reset", deps.statsResetHandler)

	handler := middlewareCORS(mux)
	if log.Trace().Enabled() {
		handler = middlewareLog(handler)
	}
	return handler
}

var server *http.Server

// Serve starts the HTTP server on app.Host:app.Port and blocks until it
// returns (spec §5 "started as a second goroutine from main.go"). A
// clean Shutdown call returns http.ErrServerClosed from here, which
// main.go does not treat as a failure.
func Serve(handler http.Handler) error {
	addr := fmt.Sprintf("%s:%d", app.Host, app.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().Str("addr", addr).Msg("[api] listen")

	server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.Serve(ln)
}

// Shutdown gracefully stops the server started by Serve, per spec §5's
// shutdown sequencing. A no-op if Serve was never called.
func Shutdown(ctx context.Context) error {
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

var mux = http.NewServeMux()

// HandleFunc registers an absolute path against the internal mux; kept
// as its own function (rather than calling mux.HandleFunc directly) so
// route registration always goes through one place that could later add
// per-route middleware.
func HandleFunc(pattern string, handler http.HandlerFunc) {
	log.Trace().Str("path", pattern).Msg("[api] register path")
	mux.HandleFunc(pattern, handler)
}

const (
	MimeJSON = "application/json"
	MimeText = "text/plain"
)

// ResponseJSON always sets Content-Type so net/http never has to sniff it.
func ResponseJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", MimeJSON)
	_ = json.NewEncoder(w).Encode(v)
}

// Response writes body as contentType without JSON-encoding it.
func Response(w http.ResponseWriter, body []byte, contentType string) {
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(body)
}

// Error logs err and writes it as a 500. Handlers that can classify the
// failure (bad request, not found, conflict) write their own status
// instead of calling this.
func Error(w http.ResponseWriter, err error) {
	log.Error().Err(err).Caller(1).Send()
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// decodeJSON reads and validates a JSON request body, writing a 400 and
// returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// lastSegment returns the final "/"-separated component of an already
// prefix-matched path, e.g. "/api/calibration/point/7" -> "7".
func lastSegment(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

func middlewareLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Trace().Msgf("[api] %s %s %s", r.Method, r.URL, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func middlewareCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	ResponseJSON(w, app.Info)
}
