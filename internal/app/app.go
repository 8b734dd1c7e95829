package app

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/vidloop/keystoned/pkg/shell"
)

var Version = "0.1.0"

var (
	Input   string
	Output  string
	Width   int
	Height  int
	FPS     int
	Host    string
	Port    int
	Verbose bool
)

var ConfigPath string
var ConfigReadOnly bool

var Info = map[string]any{
	"version": Version,
}

// Init parses CLI flags, loads the persisted config file (if any), and
// brings up logging. Width, height and fps left at zero are passed through
// as zero, so the driver's own negotiation decides them; the config file
// is not consulted for them.
func Init() {
	flag.StringVar(&Input, "input", "/dev/video0", "V4L2 capture device")
	flag.StringVar(&Output, "output", "/dev/video10", "V4L2 loopback output device")
	flag.IntVar(&Width, "width", 0, "capture width (0 = config/driver default)")
	flag.IntVar(&Height, "height", 0, "capture height (0 = config/driver default)")
	flag.IntVar(&FPS, "fps", 0, "capture frame rate (0 = config/driver default)")
	flag.StringVar(&Host, "host", "0.0.0.0", "HTTP listen address")
	flag.IntVar(&Port, "port", 8080, "HTTP listen port")
	flag.StringVar(&ConfigPath, "config", "keystoned.yaml", "path to the persisted config file")
	flag.BoolVar(&Verbose, "verbose", false, "enable debug logging")
	flag.Parse()

	if !filepath.IsAbs(ConfigPath) {
		if cwd, err := os.Getwd(); err == nil {
			ConfigPath = filepath.Join(cwd, ConfigPath)
		}
	}
	Info["config_path"] = ConfigPath

	if data, _ := os.ReadFile(ConfigPath); data != nil {
		configs = append(configs, []byte(shell.ReplaceEnvVars(string(data))))
	}

	if Verbose {
		modules["level"] = "debug"
	}

	initLogger()

	platform := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	Logger.Info().Str("version", Version).Str("platform", platform).Msg("keystoned starting")
	if ConfigPath != "" {
		Logger.Info().Str("path", ConfigPath).Msg("config")
	}
}
