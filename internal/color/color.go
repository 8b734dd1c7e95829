// Package color wraps pkg/colorop into the color-stage component
// (spec §4.4): a LUT cache keyed on the shared-state version so the
// per-channel tables are rebuilt only when ColorState actually changes,
// plus the auto-white-balance entry point the control plane calls.
package color

import (
	"sync"

	"github.com/vidloop/keystoned/pkg/colorop"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

// Stage caches the LUTs built from the most recently seen ColorState
// version; Apply rebuilds them only on a version change.
type Stage struct {
	mu      sync.Mutex
	version uint64
	luts    colorop.LUTs
}

// Apply runs the color stage in place over a packed RGB24 frame, per
// spec §4.4 steps 3-6 (range expansion is folded into decode upstream).
// A no-op when s.Enabled is false.
func (st *Stage) Apply(rgb []byte, s colorstate.State, version uint64) {
	if !s.Enabled {
		return
	}

	st.mu.Lock()
	if st.version != version {
		st.luts = colorop.BuildLUTs(s)
		st.version = version
	}
	luts := st.luts
	st.mu.Unlock()

	luts.Apply(rgb)
	colorop.ApplyHSL(rgb, s.Saturation, s.Hue)
}

// AutoWhiteBalance samples rgb (the most recent post-decode frame) and
// computes the gains spec §4.4 names, without mutating any shared state
// — the caller (internal/control) is responsible for publishing the
// result.
func AutoWhiteBalance(rgb []byte, width, height int) (red, green, blue float64, err error) {
	mr, mg, mb, variance := colorop.SampleMeans(rgb, width, height)
	return colorop.ComputeAWB(mr, mg, mb, variance)
}
