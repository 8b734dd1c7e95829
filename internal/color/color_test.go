package color

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

func TestApplyDisabledIsNoop(t *testing.T) {
	var st Stage
	rgb := []byte{10, 20, 30}
	orig := append([]byte(nil), rgb...)

	s := colorstate.Default()
	s.Enabled = false
	st.Apply(rgb, s, 1)

	require.Equal(t, orig, rgb)
}

func TestApplyRebuildsLUTOnlyOnVersionChange(t *testing.T) {
	var st Stage
	s := colorstate.Default()
	s.Enabled = true
	s.RedGain = 1.5

	st.Apply([]byte{100, 100, 100}, s, 5)
	require.Equal(t, uint64(5), st.version)
	cached := st.luts

	// same version, different (ignored) state: cached LUT must not rebuild.
	s.RedGain = 2.0
	rgb := []byte{100, 100, 100}
	st.Apply(rgb, s, 5)
	require.Equal(t, cached, st.luts)
}

func TestAutoWhiteBalanceOnNeutralGray(t *testing.T) {
	const w, h = 32, 32
	rgb := make([]byte, w*h*3)
	for i := range rgb {
		rgb[i] = 127
	}

	red, green, blue, err := AutoWhiteBalance(rgb, w, h)
	require.NoError(t, err)
	require.InDelta(t, 1.0, red, 0.02)
	require.Equal(t, 1.0, green)
	require.InDelta(t, 1.0, blue, 0.02)
}

func TestAutoWhiteBalanceRejectsDarkScene(t *testing.T) {
	const w, h = 32, 32
	rgb := make([]byte, w*h*3) // all zero: below brightness threshold

	_, _, _, err := AutoWhiteBalance(rgb, w, h)
	require.Error(t, err)
}
