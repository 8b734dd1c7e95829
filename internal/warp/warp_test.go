package warp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/pkg/calib"
)

func TestApplyDisabledReturnsSameSlice(t *testing.T) {
	var st Stage
	s := calib.New(4, 4)
	rgb := []byte{1, 2, 3, 4, 5, 6}

	out := st.Apply(nil, rgb, s, 1, 4, 4, 4, 4)
	require.Same(t, &rgb[0], &out[0])
}

func TestApplyCachesMeshAcrossCallsWithSameVersion(t *testing.T) {
	var st Stage
	s := calib.New(8, 8)
	s.Enabled = true
	rgb := make([]byte, 8*8*3)
	dst := make([]byte, 8*8*3)

	st.Apply(dst, rgb, s, 7, 8, 8, 8, 8)
	mesh1 := st.mesh

	st.Apply(dst, rgb, s, 7, 8, 8, 8, 8)
	require.Same(t, mesh1, st.mesh)
}

func TestApplyRebuildsMeshOnVersionChange(t *testing.T) {
	var st Stage
	s := calib.New(8, 8)
	s.Enabled = true
	rgb := make([]byte, 8*8*3)
	dst := make([]byte, 8*8*3)

	st.Apply(dst, rgb, s, 1, 8, 8, 8, 8)
	mesh1 := st.mesh

	st.Apply(dst, rgb, s, 2, 8, 8, 8, 8)
	require.NotSame(t, mesh1, st.mesh)
}
