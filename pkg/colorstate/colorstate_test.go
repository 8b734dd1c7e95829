package colorstate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsOutOfRangeGain(t *testing.T) {
	s := Default()
	s.RedGain = 2.5
	require.ErrorIs(t, s.Validate(), ErrRange)
}

func TestApplyPartialUpdateLeavesOtherFieldsAlone(t *testing.T) {
	s := Default()
	gain := 1.5
	next, err := s.Apply(Patch{RedGain: &gain})
	require.NoError(t, err)
	require.Equal(t, 1.5, next.RedGain)
	require.Equal(t, s.GreenGain, next.GreenGain)
}

func TestApplyRejectsInvalidPatchLeavesOriginalUnchanged(t *testing.T) {
	s := Default()
	bad := 5.0
	_, err := s.Apply(Patch{Saturation: &bad})
	require.ErrorIs(t, err, ErrRange)
}

func TestPresetsAllValidate(t *testing.T) {
	for _, p := range Presets {
		require.NoErrorf(t, p.State.Validate(), "preset %s", p.Name)
	}
}

func TestByNameUnknownReturnsFalse(t *testing.T) {
	_, ok := ByName("does-not-exist")
	require.False(t, ok)
}
