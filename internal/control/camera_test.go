package control

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/internal/capture"
)

type fakeCameraSource struct {
	infos  []capture.ControlInfo
	values map[uint32]int32
	setErr error
}

func (f *fakeCameraSource) Controls() ([]capture.ControlInfo, error) { return f.infos, nil }
func (f *fakeCameraSource) GetControl(id uint32) (int32, error)      { return f.values[id], nil }
func (f *fakeCameraSource) SetControl(id uint32, value int32) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[id] = value
	return nil
}

func newFakeCameraSource() *fakeCameraSource {
	return &fakeCameraSource{
		infos: []capture.ControlInfo{
			{ID: 1, Name: "brightness", Min: -100, Max: 100, Default: 0},
			{ID: 2, Name: "contrast", Min: 0, Max: 100, Default: 50},
		},
		values: map[uint32]int32{1: 10, 2: 50},
	}
}

func TestListControlsPairsInfoWithValue(t *testing.T) {
	cam := &Camera{Source: newFakeCameraSource()}
	vals, err := cam.ListControls()
	require.NoError(t, err)
	require.Len(t, vals, 2)
	require.Equal(t, int32(10), vals[0].Value)
}

func TestSetControlRefreshesList(t *testing.T) {
	src := newFakeCameraSource()
	cam := &Camera{Source: src}

	vals, err := cam.SetControl(1, 99)
	require.NoError(t, err)
	require.Equal(t, int32(99), vals[0].Value)
}

func TestSetControlPropagatesError(t *testing.T) {
	src := newFakeCameraSource()
	src.setErr = errors.New("boom")
	cam := &Camera{Source: src}

	_, err := cam.SetControl(1, 99)
	require.Error(t, err)
}

func TestResetControlsRestoresDefaults(t *testing.T) {
	src := newFakeCameraSource()
	cam := &Camera{Source: src}

	vals, err := cam.ResetControls()
	require.NoError(t, err)
	for _, v := range vals {
		require.Equal(t, v.Info.Default, v.Value)
	}
}
