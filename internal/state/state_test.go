package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/pkg/calib"
	"github.com/vidloop/keystoned/pkg/colorstate"
)

func TestNewPublishesInitialSnapshot(t *testing.T) {
	m := New(640, 480)
	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.Version)
	require.False(t, snap.Calib.Enabled)
	require.Equal(t, colorstate.Default(), snap.Color)
}

func TestMutateCalibPublishesNewVersion(t *testing.T) {
	m := New(640, 480)
	before := m.Snapshot()

	_, err := m.MutateCalib(func(s *calib.State) error {
		return s.SetPoint(calib.TopLeft, 0.05, 0.05)
	})
	require.NoError(t, err)

	after := m.Snapshot()
	require.Greater(t, after.Version, before.Version)
	require.Equal(t, 0.05, after.Calib.Corners[calib.TopLeft].X)
	// the snapshot taken before the mutation must be untouched.
	require.Equal(t, 0.1, before.Calib.Corners[calib.TopLeft].X)
}

func TestMutateCalibRejectsInvalidResult(t *testing.T) {
	m := New(640, 480)
	before := m.Snapshot()

	sentinel := errors.New("boom")
	_, err := m.MutateCalib(func(s *calib.State) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Same(t, before, m.Snapshot())
}

func TestMutateColorValidatesBeforePublishing(t *testing.T) {
	m := New(640, 480)

	_, err := m.MutateColor(func(s colorstate.State) (colorstate.State, error) {
		s.RedGain = 99
		return s, s.Validate()
	})
	require.ErrorIs(t, err, colorstate.ErrRange)
	require.Equal(t, 1.0, m.Snapshot().Color.RedGain)

	_, err = m.MutateColor(func(s colorstate.State) (colorstate.State, error) {
		s.RedGain = 1.5
		return s, s.Validate()
	})
	require.NoError(t, err)
	require.Equal(t, 1.5, m.Snapshot().Color.RedGain)
}

func TestResetCalibDropsEdgePointsKeepsEnabled(t *testing.T) {
	m := New(640, 480)
	_, err := m.MutateCalib(func(s *calib.State) error {
		s.Enabled = true
		_, err := s.AddEdgePoint(0, 0.5, 0)
		return err
	})
	require.NoError(t, err)

	next := m.ResetCalib()
	require.True(t, next.Enabled)
	require.Empty(t, next.EdgePoints)
}
