package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordAccumulatesFrameCount(t *testing.T) {
	var s Stats
	now := time.Now()
	s.Record(Timings{Decode: 2 * time.Millisecond}, now)
	s.Record(Timings{Decode: 4 * time.Millisecond}, now.Add(10*time.Millisecond))

	snap := s.Snapshot()
	require.Equal(t, uint64(2), snap.FramesTotal)
	require.Greater(t, snap.AvgDecodeMs, 0.0)
}

func TestFPSEstimateFromFrameGap(t *testing.T) {
	var s Stats
	now := time.Now()
	s.Record(Timings{}, now)
	s.Record(Timings{}, now.Add(20*time.Millisecond)) // 50fps gap

	snap := s.Snapshot()
	require.Greater(t, snap.FPS, 0.0)
}

func TestIncDroppedAndDecodeErrorAreIndependentCounters(t *testing.T) {
	var s Stats
	s.IncDropped()
	s.IncDropped()
	s.IncDecodeError()

	snap := s.Snapshot()
	require.Equal(t, uint64(2), snap.FramesDropped)
	require.Equal(t, uint64(1), snap.DecodeErrors)
}

func TestResetZeroesEverything(t *testing.T) {
	var s Stats
	s.Record(Timings{Decode: 5 * time.Millisecond}, time.Now())
	s.IncDropped()

	s.Reset()
	snap := s.Snapshot()
	require.Zero(t, snap.FramesTotal)
	require.Zero(t, snap.FramesDropped)
	require.Zero(t, snap.AvgDecodeMs)
}
