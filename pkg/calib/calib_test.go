package calib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHasFourCorners(t *testing.T) {
	s := New(1920, 1080)
	require.NoError(t, s.Validate())
	for i, c := range s.Corners {
		require.Equal(t, i, c.ID)
		require.Equal(t, Corner, c.Kind)
	}
}

func TestAddEdgePointAssignsIDsFrom100(t *testing.T) {
	s := New(640, 480)

	id1, err := s.AddEdgePoint(0, 0.5, 0.1)
	require.NoError(t, err)
	require.Equal(t, 100, id1)

	id2, err := s.AddEdgePoint(1, 0.9, 0.5)
	require.NoError(t, err)
	require.Equal(t, 101, id2)

	require.NoError(t, s.Validate())
}

func TestAddEdgePointRejectsBadEdge(t *testing.T) {
	s := New(640, 480)
	_, err := s.AddEdgePoint(4, 0.5, 0.5)
	require.ErrorIs(t, err, ErrInvalidEdge)
}

func TestRemoveEdgePointRejectsCorner(t *testing.T) {
	s := New(640, 480)
	err := s.RemoveEdgePoint(2)
	require.ErrorIs(t, err, ErrCornerID)
}

func TestRemoveEdgePoint(t *testing.T) {
	s := New(640, 480)
	id, _ := s.AddEdgePoint(0, 0.5, 0.1)
	require.NoError(t, s.RemoveEdgePoint(id))
	require.Empty(t, s.EdgePoints)

	require.ErrorIs(t, s.RemoveEdgePoint(id), ErrNotFound)
}

func TestSetPointClampsToUnitRange(t *testing.T) {
	s := New(640, 480)
	require.NoError(t, s.SetPoint(TopLeft, -0.5, 1.5))
	require.Equal(t, 0.0, s.Corners[TopLeft].X)
	require.Equal(t, 1.0, s.Corners[TopLeft].Y)
}

func TestResetDropsEdgePointsKeepsEnabled(t *testing.T) {
	s := New(640, 480)
	s.Enabled = true
	_, _ = s.AddEdgePoint(0, 0.5, 0.1)

	s.Reset()

	require.True(t, s.Enabled)
	require.Empty(t, s.EdgePoints)
	require.Equal(t, DefaultCorners[0][0], s.Corners[0].X)
}

func TestEdgePointsOnOrderedByDistanceFromStartCorner(t *testing.T) {
	s := New(640, 480)
	// top edge runs from corner 0 (0.1,0.1) to corner 1 (0.9,0.1).
	farID, _ := s.AddEdgePoint(0, 0.8, 0.1)
	nearID, _ := s.AddEdgePoint(0, 0.2, 0.1)

	ordered := s.EdgePointsOn(0)
	require.Len(t, ordered, 2)
	require.Equal(t, nearID, ordered[0].ID)
	require.Equal(t, farID, ordered[1].ID)
}

func TestCloneIsIndependent(t *testing.T) {
	s := New(640, 480)
	_, _ = s.AddEdgePoint(0, 0.5, 0.1)

	c := s.Clone()
	_, _ = c.AddEdgePoint(1, 0.5, 0.5)

	require.Len(t, s.EdgePoints, 1)
	require.Len(t, c.EdgePoints, 2)
}

func TestPolygonOrdersCornersAndEdgePoints(t *testing.T) {
	s := New(640, 480)
	_, _ = s.AddEdgePoint(0, 0.5, 0.1)

	poly := s.Polygon()
	require.Len(t, poly, 5)
	require.Equal(t, TopLeft, poly[0].ID)
	require.Equal(t, Edge, poly[1].Kind)
	require.Equal(t, TopRight, poly[2].ID)
}

func TestValidateRejectsDuplicateEdgeID(t *testing.T) {
	s := New(640, 480)
	_, _ = s.AddEdgePoint(0, 0.5, 0.1)
	s.EdgePoints = append(s.EdgePoints, s.EdgePoints[0])

	require.Error(t, s.Validate())
}
