// Package calib models the keystone calibration polygon: four fixed
// corners plus runtime-added edge subdivision points, in normalized
// [0,1] source-space coordinates.
package calib

import (
	"errors"
	"sort"
)

// Kind distinguishes a fixed corner from a runtime-added edge point.
type Kind int

const (
	Corner Kind = iota
	Edge
)

// Corner IDs are fixed; edge points are assigned IDs starting here.
const (
	TopLeft     = 0
	TopRight    = 1
	BottomRight = 2
	BottomLeft  = 3

	firstEdgeID = 100
)

var (
	ErrCornerID    = errors.New("calib: corner points cannot be added or removed")
	ErrInvalidEdge = errors.New("calib: edge must be 0..3")
	ErrRange       = errors.New("calib: x,y must be in [0,1]")
	ErrNotFound    = errors.New("calib: point not found")
)

// Point is a single control point of the calibration polygon.
type Point struct {
	ID   int     `json:"id"`
	Kind Kind    `json:"kind"`
	Edge int     `json:"edge"` // valid only for Kind == Edge: which side (0=top,1=right,2=bottom,3=left)
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// State is the full calibration polygon plus the enable flag and working
// resolution it was defined against.
type State struct {
	Enabled bool `json:"enabled"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`

	Corners    [4]Point `json:"corners"`
	EdgePoints []Point  `json:"edge_points"`

	nextEdgeID int
}

// DefaultCorners is the inset rectangle used by New and Reset.
var DefaultCorners = [4][2]float64{
	{0.1, 0.1},
	{0.9, 0.1},
	{0.9, 0.9},
	{0.1, 0.9},
}

// New builds a default State at the given working resolution: corners at
// the inset default rectangle, no edge points, calibration disabled.
func New(width, height int) *State {
	s := &State{Width: width, Height: height, nextEdgeID: firstEdgeID}
	s.Reset()
	return s
}

// Reset restores the default corners and drops all edge points. It does
// not change Enabled.
func (s *State) Reset() {
	for i, xy := range DefaultCorners {
		s.Corners[i] = Point{ID: i, Kind: Corner, X: xy[0], Y: xy[1]}
	}
	s.EdgePoints = nil
	s.nextEdgeID = firstEdgeID
}

// Clone returns a deep copy suitable for copy-on-write publication.
func (s *State) Clone() *State {
	c := *s
	c.EdgePoints = append([]Point(nil), s.EdgePoints...)
	return &c
}

func inRange(v float64) bool {
	return v >= 0 && v <= 1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SetPoint updates an existing point's coordinates by ID, clamping to
// [0,1]. Corner IDs (0..3) and previously-added edge IDs are both valid.
func (s *State) SetPoint(id int, x, y float64) error {
	x, y = clamp01(x), clamp01(y)

	if id >= TopLeft && id <= BottomLeft {
		s.Corners[id].X, s.Corners[id].Y = x, y
		return nil
	}

	for i := range s.EdgePoints {
		if s.EdgePoints[i].ID == id {
			s.EdgePoints[i].X, s.EdgePoints[i].Y = x, y
			return nil
		}
	}

	return ErrNotFound
}

// AddEdgePoint inserts a new edge point on the given side, allocating the
// next free ID >= 100, after validating edge and x,y range. It does not
// special-case a point coincident with a corner: the point is stored as
// given. A corner-coincident edge point is harmless at render time —
// pkg/warp's evalCurve walks curve nodes by parametric position and
// returns whichever node matches t=0 or t=1 first, which has the same
// coordinates as the corner it coincides with either way.
func (s *State) AddEdgePoint(edge int, x, y float64) (int, error) {
	if edge < 0 || edge > 3 {
		return 0, ErrInvalidEdge
	}
	if !inRange(x) || !inRange(y) {
		return 0, ErrRange
	}

	id := s.nextEdgeID
	s.nextEdgeID++

	s.EdgePoints = append(s.EdgePoints, Point{
		ID: id, Kind: Edge, Edge: edge, X: x, Y: y,
	})
	return id, nil
}

// RemoveEdgePoint removes an edge point by ID. Corner IDs (< 100) are
// always rejected.
func (s *State) RemoveEdgePoint(id int) error {
	if id < firstEdgeID {
		return ErrCornerID
	}
	for i := range s.EdgePoints {
		if s.EdgePoints[i].ID == id {
			s.EdgePoints = append(s.EdgePoints[:i], s.EdgePoints[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// EdgePointsOn returns the edge points on the given side, ordered by
// distance from that side's starting corner (corner `edge`), per §3
// "ordered by distance from the edge's starting corner when consumed".
// Ties (identical coordinates) keep insertion order (stable sort).
func (s *State) EdgePointsOn(edge int) []Point {
	start := s.Corners[edge]

	var pts []Point
	for _, p := range s.EdgePoints {
		if p.Edge == edge {
			pts = append(pts, p)
		}
	}

	sort.SliceStable(pts, func(i, j int) bool {
		return distSq(start, pts[i]) < distSq(start, pts[j])
	})
	return pts
}

func distSq(a Point, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// Validate checks the invariants from spec §8: exactly four corners with
// IDs {0,1,2,3}, unique edge IDs >= 100, and every coordinate in [0,1].
func (s *State) Validate() error {
	for i, c := range s.Corners {
		if c.ID != i {
			return ErrCornerID
		}
		if !inRange(c.X) || !inRange(c.Y) {
			return ErrRange
		}
	}

	seen := make(map[int]bool, len(s.EdgePoints))
	for _, p := range s.EdgePoints {
		if p.ID < firstEdgeID {
			return ErrCornerID
		}
		if seen[p.ID] {
			return errors.New("calib: duplicate edge id")
		}
		seen[p.ID] = true
		if p.Edge < 0 || p.Edge > 3 {
			return ErrInvalidEdge
		}
		if !inRange(p.X) || !inRange(p.Y) {
			return ErrRange
		}
	}
	return nil
}

// Polygon returns the ordered source-space vertex list: corner 0, the
// edge points on side 0 (by distance from corner 0), corner 1, the edge
// points on side 1, and so on — the forward-warp source polygon Ps from
// spec §4.5.
func (s *State) Polygon() []Point {
	pts := make([]Point, 0, 4+len(s.EdgePoints))
	for edge := 0; edge < 4; edge++ {
		pts = append(pts, s.Corners[edge])
		pts = append(pts, s.EdgePointsOn(edge)...)
	}
	return pts
}
