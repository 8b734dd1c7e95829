// Package warp implements the polygon-driven forward perspective
// correction: the calibration polygon (four corners plus edge
// subdivision points) is decomposed into a grid of sub-quads, each
// mapped to its destination rectangle via a 3x3 homography solved by
// direct linear transform; rendering walks the destination and inverse-
// samples the source with bilinear interpolation.
package warp

import (
	"sort"

	"github.com/vidloop/keystoned/pkg/calib"
)

// Point is a location in pixel space (not normalized).
type Point struct {
	X, Y float64
}

func lerp(a, b Point, t float64) Point {
	return Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

func addPt(a, b Point) Point { return Point{a.X + b.X, a.Y + b.Y} }
func subPt(a, b Point) Point { return Point{a.X - b.X, a.Y - b.Y} }
func scalePt(a Point, s float64) Point { return Point{a.X * s, a.Y * s} }

// project returns the clamped parametric position of p on segment a->b.
func project(p, a, b Point) float64 {
	d := subPt(b, a)
	lenSq := d.X*d.X + d.Y*d.Y
	if lenSq == 0 {
		return 0
	}
	t := (subPt(p, a).X*d.X + subPt(p, a).Y*d.Y) / lenSq
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// curveNode is one point on a polygon edge's piecewise-linear curve, at
// parametric position t along that edge (corner-to-corner, t in [0,1]).
type curveNode struct {
	t float64
	p Point
}

// evalCurve linearly interpolates within a sorted list of curve nodes.
func evalCurve(nodes []curveNode, t float64) Point {
	if t <= nodes[0].t {
		return nodes[0].p
	}
	for i := 1; i < len(nodes); i++ {
		if t <= nodes[i].t {
			span := nodes[i].t - nodes[i-1].t
			if span == 0 {
				return nodes[i].p
			}
			return lerp(nodes[i-1].p, nodes[i].p, (t-nodes[i-1].t)/span)
		}
	}
	return nodes[len(nodes)-1].p
}

// mesh holds the boundary curves and grid breakpoints derived from a
// calibration polygon, from which any interior point can be located via
// the Coons-patch blend in at(u,v).
type mesh struct {
	top, bottom, left, right []curveNode
	corners                  [4]Point // 0=TL(u0,v0) 1=TR(u1,v0) 2=BR(u1,v1) 3=BL(u0,v1)
	colBreaks, rowBreaks     []float64
}

func uniqueSorted(vals []float64) []float64 {
	sort.Float64s(vals)
	out := vals[:0]
	for _, v := range vals {
		if len(out) == 0 || v-out[len(out)-1] > 1e-9 {
			out = append(out, v)
		}
	}
	return out
}

// buildMesh converts a calibration state (normalized [0,1] coordinates)
// into pixel-space boundary curves for a srcW x srcH source image.
func buildMesh(s *calib.State, srcW, srcH float64) *mesh {
	toPx := func(p calib.Point) Point { return Point{p.X * srcW, p.Y * srcH} }

	c0, c1, c2, c3 := toPx(s.Corners[0]), toPx(s.Corners[1]), toPx(s.Corners[2]), toPx(s.Corners[3])

	m := &mesh{corners: [4]Point{c0, c1, c2, c3}}

	// top: corner0 -> corner1, column fraction u = t directly.
	m.top = []curveNode{{0, c0}}
	for _, p := range s.EdgePointsOn(0) {
		pt := toPx(p)
		m.top = append(m.top, curveNode{project(pt, c0, c1), pt})
	}
	m.top = append(m.top, curveNode{1, c1})

	// bottom: corner2 -> corner3; column fraction u = 1 - t.
	m.bottom = []curveNode{{0, c3}}
	for _, p := range s.EdgePointsOn(2) {
		pt := toPx(p)
		m.bottom = append(m.bottom, curveNode{1 - project(pt, c2, c3), pt})
	}
	m.bottom = append(m.bottom, curveNode{1, c2})
	sort.Slice(m.bottom, func(i, j int) bool { return m.bottom[i].t < m.bottom[j].t })

	// left: corner3 -> corner0; row fraction v = 1 - t.
	m.left = []curveNode{{0, c0}}
	for _, p := range s.EdgePointsOn(3) {
		pt := toPx(p)
		m.left = append(m.left, curveNode{1 - project(pt, c3, c0), pt})
	}
	m.left = append(m.left, curveNode{1, c3})
	sort.Slice(m.left, func(i, j int) bool { return m.left[i].t < m.left[j].t })

	// right: corner1 -> corner2; row fraction v = t directly.
	m.right = []curveNode{{0, c1}}
	for _, p := range s.EdgePointsOn(1) {
		pt := toPx(p)
		m.right = append(m.right, curveNode{project(pt, c1, c2), pt})
	}
	m.right = append(m.right, curveNode{1, c2})

	cols := []float64{0, 1}
	for _, n := range m.top {
		cols = append(cols, n.t)
	}
	for _, n := range m.bottom {
		cols = append(cols, n.t)
	}
	m.colBreaks = uniqueSorted(cols)

	rows := []float64{0, 1}
	for _, n := range m.left {
		rows = append(rows, n.t)
	}
	for _, n := range m.right {
		rows = append(rows, n.t)
	}
	m.rowBreaks = uniqueSorted(rows)

	return m
}

// at evaluates the Coons-patch blend of the four boundary curves at
// normalized patch coordinates (u,v) in [0,1]^2, exactly reproducing the
// four corners at the patch's own corners.
func (m *mesh) at(u, v float64) Point {
	c0, c1, c2, c3 := m.corners[0], m.corners[1], m.corners[2], m.corners[3]

	top := evalCurve(m.top, u)
	bottom := evalCurve(m.bottom, u)
	left := evalCurve(m.left, v)
	right := evalCurve(m.right, v)

	boundary := addPt(addPt(scalePt(top, 1-v), scalePt(bottom, v)), addPt(scalePt(left, 1-u), scalePt(right, u)))

	bilinearCorners := addPt(
		addPt(scalePt(c0, (1-u)*(1-v)), scalePt(c1, u*(1-v))),
		addPt(scalePt(c3, (1-u)*v), scalePt(c2, u*v)),
	)

	return subPt(boundary, bilinearCorners)
}

// Mesh is the public, precomputed representation of a calibration
// polygon ready for per-frame rendering at a fixed source/destination
// size. Build it once per published calibration snapshot, not per frame.
type Mesh struct {
	m          *mesh
	cells      []cell
	srcW, srcH float64
	dstW, dstH int
}

type cell struct {
	x0, x1, y0, y1 int // destination pixel rectangle, [x0,x1) x [y0,y1)
	inv            homography
}

// BuildMesh precomputes the sub-quad grid and per-cell inverse
// homographies for warping a srcW x srcH frame into a dstW x dstH frame.
func BuildMesh(s *calib.State, srcW, srcH, dstW, dstH int) *Mesh {
	m := buildMesh(s, float64(srcW), float64(srcH))

	out := &Mesh{m: m, srcW: float64(srcW), srcH: float64(srcH), dstW: dstW, dstH: dstH}

	for i := 0; i+1 < len(m.colBreaks); i++ {
		u0, u1 := m.colBreaks[i], m.colBreaks[i+1]
		for j := 0; j+1 < len(m.rowBreaks); j++ {
			v0, v1 := m.rowBreaks[j], m.rowBreaks[j+1]

			srcQuad := [4]Point{m.at(u0, v0), m.at(u1, v0), m.at(u1, v1), m.at(u0, v1)}

			dx0, dx1 := int(u0*float64(dstW)+0.5), int(u1*float64(dstW)+0.5)
			dy0, dy1 := int(v0*float64(dstH)+0.5), int(v1*float64(dstH)+0.5)
			dstQuad := [4]Point{
				{float64(dx0), float64(dy0)}, {float64(dx1), float64(dy0)},
				{float64(dx1), float64(dy1)}, {float64(dx0), float64(dy1)},
			}

			out.cells = append(out.cells, cell{
				x0: dx0, x1: dx1, y0: dy0, y1: dy1,
				inv: solveHomography(dstQuad, srcQuad),
			})
		}
	}
	return out
}

func (mesh *Mesh) cellAt(x, y int) *cell {
	for i := range mesh.cells {
		c := &mesh.cells[i]
		if x >= c.x0 && x < c.x1 && y >= c.y0 && y < c.y1 {
			return c
		}
	}
	return &mesh.cells[len(mesh.cells)-1]
}

// RenderRGB24 warps src (packed RGB24, srcW x srcH) into dst (already
// sized dstW*dstH*3, drawn from framepool by the caller), sampling
// outside the source rectangle as black (spec §4.5 step 3).
func (mesh *Mesh) RenderRGB24(dst, src []byte) []byte {
	for y := 0; y < mesh.dstH; y++ {
		for x := 0; x < mesh.dstW; x++ {
			c := mesh.cellAt(x, y)
			sx, sy := c.inv.apply(float64(x)+0.5, float64(y)+0.5)

			off := (y*mesh.dstW + x) * 3
			sampleBilinear(src, int(mesh.srcW), int(mesh.srcH), sx, sy, dst[off:off+3])
		}
	}
	return dst
}

func sampleBilinear(src []byte, w, h int, x, y float64, out []byte) {
	if x < 0 || y < 0 || x >= float64(w) || y >= float64(h) {
		out[0], out[1], out[2] = 0, 0, 0
		return
	}

	x0, y0 := int(x), int(y)
	x1, y1 := x0+1, y0+1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	for c := 0; c < 3; c++ {
		p00 := float64(src[(y0*w+x0)*3+c])
		p10 := float64(src[(y0*w+x1)*3+c])
		p01 := float64(src[(y1*w+x0)*3+c])
		p11 := float64(src[(y1*w+x1)*3+c])

		v := p00*(1-fx)*(1-fy) + p10*fx*(1-fy) + p01*(1-fx)*fy + p11*fx*fy
		out[c] = byte(v + 0.5)
	}
}
