package warp

// homography is a 3x3 projective transform in row-major order with
// h[8] normalized to 1, following the Direct Linear Transform
// convention used throughout this package.
type homography struct {
	h [9]float64
}

// solveHomography finds the 3x3 projective transform mapping each src[i]
// to dst[i] for four point correspondences, by Gaussian elimination on
// the 8x8 DLT system (no RANSAC or least-squares: exactly four points).
func solveHomography(src, dst [4]Point) homography {
	var a [8][8]float64
	var b [8]float64

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := dst[i].X, dst[i].Y

		r1, r2 := i*2, i*2+1

		a[r1][0], a[r1][1], a[r1][2] = x, y, 1
		a[r1][6], a[r1][7] = -xp*x, -xp*y
		b[r1] = xp

		a[r2][3], a[r2][4], a[r2][5] = x, y, 1
		a[r2][6], a[r2][7] = -yp*x, -yp*y
		b[r2] = yp
	}

	coef := solve8x8(a, b)
	return homography{h: [9]float64{coef[0], coef[1], coef[2], coef[3], coef[4], coef[5], coef[6], coef[7], 1}}
}

// solve8x8 solves ax=b via Gaussian elimination with partial pivoting.
// A singular system (degenerate/self-intersecting source polygon) falls
// back to the identity transform rather than propagating NaN/Inf —
// spec §9 leaves self-intersecting behavior as an implementer choice;
// this package chooses a deterministic, non-exploding fallback.
func solve8x8(a [8][8]float64, b [8]float64) [8]float64 {
	const n = 8

	for col := 0; col < n; col++ {
		maxRow, maxVal := col, abs(a[col][col])
		for row := col + 1; row < n; row++ {
			if v := abs(a[row][col]); v > maxVal {
				maxVal, maxRow = v, row
			}
		}
		if maxRow != col {
			a[col], a[maxRow] = a[maxRow], a[col]
			b[col], b[maxRow] = b[maxRow], b[col]
		}

		pivot := a[col][col]
		if abs(pivot) < 1e-10 {
			return [8]float64{1, 0, 0, 0, 1, 0, 0, 0}
		}

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / pivot
			for j := col; j < n; j++ {
				a[row][j] -= factor * a[col][j]
			}
			b[row] -= factor * b[col]
		}
	}

	var x [8]float64
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a[i][j] * x[j]
		}
		x[i] = sum / a[i][i]
	}
	return x
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// apply maps a point through the homography.
func (hm homography) apply(x, y float64) (float64, float64) {
	w := hm.h[6]*x + hm.h[7]*y + hm.h[8]
	if abs(w) < 1e-10 {
		return x, y
	}
	xp := (hm.h[0]*x + hm.h[1]*y + hm.h[2]) / w
	yp := (hm.h[3]*x + hm.h[4]*y + hm.h[5]) / w
	return xp, yp
}
