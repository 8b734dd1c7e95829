// Package colorop implements the per-pixel math of the color stage:
// white-balance gain, gamma, contrast/brightness (all foldable into
// per-channel lookup tables) and HSL saturation/hue rotation (computed
// per pixel, not LUT-able — it mixes all three channels).
package colorop

import (
	"errors"
	"math"

	"github.com/vidloop/keystoned/pkg/colorstate"
)

// LUT maps one input byte to one output byte.
type LUT [256]byte

// LUTs holds the per-channel gain+gamma+contrast+brightness table from
// spec §4.4 steps 3-5, folded into a single lookup per channel since each
// is a scalar function of one input component.
type LUTs struct {
	R, G, B LUT
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}

// BuildLUTs precomputes the three per-channel tables for the given color
// state. Call once per published ColorState change, not per pixel.
func BuildLUTs(s colorstate.State) LUTs {
	var out LUTs
	gains := [3]float64{s.RedGain, s.GreenGain, s.BlueGain}
	tables := [3]*LUT{&out.R, &out.G, &out.B}

	for ch, gain := range gains {
		for c := 0; c < 256; c++ {
			v := float64(c) * gain
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}

			v = 255 * math.Pow(v/255, 1/s.Gamma)
			v = (v-128)*s.Contrast + 128 + s.Brightness*2.55

			tables[ch][c] = clampByte(v)
		}
	}
	return out
}

// Apply runs the per-channel LUTs over a packed RGB24 buffer in place.
func (l LUTs) Apply(rgb []byte) {
	for i := 0; i+2 < len(rgb); i += 3 {
		rgb[i] = l.R[rgb[i]]
		rgb[i+1] = l.G[rgb[i+1]]
		rgb[i+2] = l.B[rgb[i+2]]
	}
}

// ApplyHSL scales saturation and rotates hue in place, per spec §4.4
// step 6. A no-op fast path when both parameters are neutral.
func ApplyHSL(rgb []byte, saturation, hueDeg float64) {
	if saturation == 1 && hueDeg == 0 {
		return
	}

	for i := 0; i+2 < len(rgb); i += 3 {
		h, s, l := rgbToHSL(rgb[i], rgb[i+1], rgb[i+2])

		s *= saturation
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}

		h = math.Mod(h+hueDeg+360, 360)

		rgb[i], rgb[i+1], rgb[i+2] = hslToRGB(h, s, l)
	}
}

func rgbToHSL(r, g, b byte) (h, s, l float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	l = (max + min) / 2

	if max == min {
		return 0, 0, l
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case rf:
		h = (gf - bf) / d
		if gf < bf {
			h += 6
		}
	case gf:
		h = (bf-rf)/d + 2
	default:
		h = (rf-gf)/d + 4
	}
	h *= 60

	return h, s, l
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

func hslToRGB(h, s, l float64) (byte, byte, byte) {
	if s == 0 {
		v := clampByte(l * 255)
		return v, v, v
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	hk := h / 360

	r := hueToRGB(p, q, hk+1.0/3)
	g := hueToRGB(p, q, hk)
	b := hueToRGB(p, q, hk-1.0/3)

	return clampByte(r * 255), clampByte(g * 255), clampByte(b * 255)
}

// ErrLowSignal is returned by ComputeAWB when the sampled scene is too
// dark or too flat to trust the measured channel means (spec §4.4
// "Quality gate").
var ErrLowSignal = errors.New("colorop: low signal, cannot compute white balance")

const (
	awbSampleStride  = 256 // approx. 1 in 256 pixel positions
	awbMinMeanBright = 16.0
	awbMinVariance   = 4.0
)

// SampleMeans walks a sparse uniform grid over a packed RGB24 buffer
// (roughly 1 in 256 pixel positions) and returns the per-channel means
// plus the overall-brightness variance, for the AWB quality gate.
func SampleMeans(rgb []byte, width, height int) (mr, mg, mb, variance float64) {
	pixels := width * height
	if pixels == 0 {
		return 0, 0, 0, 0
	}

	var sumR, sumG, sumB, sumSq, n float64
	for i := 0; i+2 < len(rgb); i += 3 * awbSampleStride {
		r, g, b := float64(rgb[i]), float64(rgb[i+1]), float64(rgb[i+2])
		sumR += r
		sumG += g
		sumB += b
		bright := (r + g + b) / 3
		sumSq += bright * bright
		n++
	}
	if n == 0 {
		return 0, 0, 0, 0
	}

	mr, mg, mb = sumR/n, sumG/n, sumB/n
	meanBright := (mr + mg + mb) / 3
	variance = sumSq/n - meanBright*meanBright
	return mr, mg, mb, variance
}

// ComputeAWB derives red/green/blue gains that equalize the sampled
// channel means to green, per spec §4.4. Green gain is always 1.
func ComputeAWB(mr, mg, mb, variance float64) (red, green, blue float64, err error) {
	meanBright := (mr + mg + mb) / 3
	if meanBright < awbMinMeanBright || variance < awbMinVariance {
		return 0, 0, 0, ErrLowSignal
	}

	red = clampGain(mg / mr)
	blue = clampGain(mg / mb)
	return red, 1, blue, nil
}

func clampGain(g float64) float64 {
	if g < 0.5 {
		return 0.5
	}
	if g > 2.0 {
		return 2.0
	}
	return g
}
