package colormath

import (
	"math"
	"math/rand"
)

// abDistanceFactor scales the chromatic offset relative to the target
// distance; the remainder of the budget comes from the lightness draw.
const abDistanceFactor = 0.7

// GenerateAtDistance produces a LAB point biased to be target ΔE away
// from base. Lightness is drawn uniformly from [lMin, lMax] for
// brightness spread; hue is a random 2-D direction in the a/b plane.
// If clamping to the gamut collapsed the distance below half the
// target, the chromatic offset is rescaled to restore it.
func GenerateAtDistance(rng *rand.Rand, base Lab, target, lMin, lMax float64) Lab {
	targetL := lMin + rng.Float64()*(lMax-lMin)
	theta := rng.Float64() * 2 * math.Pi

	abDist := abDistanceFactor * target
	out := Lab{
		L: targetL,
		A: base.A + abDist*math.Cos(theta),
		B: base.B + abDist*math.Sin(theta),
	}
	out = Clamp(out, lMin, lMax)

	if d := DeltaE(out, base); d > 0 && d < 0.5*target {
		// Only the chromatic offset is stretched; lightness stays on
		// its uniform draw.
		dl := out.L - base.L
		need := 0.5 * target
		want := math.Sqrt(math.Max(0, need*need-dl*dl))
		if cur := math.Hypot(out.A-base.A, out.B-base.B); cur > 0 {
			scale := want / cur
			out.A = base.A + (out.A-base.A)*scale
			out.B = base.B + (out.B-base.B)*scale
			out = Clamp(out, lMin, lMax)
		}
	}
	return out
}
