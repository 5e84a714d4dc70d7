// Package colormath implements the CIELAB color arithmetic behind
// identifier coloring: sRGB↔LAB conversion, CIE76 color distance,
// lightness clamping, and generation of LAB points at a target
// perceptual distance from a base color.
package colormath

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Lab is a point in CIELAB space on the conventional scale:
// L in [0,100], A and B in [-128,127].
type Lab struct {
	L float64
	A float64
	B float64
}

var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// HexToLab converts a "#RRGGBB" string to a LAB point (sRGB, D65).
func HexToLab(hex string) (Lab, error) {
	if !hexPattern.MatchString(hex) {
		return Lab{}, fmt.Errorf("invalid hex color %q", hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Lab{}, fmt.Errorf("parse hex color %q: %w", hex, err)
	}
	l, a, b := c.Lab()
	// go-colorful keeps L in [0,1] and a,b in roughly [-1,1]; rescale
	// to the conventional 0-100 axes used everywhere else.
	return Lab{L: l * 100, A: a * 100, B: b * 100}, nil
}

// Hex converts the LAB point to an uppercase "#RRGGBB" string.
// Out-of-gamut points are clamped per channel before encoding.
func (l Lab) Hex() string {
	c := colorful.Lab(l.L/100, l.A/100, l.B/100).Clamped()
	return strings.ToUpper(c.Hex())
}

// IsValidHex reports whether s is a "#RRGGBB" color.
func IsValidHex(s string) bool {
	return hexPattern.MatchString(s)
}

// DeltaE returns the CIE76 color difference: Euclidean distance in LAB.
func DeltaE(a, b Lab) float64 {
	dl := a.L - b.L
	da := a.A - b.A
	db := a.B - b.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// Clamp restricts L to [lMin, lMax] and A/B to the representable
// [-128,127] band.
func Clamp(l Lab, lMin, lMax float64) Lab {
	l.L = clampf(l.L, lMin, lMax)
	l.A = clampf(l.A, -128, 127)
	l.B = clampf(l.B, -128, 127)
	return l
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
