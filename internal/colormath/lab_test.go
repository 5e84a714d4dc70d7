package colormath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToLabKnownColors(t *testing.T) {
	tests := []struct {
		hex  string
		l    float64
		tolL float64
	}{
		{hex: "#FFFFFF", l: 100, tolL: 0.01},
		{hex: "#000000", l: 0, tolL: 0.01},
		{hex: "#FF0000", l: 53.24, tolL: 0.5},
		{hex: "#00FF00", l: 87.73, tolL: 0.5},
		{hex: "#0000FF", l: 32.3, tolL: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			lab, err := HexToLab(tt.hex)
			require.NoError(t, err)
			assert.InDelta(t, tt.l, lab.L, tt.tolL)
		})
	}
}

func TestHexToLabRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "FFFFFF", "#FFF", "#GGGGGG", "#FFFFFFF"} {
		_, err := HexToLab(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestHexOutputFormat(t *testing.T) {
	for _, lab := range []Lab{
		{L: 50, A: 0, B: 0},
		{L: 100, A: 0, B: 0},
		{L: 0, A: 0, B: 0},
		{L: 60, A: 80, B: -60},
		// Far out of gamut: must still clamp to a valid encoding.
		{L: 50, A: 127, B: 127},
	} {
		hex := lab.Hex()
		assert.Regexp(t, `^#[0-9A-F]{6}$`, hex)
	}
}

func TestRoundTripDeltaE(t *testing.T) {
	// In-gamut LAB points survive lab→rgb→lab with ΔE ≤ 1.
	hexes := []string{"#FF0000", "#00FF00", "#0000FF", "#808080", "#C4E9E4", "#123456", "#FEDCBA"}
	for _, hex := range hexes {
		lab, err := HexToLab(hex)
		require.NoError(t, err)
		back, err := HexToLab(lab.Hex())
		require.NoError(t, err)
		assert.LessOrEqual(t, DeltaE(lab, back), 1.0, "round trip of %s", hex)
	}
}

func TestDeltaE(t *testing.T) {
	a := Lab{L: 50, A: 10, B: 10}
	assert.Zero(t, DeltaE(a, a))
	b := Lab{L: 53, A: 14, B: 10}
	assert.InDelta(t, 5.0, DeltaE(a, b), 1e-9)
	assert.Equal(t, DeltaE(a, b), DeltaE(b, a))
}

func TestClamp(t *testing.T) {
	got := Clamp(Lab{L: 120, A: 200, B: -200}, 10, 90)
	assert.Equal(t, Lab{L: 90, A: 127, B: -128}, got)

	got = Clamp(Lab{L: -5, A: 0, B: 0}, 10, 90)
	assert.Equal(t, Lab{L: 10, A: 0, B: 0}, got)

	// In-range values pass through.
	in := Lab{L: 42, A: -30, B: 64}
	assert.Equal(t, in, Clamp(in, 0, 100))
}

func TestFallbackWrapsAround(t *testing.T) {
	first := Fallback(0)
	assert.Equal(t, first, Fallback(10))
	assert.Equal(t, Fallback(3), Fallback(13))
	assert.NotEqual(t, Fallback(0), Fallback(1))
}
