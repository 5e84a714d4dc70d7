package colorgen

import (
	"fmt"
	"strconv"
)

// Fingerprint identifies the settings the color map was generated
// under: background kind, distance thresholds, and the effective
// lightness range. The persisted cache is only valid while the
// fingerprint is unchanged.
func (g *Generator) Fingerprint() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fingerprintLocked()
}

func (g *Generator) fingerprintLocked() string {
	lMin, lMax := g.lightnessRangeLocked()
	return fmt.Sprintf("bg=%s,de=%s/%s,L=%s/%s",
		g.colors.Kind(),
		ftoa(g.cfg.MinDeltaE), ftoa(g.cfg.TargetDeltaE),
		ftoa(lMin), ftoa(lMax))
}

// ftoa renders a float without trailing zeros, so 5 stays "5" and 7.5
// stays "7.5".
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
