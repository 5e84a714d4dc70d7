package colormath

// fallbackPalette is the fixed rescue palette used when random
// generation cannot clear the minimum distance from the background.
// Entries are ordered for wide hue coverage.
var fallbackPalette = []Lab{
	{L: 55, A: 70, B: 50},   // red-orange
	{L: 70, A: -60, B: 60},  // green
	{L: 45, A: 20, B: -70},  // blue
	{L: 60, A: 80, B: -40},  // magenta
	{L: 85, A: -10, B: 80},  // yellow
	{L: 75, A: -40, B: -20}, // cyan
	{L: 50, A: 40, B: 60},   // orange-brown
	{L: 65, A: -50, B: 10},  // teal
	{L: 70, A: 50, B: 10},   // pink
	{L: 35, A: 10, B: -50},  // dark blue
}

// Fallback returns the i-th fallback palette entry; the index wraps.
func Fallback(i int) Lab {
	if i < 0 {
		i = -i
	}
	return fallbackPalette[i%len(fallbackPalette)]
}
