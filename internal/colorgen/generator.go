// Package colorgen turns identifier text into stable, perceptually
// distinct foreground colors. Colors are generated in CIELAB space at a
// target distance from the editor background, kept in an in-memory map,
// and persisted through the colorcache store under a settings
// fingerprint.
package colorgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hantianjz/semhl/internal/colorcache"
	"github.com/hantianjz/semhl/internal/colormath"
	"github.com/hantianjz/semhl/internal/host"
)

const (
	// maxAttempts bounds random generation before falling back to the
	// fixed palette.
	maxAttempts = 10

	// saveDelay coalesces bursts of CacheColor calls into one write.
	saveDelay = 5 * time.Second

	defaultDarkBackground  = "#000000"
	defaultLightBackground = "#FFFFFF"
)

// Config controls color generation.
type Config struct {
	// MinDeltaE is the minimum CIE76 distance from the background a
	// color must achieve. Zero or negative accepts any color.
	MinDeltaE float64

	// TargetDeltaE is the distance generation aims for.
	TargetDeltaE float64

	// LMin and LMax are absolute lightness bounds in [0,100]. When
	// nil the range is derived from the background kind: [50,100] on
	// dark, [0,50] on light.
	LMin *float64
	LMax *float64
}

// Generator owns the identifier→color map. All methods are safe for
// concurrent use.
type Generator struct {
	mu     sync.Mutex
	cfg    Config
	colors host.Colorscheme
	timers host.Timers
	store  *colorcache.Store
	rng    *rand.Rand
	log    zerolog.Logger

	cache       map[string]string
	bgLab       *colormath.Lab
	fallbackIdx int
	saveTimer   host.TimerHandle
	saveHook    func()
}

// New creates a generator and adopts the persisted cache when its
// settings fingerprint matches the current one. A nil rng gets a
// time-seeded source; tests inject a seeded one.
func New(cfg Config, colors host.Colorscheme, timers host.Timers, store *colorcache.Store, rng *rand.Rand, log zerolog.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := &Generator{
		cfg:    cfg,
		colors: colors,
		timers: timers,
		store:  store,
		rng:    rng,
		log:    log,
		cache:  make(map[string]string),
	}
	if store != nil {
		persisted := store.Load()
		if persisted.SettingsHash == g.Fingerprint() && len(persisted.Colors) > 0 {
			g.cache = persisted.Colors
			log.Debug().Int("colors", len(persisted.Colors)).Msg("adopted persisted color cache")
		}
	}
	return g
}

// SetSaveHook registers a callback invoked after each successful
// persistence write.
func (g *Generator) SetSaveHook(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saveHook = fn
}

// Generate returns a fresh "#RRGGBB" color with at least MinDeltaE
// distance from the background, biased toward TargetDeltaE. On repeated
// misses the fixed fallback palette is stepped; fallback colors are
// best effort.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	bg := g.backgroundLabLocked()
	lMin, lMax := g.lightnessRangeLocked()

	for i := 0; i < maxAttempts; i++ {
		cand := colormath.GenerateAtDistance(g.rng, bg, g.cfg.TargetDeltaE, lMin, lMax)
		if colormath.DeltaE(cand, bg) >= g.cfg.MinDeltaE {
			return cand.Hex()
		}
	}

	fb := colormath.Clamp(colormath.Fallback(g.fallbackIdx), lMin, lMax)
	g.fallbackIdx++
	if d := colormath.DeltaE(fb, bg); d < g.cfg.MinDeltaE {
		fb = colormath.GenerateAtDistance(g.rng, fb, g.cfg.MinDeltaE-d+5, lMin, lMax)
	}
	g.log.Debug().Str("color", fb.Hex()).Msg("color generation exhausted attempts, using fallback")
	return fb.Hex()
}

// CachedColor returns the color mapped to id, if any.
func (g *Generator) CachedColor(id string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rgb, ok := g.cache[id]
	return rgb, ok
}

// CacheColor maps id to rgb and schedules a debounced persistence
// write.
func (g *Generator) CacheColor(id, rgb string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[id] = rgb
	g.scheduleSaveLocked()
}

// Size returns the number of cached identifier colors.
func (g *Generator) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cache)
}

// ClearBackgroundCache drops the cached background conversion and the
// identifier map, and deletes the on-disk cache. Called when the editor
// background changes; the fingerprint recomputes on next use.
func (g *Generator) ClearBackgroundCache() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.bgLab = nil
	g.cache = make(map[string]string)
	g.fallbackIdx = 0
	if g.saveTimer != nil {
		g.saveTimer.Stop()
		g.saveTimer = nil
	}
	if g.store != nil {
		g.store.Clear()
	}
}

// IsColorCollision reports whether two colors are closer than
// threshold in CIE76 distance. Unparseable inputs never collide.
func (g *Generator) IsColorCollision(a, b string, threshold float64) bool {
	la, err := colormath.HexToLab(a)
	if err != nil {
		return false
	}
	lb, err := colormath.HexToLab(b)
	if err != nil {
		return false
	}
	return colormath.DeltaE(la, lb) < threshold
}

// Flush writes any pending cache state immediately.
func (g *Generator) Flush() {
	g.mu.Lock()
	if g.saveTimer != nil {
		g.saveTimer.Stop()
		g.saveTimer = nil
	}
	g.mu.Unlock()
	g.persist()
}

func (g *Generator) scheduleSaveLocked() {
	if g.timers == nil || g.store == nil {
		return
	}
	if g.saveTimer != nil {
		g.saveTimer.Stop()
	}
	g.saveTimer = g.timers.AfterFunc(saveDelay, g.persist)
}

func (g *Generator) persist() {
	if g.store == nil {
		return
	}
	g.mu.Lock()
	snapshot := colorcache.File{
		SettingsHash: g.fingerprintLocked(),
		Colors:       make(map[string]string, len(g.cache)),
	}
	for id, rgb := range g.cache {
		snapshot.Colors[id] = rgb
	}
	hook := g.saveHook
	g.saveTimer = nil
	g.mu.Unlock()

	if err := g.store.Save(snapshot); err != nil {
		g.log.Debug().Err(err).Msg("color cache save failed")
		return
	}
	if hook != nil {
		hook()
	}
}

// backgroundLabLocked converts the editor background to LAB, caching
// the result until ClearBackgroundCache.
func (g *Generator) backgroundLabLocked() colormath.Lab {
	if g.bgLab != nil {
		return *g.bgLab
	}
	hex, ok := g.colors.NormalBackground()
	if !ok {
		if g.colors.Kind() == host.BackgroundLight {
			hex = defaultLightBackground
		} else {
			hex = defaultDarkBackground
		}
	}
	lab, err := colormath.HexToLab(hex)
	if err != nil {
		g.log.Warn().Err(err).Str("background", hex).Msg("background color unparseable, assuming black")
		lab = colormath.Lab{}
	}
	g.bgLab = &lab
	return lab
}

func (g *Generator) lightnessRangeLocked() (float64, float64) {
	lMin, lMax := 50.0, 100.0
	if g.colors.Kind() == host.BackgroundLight {
		lMin, lMax = 0, 50
	}
	if g.cfg.LMin != nil {
		lMin = *g.cfg.LMin
	}
	if g.cfg.LMax != nil {
		lMax = *g.cfg.LMax
	}
	return lMin, lMax
}
