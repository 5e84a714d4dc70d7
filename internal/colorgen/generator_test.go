package colorgen

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hantianjz/semhl/internal/colorcache"
	"github.com/hantianjz/semhl/internal/colormath"
	"github.com/hantianjz/semhl/internal/host"
	"github.com/hantianjz/semhl/internal/testutil"
)

func ptr(v float64) *float64 { return &v }

func newTestGenerator(t *testing.T, cfg Config, scheme *testutil.Colorscheme) (*Generator, *testutil.ManualTimers, *colorcache.Store) {
	t.Helper()
	store := colorcache.NewStore(filepath.Join(t.TempDir(), "color_cache.toml"), zerolog.Nop())
	timers := testutil.NewManualTimers()
	gen := New(cfg, scheme, timers, store, rand.New(rand.NewSource(1)), zerolog.Nop())
	return gen, timers, store
}

func TestGenerateProducesValidDistinctColors(t *testing.T) {
	scheme := testutil.NewColorscheme("#1C1C1C", host.BackgroundDark)
	gen, _, _ := newTestGenerator(t, Config{MinDeltaE: 5, TargetDeltaE: 15}, scheme)

	bg, err := colormath.HexToLab("#1C1C1C")
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		hex := gen.Generate()
		assert.Regexp(t, `^#[0-9A-F]{6}$`, hex)

		lab, err := colormath.HexToLab(hex)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, colormath.DeltaE(lab, bg), 5.0)
		// Dark background derives the bright half of the L axis;
		// one unit of slack for gamut clamping.
		assert.GreaterOrEqual(t, lab.L, 49.0)
	}
}

func TestGenerateHonorsExplicitLightnessBounds(t *testing.T) {
	scheme := testutil.NewColorscheme("#000000", host.BackgroundDark)
	cfg := Config{MinDeltaE: 5, TargetDeltaE: 15, LMin: ptr(60), LMax: ptr(80)}
	gen, _, _ := newTestGenerator(t, cfg, scheme)

	for i := 0; i < 5; i++ {
		lab, err := colormath.HexToLab(gen.Generate())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, lab.L, 59.0)
		assert.LessOrEqual(t, lab.L, 81.0)
	}
}

func TestCachedColorRoundTrip(t *testing.T) {
	scheme := testutil.NewColorscheme("", host.BackgroundDark)
	gen, _, _ := newTestGenerator(t, Config{MinDeltaE: 5, TargetDeltaE: 15}, scheme)

	_, ok := gen.CachedColor("unknown")
	assert.False(t, ok)

	gen.CacheColor("foo", "#A3FF41")
	got, ok := gen.CachedColor("foo")
	assert.True(t, ok)
	assert.Equal(t, "#A3FF41", got)
}

func TestCacheColorDebouncesPersistence(t *testing.T) {
	scheme := testutil.NewColorscheme("", host.BackgroundDark)
	gen, timers, store := newTestGenerator(t, Config{MinDeltaE: 5, TargetDeltaE: 15}, scheme)

	gen.CacheColor("a", "#FF0000")
	timers.Advance(3 * time.Second)
	assert.Empty(t, store.Load().Colors, "no write before the save delay")

	// A second write inside the window resets the debounce.
	gen.CacheColor("b", "#00FF00")
	timers.Advance(3 * time.Second)
	assert.Empty(t, store.Load().Colors)

	timers.Advance(3 * time.Second)
	persisted := store.Load()
	assert.Equal(t, gen.Fingerprint(), persisted.SettingsHash)
	assert.Equal(t, map[string]string{"a": "#FF0000", "b": "#00FF00"}, persisted.Colors)
}

func TestFingerprintIsPureFunctionOfSettings(t *testing.T) {
	scheme := testutil.NewColorscheme("", host.BackgroundDark)
	gen, _, _ := newTestGenerator(t, Config{MinDeltaE: 5, TargetDeltaE: 15}, scheme)
	assert.Equal(t, "bg=dark,de=5/15,L=50/100", gen.Fingerprint())
	assert.Equal(t, gen.Fingerprint(), gen.Fingerprint())

	light := testutil.NewColorscheme("", host.BackgroundLight)
	genLight, _, _ := newTestGenerator(t, Config{MinDeltaE: 7.5, TargetDeltaE: 20}, light)
	assert.Equal(t, "bg=light,de=7.5/20,L=0/50", genLight.Fingerprint())
}

func TestFingerprintMismatchDiscardsPersistedCache(t *testing.T) {
	scheme := testutil.NewColorscheme("", host.BackgroundDark)
	path := filepath.Join(t.TempDir(), "color_cache.toml")
	store := colorcache.NewStore(path, zerolog.Nop())

	require.NoError(t, store.Save(colorcache.File{
		SettingsHash: "bg=dark,de=5/15,L=50/100",
		Colors:       map[string]string{"foo": "#ABCDEF"},
	}))

	// Same settings: adopted.
	gen := New(Config{MinDeltaE: 5, TargetDeltaE: 15}, scheme, testutil.NewManualTimers(), store, rand.New(rand.NewSource(1)), zerolog.Nop())
	got, ok := gen.CachedColor("foo")
	require.True(t, ok)
	assert.Equal(t, "#ABCDEF", got)

	// min_delta_e bumped: the persisted map is stale.
	gen = New(Config{MinDeltaE: 6, TargetDeltaE: 15}, scheme, testutil.NewManualTimers(), store, rand.New(rand.NewSource(1)), zerolog.Nop())
	_, ok = gen.CachedColor("foo")
	assert.False(t, ok)
	assert.Zero(t, gen.Size())
}

func TestClearBackgroundCache(t *testing.T) {
	scheme := testutil.NewColorscheme("#101010", host.BackgroundDark)
	gen, timers, store := newTestGenerator(t, Config{MinDeltaE: 5, TargetDeltaE: 15}, scheme)

	gen.CacheColor("foo", "#A3FF41")
	gen.Flush()
	require.NotEmpty(t, store.Load().Colors)

	scheme.Set("#FAFAFA", host.BackgroundLight)
	gen.ClearBackgroundCache()

	_, ok := gen.CachedColor("foo")
	assert.False(t, ok)
	assert.Empty(t, store.Load().Colors)
	assert.Zero(t, timers.Pending(), "pending save canceled")
	assert.Equal(t, "bg=light,de=5/15,L=0/50", gen.Fingerprint())

	// New colors land in the light half of the L axis.
	lab, err := colormath.HexToLab(gen.Generate())
	require.NoError(t, err)
	assert.LessOrEqual(t, lab.L, 51.0)
}

func TestIsColorCollision(t *testing.T) {
	scheme := testutil.NewColorscheme("", host.BackgroundDark)
	gen, _, _ := newTestGenerator(t, Config{MinDeltaE: 5, TargetDeltaE: 15}, scheme)

	assert.True(t, gen.IsColorCollision("#FF0000", "#FE0101", 5))
	assert.False(t, gen.IsColorCollision("#FF0000", "#0000FF", 5))
	assert.False(t, gen.IsColorCollision("junk", "#0000FF", 5))
}

func TestGenerateAcceptsAnythingWithoutMinimum(t *testing.T) {
	scheme := testutil.NewColorscheme("", host.BackgroundDark)
	gen, _, _ := newTestGenerator(t, Config{MinDeltaE: 0, TargetDeltaE: 15}, scheme)
	assert.Regexp(t, `^#[0-9A-F]{6}$`, gen.Generate())
}
