package engine

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hantianjz/semhl/internal/colorcache"
	"github.com/hantianjz/semhl/internal/colorgen"
	"github.com/hantianjz/semhl/internal/colormath"
	"github.com/hantianjz/semhl/internal/config"
	"github.com/hantianjz/semhl/internal/events"
	"github.com/hantianjz/semhl/internal/host"
	"github.com/hantianjz/semhl/internal/testutil"
	"github.com/hantianjz/semhl/internal/textbuf"
)

type fixture struct {
	world *textbuf.World

	// timers drives the engine's flush debounce; saveTimers drives
	// the generator's persistence debounce. Separate wheels so tests
	// can assert one without tripping over the other.
	timers     *testutil.ManualTimers
	saveTimers *testutil.ManualTimers

	gen *colorgen.Generator
	eng *Engine
	pub *events.Publisher
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	world := textbuf.NewWorld()
	world.SetBackground("#1C1C1C", host.BackgroundDark)
	timers := testutil.NewManualTimers()
	saveTimers := testutil.NewManualTimers()
	store := colorcache.NewStore(filepath.Join(t.TempDir(), "color_cache.toml"), zerolog.Nop())
	gen := colorgen.New(
		colorgen.Config{MinDeltaE: 5, TargetDeltaE: 15},
		world, saveTimers, store, rand.New(rand.NewSource(1)), zerolog.Nop(),
	)
	pub := events.NewPublisher()
	opts := Options{
		Config:    config.DefaultConfig(),
		Host:      world.Host(timers),
		Generator: gen,
		Events:    pub,
		Log:       zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return &fixture{
		world:      world,
		timers:     timers,
		saveTimers: saveTimers,
		gen:        gen,
		eng:        New(opts),
		pub:        pub,
	}
}

func (f *fixture) styleAt(t *testing.T, buf, row, col int) string {
	t.Helper()
	style, ok := f.world.SpanAt(buf, row, col)
	require.True(t, ok, "expected a span at (%d,%d)", row, col)
	return style
}

func TestLoadHighlightsAllIdentifiers(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1\nprint(v)")

	f.eng.Load(b.ID())

	require.True(t, f.eng.HasBuffer(b.ID()))
	assert.Equal(t, 3, f.world.CountSpans(b.ID()))

	// Same identifier, same style; the style resolves to a real
	// foreground color.
	vStyle := f.styleAt(t, b.ID(), 0, 6)
	assert.Equal(t, vStyle, f.styleAt(t, b.ID(), 1, 6))
	fg, ok := f.world.Foreground(vStyle)
	require.True(t, ok)
	assert.Regexp(t, `^#[0-9A-F]{6}$`, fg)
	assert.NotEqual(t, vStyle, f.styleAt(t, b.ID(), 1, 0), "distinct identifiers get distinct styles")
}

func TestEditKeepsIdentifierColorStable(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1")
	f.eng.Load(b.ID())
	vStyle := f.styleAt(t, b.ID(), 0, 6)

	b.InsertText(0, 11, "\nprint(v)")
	require.Equal(t, 1, f.eng.PendingTimers(b.ID()))

	f.timers.Advance(60 * time.Millisecond)

	assert.Zero(t, f.eng.PendingTimers(b.ID()))
	assert.Equal(t, vStyle, f.styleAt(t, b.ID(), 0, 6))
	assert.Equal(t, vStyle, f.styleAt(t, b.ID(), 1, 6))
}

func TestNewIdentifierNotMintedOnEditByDefault(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1")
	f.eng.Load(b.ID())

	b.InsertText(0, 11, "\nprint(v)")
	f.timers.Advance(60 * time.Millisecond)

	// "print" was never seen at load time: it stays unhighlighted.
	_, ok := f.world.SpanAt(b.ID(), 1, 0)
	assert.False(t, ok)
	_, cached := f.gen.CachedColor("print")
	assert.False(t, cached)
}

func TestAllowNewOnEditMintsColors(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.AllowNewOnEdit = true })
	b := f.world.NewBuffer("lua", "local v = 1")
	f.eng.Load(b.ID())

	b.InsertText(0, 11, "\nprint(v)")
	f.timers.Advance(60 * time.Millisecond)

	_, ok := f.world.SpanAt(b.ID(), 1, 0)
	assert.True(t, ok)
	_, cached := f.gen.CachedColor("print")
	assert.True(t, cached)
}

func TestDebounceCoalescesEditBursts(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1")
	f.eng.Load(b.ID())

	b.InsertText(0, 11, "0")
	b.InsertText(0, 12, "0")
	b.InsertText(0, 13, "0")

	// Distinct ticks each carry a timer until the flushes run.
	assert.Equal(t, 3, f.eng.PendingTimers(b.ID()))
	f.timers.Advance(60 * time.Millisecond)
	assert.Zero(t, f.eng.PendingTimers(b.ID()))
	assert.Equal(t, 1, f.world.CountSpans(b.ID()))
}

func TestNoOverlappingSpansAfterFlush(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "alpha = beta + alpha")
	f.eng.Load(b.ID())

	b.InsertText(0, 5, "x")
	f.timers.Advance(60 * time.Millisecond)

	ranges := f.world.SpanRanges(b.ID())
	for i := range ranges {
		for j := i + 1; j < len(ranges); j++ {
			a, bb := ranges[i], ranges[j]
			overlap := a.StartRow == bb.StartRow &&
				a.StartCol < bb.EndCol && bb.StartCol < a.EndCol
			assert.False(t, overlap, "spans %v and %v overlap", a, bb)
		}
	}
}

func TestTreeChangeCancelsPendingTimers(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1")
	f.eng.Load(b.ID())

	b.InsertText(0, 11, "0")
	require.Equal(t, 1, f.eng.PendingTimers(b.ID()))

	b.EmitTreeChange([]host.Range{{StartRow: 0, StartCol: 0, EndRow: 0, EndCol: 12}})

	assert.Zero(t, f.eng.PendingTimers(b.ID()))
	assert.Zero(t, f.timers.Pending(), "superseded timers are stopped, not just forgotten")
	assert.Equal(t, 1, f.world.CountSpans(b.ID()))
}

func TestUnloadClearsEverything(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1")
	f.eng.Load(b.ID())
	b.InsertText(0, 11, "0")
	require.NotZero(t, f.eng.PendingTimers(b.ID()))

	f.eng.Unload(b.ID())

	assert.Zero(t, f.world.CountSpans(b.ID()))
	assert.Zero(t, f.eng.PendingTimers(b.ID()))
	assert.False(t, f.eng.HasBuffer(b.ID()))
	assert.Zero(t, f.timers.Pending())

	// A second unload is a no-op.
	f.eng.Unload(b.ID())
}

func TestBufferDeleteDetaches(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1")
	f.eng.Load(b.ID())

	f.world.DeleteBuffer(b.ID())
	assert.False(t, f.eng.HasBuffer(b.ID()))
}

func TestLargeFileGate(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1")
	f.world.SetFileSize(b.ID(), config.DefaultMaxFileSize+1)

	f.eng.Load(b.ID())

	assert.False(t, f.eng.HasBuffer(b.ID()))
	assert.Zero(t, f.world.CountSpans(b.ID()))
}

func TestCustomDisablePredicateReplacesSizeGate(t *testing.T) {
	blocked := map[int]bool{}
	f := newFixture(t, func(o *Options) {
		o.Disable = func(buf int) bool { return blocked[buf] }
	})
	big := f.world.NewBuffer("lua", "x = 1")
	f.world.SetFileSize(big.ID(), config.DefaultMaxFileSize+1)

	// The size gate no longer applies.
	f.eng.Load(big.ID())
	assert.True(t, f.eng.HasBuffer(big.ID()))

	other := f.world.NewBuffer("lua", "y = 2")
	blocked[other.ID()] = true
	f.eng.Load(other.ID())
	assert.False(t, f.eng.HasBuffer(other.ID()))
}

func TestAttachOnlyTracksConfiguredFiletypes(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		cfg := config.DefaultConfig()
		cfg.Filetypes = []string{"lua"}
		o.Config = cfg
	})
	lua := f.world.NewBuffer("lua", "x = 1")
	py := f.world.NewBuffer("python", "y = 2")

	f.eng.Attach(lua.ID())
	f.eng.Attach(py.ID())

	assert.True(t, f.eng.HasBuffer(lua.ID()))
	assert.False(t, f.eng.HasBuffer(py.ID()))
}

func TestUnknownFiletypeLeavesBufferUntouched(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("markdown", "# heading")

	f.eng.Load(b.ID())

	assert.False(t, f.eng.HasBuffer(b.ID()))
	assert.Zero(t, f.world.CountSpans(b.ID()))
}

func TestBackgroundChangeRebuild(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "foo = 1")
	f.eng.Load(b.ID())

	darkStyle := f.styleAt(t, b.ID(), 0, 0)
	darkFg, ok := f.world.Foreground(darkStyle)
	require.True(t, ok)

	f.world.SetBackground("#FAFAFA", host.BackgroundLight)
	f.eng.OnBackgroundChanged()

	lightStyle := f.styleAt(t, b.ID(), 0, 0)
	lightFg, ok := f.world.Foreground(lightStyle)
	require.True(t, ok)

	assert.NotEqual(t, darkFg, lightFg)
	lab, err := colormath.HexToLab(lightFg)
	require.NoError(t, err)
	assert.LessOrEqual(t, lab.L, 51.0)
}

func TestLoadIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	b := f.world.NewBuffer("lua", "local v = 1\nprint(v)")

	f.eng.Load(b.ID())
	style := f.styleAt(t, b.ID(), 0, 6)

	f.eng.Load(b.ID())
	assert.Equal(t, 3, f.world.CountSpans(b.ID()))
	assert.Equal(t, style, f.styleAt(t, b.ID(), 0, 6), "reload keeps the assigned color")
}

func TestEventsPublishedOnLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	var got []events.EventType
	require.NoError(t, f.pub.Subscribe("test", events.Filter{}, func(e events.Event) {
		got = append(got, e.Type)
	}))

	b := f.world.NewBuffer("lua", "local v = 1")
	f.eng.Load(b.ID())
	f.eng.Unload(b.ID())

	assert.Equal(t, []events.EventType{
		events.EventBufferAttached,
		events.EventSpansUpdated,
		events.EventBufferDetached,
	}, got)
}

func TestColorsSurviveRestartViaCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "color_cache.toml")
	world := textbuf.NewWorld()
	world.SetBackground("#1C1C1C", host.BackgroundDark)
	timers := testutil.NewManualTimers()

	newEngine := func() (*Engine, *colorgen.Generator) {
		store := colorcache.NewStore(path, zerolog.Nop())
		gen := colorgen.New(
			colorgen.Config{MinDeltaE: 5, TargetDeltaE: 15},
			world, testutil.NewManualTimers(), store, rand.New(rand.NewSource(1)), zerolog.Nop(),
		)
		return New(Options{
			Config:    config.DefaultConfig(),
			Host:      world.Host(timers),
			Generator: gen,
			Log:       zerolog.Nop(),
		}), gen
	}

	eng, gen := newEngine()
	b := world.NewBuffer("lua", "foo = 1")
	eng.Load(b.ID())
	first, ok := gen.CachedColor("foo")
	require.True(t, ok)
	eng.Close() // flushes the pending cache write

	// A fresh engine over the same cache file resolves the same color.
	eng2, gen2 := newEngine()
	eng2.Load(b.ID())
	second, ok := gen2.CachedColor("foo")
	require.True(t, ok)
	assert.Equal(t, first, second)
}
