// Package engine drives incremental highlight maintenance: it owns
// per-buffer state, reacts to byte-change and tree-change
// notifications from the host parser, batches pending edit ranges
// behind a short debounce, and keeps the span store populated with
// stable identifier colors.
package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hantianjz/semhl/internal/colorgen"
	"github.com/hantianjz/semhl/internal/config"
	"github.com/hantianjz/semhl/internal/events"
	"github.com/hantianjz/semhl/internal/host"
)

const (
	// ByteChangeDelay is the debounce between a byte-change
	// notification and the flush that processes it.
	ByteChangeDelay = 50 * time.Millisecond

	// spanPriority keeps identifier spans above plain syntax
	// highlighting but below selections and diagnostics.
	spanPriority = 130
)

// Options configure an Engine.
type Options struct {
	Config    *config.Config
	Host      host.Host
	Generator *colorgen.Generator

	// Events receives engine notifications; nil disables publishing.
	Events *events.Publisher

	// Disable is a custom skip predicate; when set it replaces the
	// file-size gate.
	Disable func(buf int) bool

	// AllowNewOnEdit mints colors for identifiers first seen on the
	// incremental paths. Off by default: editing should not
	// spontaneously color names that were not colored at load.
	AllowNewOnEdit bool

	Log zerolog.Logger
}

// Engine owns all per-buffer highlight state. Host callbacks, timer
// flushes, and the public operations are serialized by one mutex; the
// engine behaves like the single-threaded event loop it models.
// Events are published after the lock is released.
type Engine struct {
	mu sync.Mutex

	cfg      *config.Config
	host     host.Host
	gen      *colorgen.Generator
	pub      *events.Publisher
	disable  func(buf int) bool
	mintEdit bool
	log      zerolog.Logger

	buffers map[int]*bufferState

	// queries caches the compiled identifier query per language;
	// queryFailed remembers languages whose compile failed so later
	// passes skip fast.
	queries     map[string]host.Query
	queryFailed map[string]bool
}

// bufferState is the engine's view of one attached buffer.
type bufferState struct {
	attachID string
	parser   host.Parser
	lang     string
	query    host.Query
	pending  []host.Range
	timers   map[int]host.TimerHandle
}

// New creates an engine from options.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Engine{
		cfg:         cfg,
		host:        opts.Host,
		gen:         opts.Generator,
		pub:         opts.Events,
		disable:     opts.Disable,
		mintEdit:    opts.AllowNewOnEdit,
		log:         opts.Log,
		buffers:     make(map[int]*bufferState),
		queries:     make(map[string]host.Query),
		queryFailed: make(map[string]bool),
	}
}

// Load applies the engine to a buffer now. A buffer that is already
// attached gets a fresh full pass instead of a second attachment.
func (e *Engine) Load(buf int) {
	e.mu.Lock()
	var evs []events.Event
	if st, ok := e.buffers[buf]; ok {
		evs = e.fullProcessLocked(buf, st, true)
	} else {
		evs = e.attachLocked(buf)
	}
	e.mu.Unlock()
	e.publishAll(evs)
}

// Attach auto-attaches a buffer whose filetype is tracked by the
// configuration; untracked or already-attached buffers are left alone.
func (e *Engine) Attach(buf int) {
	e.mu.Lock()
	var evs []events.Event
	_, attached := e.buffers[buf]
	if !attached && e.cfg.TracksFiletype(e.host.Buffers.Filetype(buf)) {
		evs = e.attachLocked(buf)
	}
	e.mu.Unlock()
	e.publishAll(evs)
}

// Unload removes all spans and per-buffer state for a buffer.
func (e *Engine) Unload(buf int) {
	e.mu.Lock()
	var evs []events.Event
	if st, ok := e.buffers[buf]; ok {
		evs = append(evs, e.detachLocked(buf, st))
	}
	e.mu.Unlock()
	e.publishAll(evs)
}

// Close unloads every buffer and flushes the pending cache write.
func (e *Engine) Close() {
	e.mu.Lock()
	var evs []events.Event
	for buf, st := range e.buffers {
		evs = append(evs, e.detachLocked(buf, st))
	}
	e.mu.Unlock()
	e.publishAll(evs)
	if e.gen != nil {
		e.gen.Flush()
	}
}

// OnBackgroundChanged invalidates every color and rebuilds all live
// buffers against the new background.
func (e *Engine) OnBackgroundChanged() {
	e.gen.ClearBackgroundCache()

	e.mu.Lock()
	var evs []events.Event
	for buf, st := range e.buffers {
		e.host.Spans.ClearSpans(buf)
		evs = append(evs, e.fullProcessLocked(buf, st, true)...)
	}
	e.mu.Unlock()

	evs = append(evs, events.Event{Type: events.EventBackgroundRebuilt, Buffer: -1})
	e.publishAll(evs)
}

// HasBuffer reports whether the buffer is attached.
func (e *Engine) HasBuffer(buf int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.buffers[buf]
	return ok
}

// PendingTimers returns the number of unfired debounce timers for a
// buffer.
func (e *Engine) PendingTimers(buf int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.buffers[buf]; ok {
		return len(st.timers)
	}
	return 0
}

func (e *Engine) attachLocked(buf int) []events.Event {
	if e.disabledLocked(buf) {
		e.log.Debug().Int("buffer", buf).Msg("buffer disabled, skipping")
		return nil
	}

	e.host.Spans.ClearSpans(buf)

	parser, err := e.host.Parsers.GetParser(buf, "")
	if err != nil {
		e.log.Warn().Err(err).Int("buffer", buf).Msg("parser acquisition failed")
		return nil
	}

	lang := parser.Language()
	query, ok := e.queryLocked(lang)
	if !ok {
		return nil
	}

	st := &bufferState{
		attachID: uuid.NewString(),
		parser:   parser,
		lang:     lang,
		query:    query,
		timers:   make(map[int]host.TimerHandle),
	}

	parser.RegisterCallbacks(host.Callbacks{
		OnBytes: func(b, tick, srow, scol, _, _, _, _, newERow, newECol, _ int) {
			e.handleBytes(b, tick, srow, scol, newERow, newECol)
		},
		OnChangedTree: func(ranges []host.Range, tree host.Tree) {
			e.handleChangedTree(buf, ranges, tree)
		},
		OnDetach: func(b int) {
			e.Unload(b)
		},
	}, true)

	e.buffers[buf] = st
	e.log.Debug().
		Int("buffer", buf).
		Str("language", lang).
		Str("attach_id", st.attachID).
		Msg("buffer attached")

	evs := []events.Event{{Type: events.EventBufferAttached, Buffer: buf, AttachID: st.attachID}}
	return append(evs, e.fullProcessLocked(buf, st, true)...)
}

func (e *Engine) detachLocked(buf int, st *bufferState) events.Event {
	for _, h := range st.timers {
		h.Stop()
	}
	st.timers = make(map[int]host.TimerHandle)
	st.pending = nil
	delete(e.buffers, buf)
	e.host.Spans.ClearSpans(buf)
	e.log.Debug().Int("buffer", buf).Str("attach_id", st.attachID).Msg("buffer detached")
	return events.Event{Type: events.EventBufferDetached, Buffer: buf, AttachID: st.attachID}
}

func (e *Engine) disabledLocked(buf int) bool {
	if e.disable != nil {
		return e.disable(buf)
	}
	size, err := e.host.Buffers.FileSize(buf)
	if err != nil {
		// No backing file to measure; let the buffer through.
		return false
	}
	return size > e.cfg.MaxFileSize
}

// queryLocked returns the compiled identifier query for lang, caching
// the compile. A language whose compile failed once is disabled for
// the session.
func (e *Engine) queryLocked(lang string) (host.Query, bool) {
	if e.queryFailed[lang] {
		return nil, false
	}
	if q, ok := e.queries[lang]; ok {
		return q, true
	}
	q, err := e.host.Queries.Compile(lang)
	if err != nil {
		e.log.Warn().Err(err).Str("language", lang).Msg("identifier query compile failed, language disabled")
		e.queryFailed[lang] = true
		return nil, false
	}
	e.queries[lang] = q
	return q, true
}

// handleBytes is the on_bytes callback: it records the changed range
// and schedules a debounced flush keyed by the edit tick.
func (e *Engine) handleBytes(buf, tick, srow, scol, newERow, newECol int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.buffers[buf]
	if !ok || !e.host.Buffers.IsLoaded(buf) {
		return
	}

	st.pending = append(st.pending, host.Range{
		StartRow: srow,
		StartCol: scol,
		EndRow:   srow + newERow,
		EndCol:   newECol,
	})

	if h, ok := st.timers[tick]; ok {
		h.Stop()
	}
	st.timers[tick] = e.host.Timers.AfterFunc(ByteChangeDelay, func() {
		e.flush(buf, tick)
	})
}

// flush is the debounced pass: merge pending ranges, re-parse, and
// re-highlight each merged range.
func (e *Engine) flush(buf, tick int) {
	e.mu.Lock()
	evs := e.flushLocked(buf, tick)
	e.mu.Unlock()
	e.publishAll(evs)
}

func (e *Engine) flushLocked(buf, tick int) []events.Event {
	st, ok := e.buffers[buf]
	if !ok {
		return nil
	}
	delete(st.timers, tick)
	if !e.host.Buffers.IsLoaded(buf) {
		st.pending = nil
		return nil
	}

	ranges := MergeRanges(st.pending)
	st.pending = nil
	if len(ranges) == 0 {
		return nil
	}

	trees, err := st.parser.Parse()
	if err != nil || len(trees) == 0 {
		e.log.Warn().Err(err).Int("buffer", buf).Msg("parse failed, dropping flush")
		return nil
	}
	root := trees[0].Root()

	for _, r := range ranges {
		e.host.Spans.DeleteSpansIn(buf, r)
		nodes, err := st.query.Captures(root, buf, r.StartRow, r.EndRow+1)
		if err != nil {
			e.log.Warn().Err(err).Int("buffer", buf).Msg("identifier query failed mid-flush")
			break
		}
		for _, node := range nodes {
			e.highlightNodeLocked(buf, node, e.mintEdit)
		}
	}

	return []events.Event{e.spansEventLocked(buf, st)}
}

// handleChangedTree is the on_changedtree callback. The tree passed in
// is already authoritative, so every pending debounce timer for the
// buffer is superseded and cancelled before the sweep.
func (e *Engine) handleChangedTree(buf int, ranges []host.Range, tree host.Tree) {
	e.mu.Lock()
	evs := e.treeChangeLocked(buf, ranges, tree)
	e.mu.Unlock()
	e.publishAll(evs)
}

func (e *Engine) treeChangeLocked(buf int, ranges []host.Range, tree host.Tree) []events.Event {
	st, ok := e.buffers[buf]
	if !ok || !e.host.Buffers.IsLoaded(buf) {
		return nil
	}

	for _, h := range st.timers {
		h.Stop()
	}
	st.timers = make(map[int]host.TimerHandle)

	root := tree.Root()
	for _, r := range ranges {
		e.host.Spans.DeleteSpansIn(buf, r)
		nodes, err := st.query.Captures(root, buf, r.StartRow, r.EndRow+1)
		if err != nil {
			e.log.Warn().Err(err).Int("buffer", buf).Msg("identifier query failed on tree change")
			break
		}
		for _, node := range nodes {
			e.highlightNodeLocked(buf, node, e.mintEdit)
		}
	}

	return []events.Event{e.spansEventLocked(buf, st)}
}

// fullProcessLocked re-parses and highlights the whole buffer.
func (e *Engine) fullProcessLocked(buf int, st *bufferState, createNew bool) []events.Event {
	trees, err := st.parser.Parse()
	if err != nil || len(trees) == 0 {
		e.log.Warn().Err(err).Int("buffer", buf).Msg("parse failed, buffer left unhighlighted")
		return nil
	}
	nodes, err := st.query.Captures(trees[0].Root(), buf, -1, -1)
	if err != nil {
		e.log.Warn().Err(err).Int("buffer", buf).Msg("identifier query failed")
		return nil
	}
	for _, node := range nodes {
		e.highlightNodeLocked(buf, node, createNew)
	}
	return []events.Event{e.spansEventLocked(buf, st)}
}

// highlightNodeLocked applies one identifier's span. Colors come from
// the generator's map (which includes the persisted cache); a missing
// color is minted only when createNew is set, so plain typing does not
// spontaneously color identifiers that were not colored at load.
func (e *Engine) highlightNodeLocked(buf int, node host.Node, createNew bool) {
	id := node.Text(buf)
	if id == "" {
		return
	}
	r := node.Range()
	e.host.Spans.DeleteSpansIn(buf, r)

	rgb, ok := e.gen.CachedColor(id)
	if !ok {
		if !createNew {
			return
		}
		rgb = e.gen.Generate()
		e.gen.CacheColor(id, rgb)
	}

	style := styleName(rgb)
	e.host.Styles.EnsureStyle(style, rgb)
	e.host.Spans.AddSpan(buf, r, style, spanPriority)
}

// styleName derives the registered style name for a color, e.g.
// "#A3FF41" -> "sfg_a3ff41".
func styleName(rgb string) string {
	return "sfg_" + strings.ToLower(strings.TrimPrefix(rgb, "#"))
}

func (e *Engine) spansEventLocked(buf int, st *bufferState) events.Event {
	return events.Event{
		Type:      events.EventSpansUpdated,
		Buffer:    buf,
		AttachID:  st.attachID,
		SpanCount: e.host.Spans.CountSpans(buf),
	}
}

func (e *Engine) publishAll(evs []events.Event) {
	if e.pub == nil {
		return
	}
	for _, ev := range evs {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.Time.IsZero() {
			ev.Time = time.Now()
		}
		e.pub.Publish(ev)
	}
}
