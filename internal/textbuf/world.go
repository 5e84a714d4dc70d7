package textbuf

import (
	"fmt"
	"sync"

	"github.com/hantianjz/semhl/internal/host"
)

// World owns a set of buffers and implements every host capability
// except timers. Compose it with host.SystemTimers (or a manual test
// wheel) to build the full bundle.
type World struct {
	mu         sync.Mutex
	buffers    map[int]*Buffer
	nextBufID  int
	spans      map[int][]*span
	nextSpanID int
	styles     map[string]string
	background string
	kind       host.BackgroundKind
}

type span struct {
	id       int
	start    host.Position
	end      host.Position
	style    string
	priority int
}

// NewWorld creates an empty world with a dark, unset background.
func NewWorld() *World {
	return &World{
		buffers: make(map[int]*Buffer),
		spans:   make(map[int][]*span),
		styles:  make(map[string]string),
		kind:    host.BackgroundDark,
	}
}

// Host assembles the capability bundle around this world.
func (w *World) Host(timers host.Timers) host.Host {
	return host.Host{
		Parsers: w,
		Queries: w,
		Spans:   w,
		Styles:  w,
		Buffers: w,
		Colors:  w,
		Timers:  timers,
	}
}

// NewBuffer creates a loaded buffer with the given filetype and
// content and returns it.
func (w *World) NewBuffer(filetype, content string) *Buffer {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextBufID++
	b := &Buffer{
		id:       w.nextBufID,
		world:    w,
		filetype: filetype,
		fileSize: int64(len(content)),
		loaded:   true,
	}
	b.lines = splitLines(content)
	w.buffers[b.id] = b
	return b
}

// Buffer returns the buffer with the given id, if it exists.
func (w *World) Buffer(buf int) (*Buffer, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.buffers[buf]
	return b, ok
}

// DeleteBuffer drops a buffer, fires parser detach callbacks, and
// removes its spans.
func (w *World) DeleteBuffer(buf int) {
	w.mu.Lock()
	b, ok := w.buffers[buf]
	if !ok {
		w.mu.Unlock()
		return
	}
	cbs := append([]host.Callbacks(nil), b.cbs...)
	b.loaded = false
	delete(w.buffers, buf)
	delete(w.spans, buf)
	w.mu.Unlock()

	for _, cb := range cbs {
		if cb.OnDetach != nil {
			cb.OnDetach(buf)
		}
	}
}

// SetFileSize overrides the reported backing-file size.
func (w *World) SetFileSize(buf int, size int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.buffers[buf]; ok {
		b.fileSize = size
	}
}

// SetBackground sets the colorscheme background and kind.
func (w *World) SetBackground(hex string, kind host.BackgroundKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.background = hex
	w.kind = kind
}

// GetParser implements host.ParserFactory.
func (w *World) GetParser(buf int, lang string) (host.Parser, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.buffers[buf]
	if !ok {
		return nil, fmt.Errorf("get parser for buffer %d: %w", buf, errBufferGone)
	}
	if lang == "" {
		lang = b.filetype
	}
	if !SupportedLanguage(lang) {
		return nil, fmt.Errorf("get parser for %q: %w", lang, errUnknownLanguage)
	}
	return &parser{world: w, buffer: b, lang: lang}, nil
}

// Compile implements host.QueryCompiler.
func (w *World) Compile(lang string) (host.Query, error) {
	if !SupportedLanguage(lang) {
		return nil, fmt.Errorf("compile identifier query for %q: %w", lang, errUnknownLanguage)
	}
	return identQuery{lang: lang}, nil
}

// AddSpan implements host.SpanStore.
func (w *World) AddSpan(buf int, r host.Range, style string, priority int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextSpanID++
	w.spans[buf] = append(w.spans[buf], &span{
		id:       w.nextSpanID,
		start:    host.Position{Row: r.StartRow, Col: r.StartCol},
		end:      host.Position{Row: r.EndRow, Col: r.EndCol},
		style:    style,
		priority: priority,
	})
	return w.nextSpanID
}

// DeleteSpansIn implements host.SpanStore: it removes every span whose
// starting position lies in the half-open range r.
func (w *World) DeleteSpansIn(buf int, r host.Range) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.spans[buf][:0]
	for _, s := range w.spans[buf] {
		if posInRange(s.start, r) {
			continue
		}
		kept = append(kept, s)
	}
	w.spans[buf] = kept
}

// ClearSpans implements host.SpanStore.
func (w *World) ClearSpans(buf int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.spans, buf)
}

// CountSpans implements host.SpanStore.
func (w *World) CountSpans(buf int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.spans[buf])
}

// SpanAt returns the style of the span covering (row, col), if any.
func (w *World) SpanAt(buf, row, col int) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := host.Position{Row: row, Col: col}
	for _, s := range w.spans[buf] {
		if lessEqPos(s.start, p) && lessPos(p, s.end) {
			return s.style, true
		}
	}
	return "", false
}

// SpanRanges returns the regions of every live span in the buffer.
func (w *World) SpanRanges(buf int) []host.Range {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]host.Range, 0, len(w.spans[buf]))
	for _, s := range w.spans[buf] {
		out = append(out, host.Range{
			StartRow: s.start.Row, StartCol: s.start.Col,
			EndRow: s.end.Row, EndCol: s.end.Col,
		})
	}
	return out
}

// EnsureStyle implements host.StyleRegistry.
func (w *World) EnsureStyle(name, fgHex string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.styles[name]; !ok {
		w.styles[name] = fgHex
	}
}

// Foreground implements host.StyleRegistry.
func (w *World) Foreground(name string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fg, ok := w.styles[name]
	return fg, ok
}

// IsLoaded implements host.BufferInfo.
func (w *World) IsLoaded(buf int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.buffers[buf]
	return ok && b.loaded
}

// FileSize implements host.BufferInfo.
func (w *World) FileSize(buf int) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.buffers[buf]
	if !ok {
		return 0, fmt.Errorf("file size of buffer %d: %w", buf, errBufferGone)
	}
	if b.fileSize < 0 {
		return 0, fmt.Errorf("file size of buffer %d: %w", buf, errNoBackingFile)
	}
	return b.fileSize, nil
}

// Filetype implements host.BufferInfo.
func (w *World) Filetype(buf int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b, ok := w.buffers[buf]; ok {
		return b.filetype
	}
	return ""
}

// NormalBackground implements host.Colorscheme.
func (w *World) NormalBackground() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.background, w.background != ""
}

// Kind implements host.Colorscheme.
func (w *World) Kind() host.BackgroundKind {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.kind
}

// adjustSpansLocked rewrites span positions after an edit replacing
// [start, oldEnd) with [start, newEnd). Spans fully inside the removed
// region are invalidated; spans behind it shift; a span straddling the
// boundary keeps its surviving edge (right-gravity ends extend on
// insertion at the end position).
func (w *World) adjustSpansLocked(buf int, start, oldEnd, newEnd host.Position) {
	kept := w.spans[buf][:0]
	for _, s := range w.spans[buf] {
		del := oldEnd != start
		if del && lessEqPos(start, s.start) && lessEqPos(s.end, oldEnd) {
			continue // bytes fully deleted: span invalidated
		}
		s.start = shiftPos(s.start, start, oldEnd, newEnd, false)
		s.end = shiftPos(s.end, start, oldEnd, newEnd, true)
		if !lessPos(s.start, s.end) {
			continue // collapsed to nothing
		}
		kept = append(kept, s)
	}
	w.spans[buf] = kept
}

// shiftPos maps one position through an edit. rightGravity makes the
// position move with an insertion landing exactly on it.
func shiftPos(p, start, oldEnd, newEnd host.Position, rightGravity bool) host.Position {
	before := lessPos(p, start)
	if !rightGravity && p == start {
		before = true
	}
	if before {
		return p
	}
	if lessPos(p, oldEnd) {
		// Inside the replaced region: clamp to its start.
		return start
	}
	// Behind the edit: shift by the size delta.
	out := p
	out.Row += newEnd.Row - oldEnd.Row
	if p.Row == oldEnd.Row {
		out.Col = newEnd.Col + (p.Col - oldEnd.Col)
	}
	return out
}

func posInRange(p host.Position, r host.Range) bool {
	start := host.Position{Row: r.StartRow, Col: r.StartCol}
	end := host.Position{Row: r.EndRow, Col: r.EndCol}
	return lessEqPos(start, p) && lessPos(p, end)
}

func lessPos(a, b host.Position) bool {
	return a.Row < b.Row || (a.Row == b.Row && a.Col < b.Col)
}

func lessEqPos(a, b host.Position) bool {
	return a == b || lessPos(a, b)
}

func splitLines(content string) []string {
	if content == "" {
		return []string{""}
	}
	lines := []string{}
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	lines = append(lines, content[start:])
	return lines
}
