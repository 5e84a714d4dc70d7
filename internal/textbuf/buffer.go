package textbuf

import (
	"errors"
	"strings"

	"github.com/hantianjz/semhl/internal/host"
)

var (
	errNotATree        = errors.New("textbuf: query root is not a scanned tree")
	errUnknownLanguage = errors.New("textbuf: unsupported language")
	errBufferGone      = errors.New("textbuf: no such buffer")
	errNoBackingFile   = errors.New("textbuf: buffer has no backing file")
)

// Buffer is one in-memory text buffer. All mutation goes through the
// owning World so span positions stay consistent with the text.
type Buffer struct {
	id       int
	world    *World
	lines    []string
	filetype string
	fileSize int64
	loaded   bool
	tick     int
	cbs      []host.Callbacks
}

// ID returns the buffer id.
func (b *Buffer) ID() int { return b.id }

// Lines returns a copy of the buffer contents.
func (b *Buffer) Lines() []string {
	b.world.mu.Lock()
	defer b.world.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.world.mu.Lock()
	defer b.world.mu.Unlock()
	return len(b.lines)
}

// Line returns one line, or "" when row is out of range.
func (b *Buffer) Line(row int) string {
	b.world.mu.Lock()
	defer b.world.mu.Unlock()
	if row < 0 || row >= len(b.lines) {
		return ""
	}
	return b.lines[row]
}

// InsertText inserts text (possibly multi-line) at (row, col) and
// notifies byte-change subscribers. Positions are clamped to the
// buffer.
func (b *Buffer) InsertText(row, col int, text string) {
	b.world.mu.Lock()
	row, col = b.clampPosLocked(row, col)
	segments := strings.Split(text, "\n")

	line := b.lines[row]
	head, tail := line[:col], line[col:]

	var newEndRow, newEndCol int
	if len(segments) == 1 {
		b.lines[row] = head + segments[0] + tail
		newEndRow, newEndCol = row, col+len(segments[0])
	} else {
		replacement := make([]string, len(segments))
		replacement[0] = head + segments[0]
		copy(replacement[1:], segments[1:])
		last := len(segments) - 1
		newEndCol = len(replacement[last])
		replacement[last] += tail
		b.lines = append(b.lines[:row], append(replacement, b.lines[row+1:]...)...)
		newEndRow = row + last
	}

	start := host.Position{Row: row, Col: col}
	newEnd := host.Position{Row: newEndRow, Col: newEndCol}
	b.world.adjustSpansLocked(b.id, start, start, newEnd)
	b.tick++
	notify := b.notifyBytesLocked(start, start, newEnd, 0, len(text))
	b.world.mu.Unlock()
	notify()
}

// DeleteRange removes the half-open region r and notifies byte-change
// subscribers.
func (b *Buffer) DeleteRange(r host.Range) {
	b.world.mu.Lock()
	sr, sc := b.clampPosLocked(r.StartRow, r.StartCol)
	er, ec := b.clampPosLocked(r.EndRow, r.EndCol)
	if er < sr || (er == sr && ec < sc) {
		sr, sc, er, ec = er, ec, sr, sc
	}

	removed := b.regionLenLocked(sr, sc, er, ec)
	b.lines[sr] = b.lines[sr][:sc] + b.lines[er][ec:]
	if er > sr {
		b.lines = append(b.lines[:sr+1], b.lines[er+1:]...)
	}

	start := host.Position{Row: sr, Col: sc}
	oldEnd := host.Position{Row: er, Col: ec}
	b.world.adjustSpansLocked(b.id, start, oldEnd, start)
	b.tick++
	notify := b.notifyBytesLocked(start, oldEnd, start, removed, 0)
	b.world.mu.Unlock()
	notify()
}

// SetLines replaces the whole buffer without emitting edit
// notifications; used for initial content.
func (b *Buffer) SetLines(lines []string) {
	b.world.mu.Lock()
	defer b.world.mu.Unlock()
	b.lines = append([]string(nil), lines...)
	if len(b.lines) == 0 {
		b.lines = []string{""}
	}
}

// EmitTreeChange delivers a tree-change notification carrying a fresh
// scan of the buffer, as the external parser would after an
// incremental re-parse of the given ranges.
func (b *Buffer) EmitTreeChange(ranges []host.Range) {
	b.world.mu.Lock()
	lang, ok := languages[b.filetype]
	if !ok {
		b.world.mu.Unlock()
		return
	}
	tree := scan(lang, b.lines)
	cbs := append([]host.Callbacks(nil), b.cbs...)
	b.world.mu.Unlock()

	for _, cb := range cbs {
		if cb.OnChangedTree != nil {
			cb.OnChangedTree(ranges, tree)
		}
	}
}

// notifyBytesLocked prepares the byte-change fan-out; the returned
// closure must be called after the world lock is released so handlers
// can re-enter the buffer.
func (b *Buffer) notifyBytesLocked(start, oldEnd, newEnd host.Position, oldLen, newLen int) func() {
	tick := b.tick
	cbs := append([]host.Callbacks(nil), b.cbs...)
	startByte := b.byteOffsetLocked(start)
	id := b.id
	return func() {
		for _, cb := range cbs {
			if cb.OnBytes != nil {
				cb.OnBytes(id, tick,
					start.Row, start.Col, startByte,
					oldEnd.Row-start.Row, oldEnd.Col, oldLen,
					newEnd.Row-start.Row, newEnd.Col, newLen)
			}
		}
	}
}

func (b *Buffer) clampPosLocked(row, col int) (int, int) {
	if row < 0 {
		row = 0
	}
	if row >= len(b.lines) {
		row = len(b.lines) - 1
	}
	if col < 0 {
		col = 0
	}
	if col > len(b.lines[row]) {
		col = len(b.lines[row])
	}
	return row, col
}

func (b *Buffer) regionLenLocked(sr, sc, er, ec int) int {
	if sr == er {
		return ec - sc
	}
	n := len(b.lines[sr]) - sc + 1 // +1 for the newline
	for row := sr + 1; row < er; row++ {
		n += len(b.lines[row]) + 1
	}
	return n + ec
}

func (b *Buffer) byteOffsetLocked(p host.Position) int {
	n := 0
	for row := 0; row < p.Row && row < len(b.lines); row++ {
		n += len(b.lines[row]) + 1
	}
	return n + p.Col
}
