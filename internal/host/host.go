// Package host defines the capability bundle the highlight engine is
// written against: parser acquisition, identifier queries, the span
// store, the style registry, buffer metadata, the colorscheme, and
// one-shot timers. The textbuf package implements it; the engine tests
// and the bundled viewer run against that implementation.
package host

import "time"

// Position is a 0-based (row, column) pair.
type Position struct {
	Row int
	Col int
}

// Range is a half-open buffer region: Start inclusive, End exclusive.
type Range struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// BackgroundKind distinguishes dark from light editor backgrounds.
type BackgroundKind string

const (
	BackgroundDark  BackgroundKind = "dark"
	BackgroundLight BackgroundKind = "light"
)

// Node is one identifier occurrence in a parsed tree.
type Node interface {
	// Range returns the node's buffer region.
	Range() Range

	// Text returns the node's source text in the given buffer.
	Text(buf int) string
}

// Tree is one parse result. The engine only descends from its root.
type Tree interface {
	Root() Node
}

// Callbacks are the notifications a parser delivers to its subscriber.
type Callbacks struct {
	// OnBytes fires on a raw byte change, before re-parsing.
	// oldEndRow/newEndRow are row deltas from startRow;
	// oldEndCol/newEndCol are absolute columns in the end row.
	OnBytes func(buf, tick, startRow, startCol, startByte, oldEndRow, oldEndCol, oldEndBytes, newEndRow, newEndCol, newEndBytes int)

	// OnChangedTree fires after ranges of the tree were re-parsed;
	// the tree passed is already authoritative.
	OnChangedTree func(ranges []Range, tree Tree)

	// OnDetach fires when the parser detaches from the buffer.
	OnDetach func(buf int)
}

// Parser is a live syntax-tree view of one buffer.
type Parser interface {
	// Parse re-parses the buffer and returns at least one tree; the
	// first is the one the engine consumes.
	Parse() ([]Tree, error)

	// Language returns the parser's language name.
	Language() string

	// RegisterCallbacks subscribes to change notifications.
	// includeText asks the host to retain node text for Text calls.
	RegisterCallbacks(cbs Callbacks, includeText bool)
}

// ParserFactory acquires parsers for buffers.
type ParserFactory interface {
	GetParser(buf int, lang string) (Parser, error)
}

// Query is a compiled identifier query for one language.
type Query interface {
	// Captures returns identifier nodes under root whose start row
	// lies in [startRow, endRow). Negative bounds mean unbounded.
	Captures(root Node, buf int, startRow, endRow int) ([]Node, error)
}

// QueryCompiler compiles the identifier query per language.
type QueryCompiler interface {
	Compile(lang string) (Query, error)
}

// SpanStore owns the colored spans of each buffer. Spans carry
// right-gravity edges and are invalidated when their underlying bytes
// are deleted; the engine never inspects span ids.
type SpanStore interface {
	// AddSpan creates a span over r with the named foreground style.
	AddSpan(buf int, r Range, style string, priority int) int

	// DeleteSpansIn removes every span whose starting position lies
	// in the half-open range r.
	DeleteSpansIn(buf int, r Range)

	// ClearSpans removes all spans from the buffer.
	ClearSpans(buf int)

	// CountSpans returns the number of live spans in the buffer.
	CountSpans(buf int) int
}

// StyleRegistry names foreground styles by RGB.
type StyleRegistry interface {
	// EnsureStyle registers name with the given foreground if it is
	// not registered yet.
	EnsureStyle(name string, fgHex string)

	// Foreground returns the registered foreground for name.
	Foreground(name string) (string, bool)
}

// BufferInfo exposes buffer metadata.
type BufferInfo interface {
	IsLoaded(buf int) bool

	// FileSize returns the size in bytes of the buffer's backing
	// file, or an error when the buffer has none.
	FileSize(buf int) (int64, error)

	Filetype(buf int) string
}

// Colorscheme exposes the editor background.
type Colorscheme interface {
	// NormalBackground returns the background color of the normal
	// style, or ok=false when it is unset.
	NormalBackground() (hex string, ok bool)

	Kind() BackgroundKind
}

// TimerHandle cancels a scheduled callback.
type TimerHandle interface {
	Stop()
}

// Timers schedules one-shot callbacks.
type Timers interface {
	AfterFunc(d time.Duration, fn func()) TimerHandle
}

// Host bundles every capability the engine depends on.
type Host struct {
	Parsers ParserFactory
	Queries QueryCompiler
	Spans   SpanStore
	Styles  StyleRegistry
	Buffers BufferInfo
	Colors  Colorscheme
	Timers  Timers
}
