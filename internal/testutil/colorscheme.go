package testutil

import (
	"sync"

	"github.com/hantianjz/semhl/internal/host"
)

// Colorscheme is a settable host.Colorscheme.
type Colorscheme struct {
	mu         sync.Mutex
	background string
	kind       host.BackgroundKind
}

// NewColorscheme creates a colorscheme with the given background hex
// (empty means unset) and kind.
func NewColorscheme(background string, kind host.BackgroundKind) *Colorscheme {
	return &Colorscheme{background: background, kind: kind}
}

func (c *Colorscheme) NormalBackground() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background, c.background != ""
}

func (c *Colorscheme) Kind() host.BackgroundKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind
}

// Set replaces the background color and kind.
func (c *Colorscheme) Set(background string, kind host.BackgroundKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.background = background
	c.kind = kind
}
