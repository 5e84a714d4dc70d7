package textbuf

import (
	"fmt"

	"github.com/hantianjz/semhl/internal/host"
)

// parser is a live identifier-scanner view of one buffer, playing the
// external syntax-tree collaborator's role.
type parser struct {
	world  *World
	buffer *Buffer
	lang   string
}

// Parse implements host.Parser by re-scanning the whole buffer.
func (p *parser) Parse() ([]host.Tree, error) {
	p.world.mu.Lock()
	defer p.world.mu.Unlock()
	if !p.buffer.loaded {
		return nil, fmt.Errorf("parse buffer %d: %w", p.buffer.id, errBufferGone)
	}
	lang, ok := languages[p.lang]
	if !ok {
		return nil, fmt.Errorf("parse buffer %d: %w", p.buffer.id, errUnknownLanguage)
	}
	return []host.Tree{scan(lang, p.buffer.lines)}, nil
}

// Language implements host.Parser.
func (p *parser) Language() string {
	return p.lang
}

// RegisterCallbacks implements host.Parser. Node text is always
// retained by the scanner, so includeText is accepted and ignored.
func (p *parser) RegisterCallbacks(cbs host.Callbacks, _ bool) {
	p.world.mu.Lock()
	defer p.world.mu.Unlock()
	p.buffer.cbs = append(p.buffer.cbs, cbs)
}
