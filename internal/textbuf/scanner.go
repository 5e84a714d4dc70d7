package textbuf

import (
	"strings"

	"github.com/hantianjz/semhl/internal/host"
)

// identNode is one identifier occurrence.
type identNode struct {
	r    host.Range
	text string
}

func (n identNode) Range() host.Range { return n.r }

func (n identNode) Text(_ int) string { return n.text }

// rootNode is the root of a scanned tree; it carries the identifier
// list the query walks.
type rootNode struct {
	r     host.Range
	nodes []host.Node
}

func (n *rootNode) Range() host.Range { return n.r }

func (n *rootNode) Text(_ int) string { return "" }

type identTree struct {
	root *rootNode
}

func (t identTree) Root() host.Node { return t.root }

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// scanLine extracts identifier tokens from one line, skipping string
// literals and anything after the line-comment marker. Block comments
// are not tracked; this is a lexical approximation, not a grammar.
func scanLine(lang language, row int, line string) []host.Node {
	var nodes []host.Node
	i := 0
	for i < len(line) {
		b := line[i]

		if lang.lineComment != "" && b == lang.lineComment[0] &&
			len(line)-i >= len(lang.lineComment) && line[i:i+len(lang.lineComment)] == lang.lineComment {
			break
		}

		if strings.IndexByte(lang.quotes, b) >= 0 {
			i = skipString(line, i, b)
			continue
		}

		if isIdentStart(b) {
			start := i
			for i < len(line) && isIdentByte(line[i]) {
				i++
			}
			word := line[start:i]
			if _, kw := lang.keywords[word]; !kw {
				nodes = append(nodes, identNode{
					r:    host.Range{StartRow: row, StartCol: start, EndRow: row, EndCol: i},
					text: word,
				})
			}
			continue
		}

		// Numbers swallow trailing letters so 0x1F does not yield
		// an identifier.
		if b >= '0' && b <= '9' {
			for i < len(line) && isIdentByte(line[i]) {
				i++
			}
			continue
		}

		i++
	}
	return nodes
}

// skipString advances past a quoted literal, honoring backslash
// escapes. An unterminated literal runs to end of line.
func skipString(line string, start int, quote byte) int {
	i := start + 1
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		default:
			i++
		}
	}
	return i
}

// scan builds an identifier tree over the given lines.
func scan(lang language, lines []string) identTree {
	var nodes []host.Node
	for row, line := range lines {
		nodes = append(nodes, scanLine(lang, row, line)...)
	}
	endRow := len(lines)
	return identTree{root: &rootNode{
		r:     host.Range{StartRow: 0, StartCol: 0, EndRow: endRow, EndCol: 0},
		nodes: nodes,
	}}
}

// identQuery implements host.Query over scanned trees.
type identQuery struct {
	lang string
}

// Captures returns identifiers whose start row lies in
// [startRow, endRow); negative bounds mean unbounded.
func (q identQuery) Captures(root host.Node, _ int, startRow, endRow int) ([]host.Node, error) {
	r, ok := root.(*rootNode)
	if !ok {
		return nil, errNotATree
	}
	var out []host.Node
	for _, n := range r.nodes {
		row := n.Range().StartRow
		if startRow >= 0 && row < startRow {
			continue
		}
		if endRow >= 0 && row >= endRow {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
