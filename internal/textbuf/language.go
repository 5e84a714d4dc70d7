// Package textbuf is an in-process implementation of the host
// capability bundle: line-based text buffers, a lexical identifier
// scanner standing in for the external syntax-tree collaborator, a
// span store with right-gravity edge semantics, a style registry, and
// a settable colorscheme. The bundled viewer and the engine tests run
// against it.
package textbuf

import "strings"

// language describes how identifiers are extracted for one filetype.
type language struct {
	name        string
	lineComment string
	quotes      string
	keywords    map[string]struct{}
}

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var languages = map[string]language{
	"go": {
		name:        "go",
		lineComment: "//",
		quotes:      "\"'`",
		keywords: keywordSet(
			"break", "case", "chan", "const", "continue", "default",
			"defer", "else", "fallthrough", "for", "func", "go", "goto",
			"if", "import", "interface", "map", "package", "range",
			"return", "select", "struct", "switch", "type", "var",
			"true", "false", "nil", "iota",
		),
	},
	"lua": {
		name:        "lua",
		lineComment: "--",
		quotes:      "\"'",
		keywords: keywordSet(
			"and", "break", "do", "else", "elseif", "end", "false",
			"for", "function", "goto", "if", "in", "local", "nil",
			"not", "or", "repeat", "return", "then", "true", "until",
			"while",
		),
	},
	"python": {
		name:        "python",
		lineComment: "#",
		quotes:      "\"'",
		keywords: keywordSet(
			"and", "as", "assert", "async", "await", "break", "class",
			"continue", "def", "del", "elif", "else", "except",
			"finally", "for", "from", "global", "if", "import", "in",
			"is", "lambda", "nonlocal", "not", "or", "pass", "raise",
			"return", "try", "while", "with", "yield", "True", "False",
			"None",
		),
	},
}

// SupportedLanguage reports whether lang has a registered identifier
// grammar.
func SupportedLanguage(lang string) bool {
	_, ok := languages[lang]
	return ok
}

// FiletypeForPath maps a file name to a supported language, or "".
func FiletypeForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".go"):
		return "go"
	case strings.HasSuffix(path, ".lua"):
		return "lua"
	case strings.HasSuffix(path, ".py"):
		return "python"
	}
	return ""
}
