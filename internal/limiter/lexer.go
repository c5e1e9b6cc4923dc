// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package limiter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokSpace tokenKind = iota
	tokLineComment
	tokBlockComment
	tokWord
	tokNumber
	tokQuoted
	tokPunct
)

// token is a lexical unit of a statement. Concatenating the text of all
// tokens reproduces the input exactly.
type token struct {
	kind  tokenKind
	text  string
	pos   int
	depth int
}

func (t token) significant() bool {
	return t.kind != tokSpace && t.kind != tokLineComment && t.kind != tokBlockComment
}

func (t token) isWord(w string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, w)
}

func (t token) isPunct(p byte) bool {
	return t.kind == tokPunct && len(t.text) == 1 && t.text[0] == p
}

// lex splits sql into tokens, tracking parenthesis depth. Unterminated
// quotes and block comments run to the end of the input.
func lex(sql string) []token {
	var toks []token
	depth := 0
	i := 0
	for i < len(sql) {
		start := i
		r, size := utf8.DecodeRuneInString(sql[i:])
		kind := tokPunct
		switch {
		case unicode.IsSpace(r):
			kind = tokSpace
			for i < len(sql) {
				r, size = utf8.DecodeRuneInString(sql[i:])
				if !unicode.IsSpace(r) {
					break
				}
				i += size
			}
		case strings.HasPrefix(sql[i:], "--"):
			kind = tokLineComment
			if nl := strings.IndexByte(sql[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(sql)
			}
		case strings.HasPrefix(sql[i:], "/*"):
			kind = tokBlockComment
			if end := strings.Index(sql[i+2:], "*/"); end >= 0 {
				i += 2 + end + 2
			} else {
				i = len(sql)
			}
		case r == '\'' || r == '"' || r == '`':
			kind = tokQuoted
			i = scanQuoted(sql, i)
		case r >= '0' && r <= '9':
			kind = tokNumber
			for i < len(sql) && (isDigit(sql[i]) || sql[i] == '.') {
				i++
			}
		case r == '_' || unicode.IsLetter(r):
			kind = tokWord
			for i < len(sql) {
				r, size = utf8.DecodeRuneInString(sql[i:])
				if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
		default:
			i += size
		}

		tok := token{kind: kind, text: sql[start:i], pos: start, depth: depth}
		if tok.isPunct(')') && depth > 0 {
			depth--
			tok.depth = depth
		}
		if tok.isPunct('(') {
			depth++
		}
		toks = append(toks, tok)
	}
	return toks
}

// scanQuoted returns the offset just past the quoted run starting at i.
// A doubled quote or a backslash escapes the next character.
func scanQuoted(sql string, i int) int {
	q := sql[i]
	i++
	for i < len(sql) {
		switch sql[i] {
		case '\\':
			i += 2
			continue
		case q:
			if i+1 < len(sql) && sql[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(sql)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// nextSignificant returns the index of the first significant token after i, or -1.
func nextSignificant(toks []token, i int) int {
	for j := i + 1; j < len(toks); j++ {
		if toks[j].significant() {
			return j
		}
	}
	return -1
}

// lastSignificant returns the index of the last significant token, or -1.
func lastSignificant(toks []token) int {
	for j := len(toks) - 1; j >= 0; j-- {
		if toks[j].significant() {
			return j
		}
	}
	return -1
}
