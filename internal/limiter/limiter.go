// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package limiter bounds the row count of ad-hoc SELECT statements before they
// reach a database.
//
// Apply rewrites a single statement so that its outermost LIMIT clause sits at
// the end of the statement and never exceeds a configured maximum. Statements
// that are not SELECTs pass through untouched. Limits inside subqueries, string
// literals and comments are left alone.
//
//	select * from t limit 20000 order by a   ->  select * from t  order by a LIMIT 10000
//	select * from t                          ->  select * from t LIMIT 200
package limiter

import (
	"math"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"sqlexplorer/cli/internal/errors"
)

// Statement is the outcome of limiting a statement.
type Statement struct {
	SQL string
	// Limited is false when the statement was not a SELECT and passed through.
	Limited bool
	// Limit is the effective row bound when Limited is true.
	Limit int
}

// Apply returns sql with its row bound normalized. See Limit for details.
func Apply(sql string, defaultLimit, maxLimit int) (string, error) {
	st, err := Limit(sql, defaultLimit, maxLimit)
	if err != nil {
		return "", err
	}
	return st.SQL, nil
}

// Single fails with a MultiStatement error when sql holds more than one
// statement. It applies to dialects whose statements are not rewritten.
func Single(sql string) error {
	_, _, err := splitTerminator(sql, lex(sql))
	return err
}

// Limit rewrites sql so that a SELECT carries exactly one trailing
// "LIMIT n" with n = min(existing, maxLimit), or defaultLimit when the
// statement had none. Input holding more than one statement fails with a
// MultiStatement error; a LIMIT not followed by an integer fails with a
// MalformedLimit error. A single trailing semicolon is kept after the
// appended clause.
func Limit(sql string, defaultLimit, maxLimit int) (Statement, error) {
	toks := lex(sql)

	body, tail, err := splitTerminator(sql, toks)
	if err != nil {
		return Statement{}, err
	}
	bodyToks := toks
	if tail != "" {
		bodyToks = lex(body)
	}
	if lastSignificant(bodyToks) < 0 || !isSelect(body, bodyToks) {
		return Statement{SQL: sql}, nil
	}

	at := -1
	for i, t := range bodyToks {
		if t.depth == 0 && t.isWord("limit") {
			at = i
		}
	}
	if at < 0 {
		return Statement{SQL: appendClause(body, bodyToks, limitClause{count: defaultLimit}) + tail, Limited: true, Limit: defaultLimit}, nil
	}

	clause, end, err := parseClause(bodyToks, at)
	if err != nil {
		return Statement{}, err
	}
	if clause.count > maxLimit {
		clause.count = maxLimit
	}

	start := bodyToks[at].pos
	stop := bodyToks[end].pos + len(bodyToks[end].text)
	if isNormalized(body, start, stop, clause) {
		return Statement{SQL: sql, Limited: true, Limit: clause.count}, nil
	}

	rest := body[:start] + body[stop:]
	return Statement{SQL: appendClause(rest, lex(rest), clause) + tail, Limited: true, Limit: clause.count}, nil
}

type limitClause struct {
	count int
	// offset is rendered in the same syntax the user wrote it in.
	offset      string
	commaOffset bool
}

func (c limitClause) String() string {
	switch {
	case c.offset != "" && c.commaOffset:
		return "LIMIT " + c.offset + ", " + strconv.Itoa(c.count)
	case c.offset != "":
		return "LIMIT " + strconv.Itoa(c.count) + " OFFSET " + c.offset
	default:
		return "LIMIT " + strconv.Itoa(c.count)
	}
}

// parseClause reads the LIMIT clause starting at toks[at] and returns it
// along with the index of its last token. Recognized forms are
// "LIMIT n", "LIMIT o, n" and "LIMIT n OFFSET o".
func parseClause(toks []token, at int) (limitClause, int, error) {
	n := nextSignificant(toks, at)
	count, ok := integerAt(toks, n)
	if !ok {
		return limitClause{}, 0, errors.Newf(errors.MalformedLimit, "LIMIT must be followed by an integer, got %s", describe(toks, n))
	}

	clause := limitClause{count: count}
	end := n
	if k := nextSignificant(toks, n); k >= 0 {
		switch {
		case toks[k].isPunct(','):
			m := nextSignificant(toks, k)
			second, ok := integerAt(toks, m)
			if !ok {
				return limitClause{}, 0, errors.Newf(errors.MalformedLimit, "LIMIT offset must be followed by an integer row count, got %s", describe(toks, m))
			}
			clause = limitClause{count: second, offset: toks[n].text, commaOffset: true}
			end = m
		case toks[k].isWord("offset"):
			m := nextSignificant(toks, k)
			if _, ok := integerAt(toks, m); !ok {
				return limitClause{}, 0, errors.Newf(errors.MalformedLimit, "OFFSET must be followed by an integer, got %s", describe(toks, m))
			}
			clause.offset = toks[m].text
			end = m
		}
	}
	return clause, end, nil
}

// integerAt reads a non-negative integer token. Integers too large for int
// are returned as math.MaxInt so they are capped like any other large bound.
func integerAt(toks []token, i int) (int, bool) {
	if i < 0 || toks[i].kind != tokNumber {
		return 0, false
	}
	v, err := strconv.Atoi(toks[i].text)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange && allDigits(toks[i].text) {
			return math.MaxInt, true
		}
		return 0, false
	}
	return v, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func describe(toks []token, i int) string {
	if i < 0 {
		return "end of statement"
	}
	return strconv.Quote(toks[i].text)
}

// isNormalized reports whether body[start:stop] is already the clause Limit
// would append, in trailing position.
func isNormalized(body string, start, stop int, clause limitClause) bool {
	if start == 0 || body[start-1] != ' ' {
		return false
	}
	return body[start:stop] == clause.String() && strings.TrimSpace(body[stop:]) == ""
}

func appendClause(body string, toks []token, clause limitClause) string {
	// a line comment would swallow anything appended on its line
	if hasTrailingLineComment(toks) {
		return body + "\n " + clause.String()
	}
	return body + " " + clause.String()
}

func hasTrailingLineComment(toks []token) bool {
	for j := len(toks) - 1; j >= 0; j-- {
		switch toks[j].kind {
		case tokSpace:
			if strings.Contains(toks[j].text, "\n") {
				return false
			}
		case tokLineComment:
			return true
		default:
			return false
		}
	}
	return false
}

// splitTerminator separates a trailing semicolon (and whatever whitespace or
// comments follow it) from the statement body.
func splitTerminator(sql string, toks []token) (body, tail string, err error) {
	for i, t := range toks {
		if !t.isPunct(';') {
			continue
		}
		if next := nextSignificant(toks, i); next >= 0 {
			return "", "", errors.New(errors.MultiStatement, "only one SQL statement can be executed at a time")
		}
		return sql[:t.pos], sql[t.pos:], nil
	}
	return sql, "", nil
}

// isSelect classifies the statement. sqlparser.Preview handles leading
// comments and parentheses; WITH queries are SELECTs unless a data
// modifying keyword follows at the top level.
func isSelect(body string, toks []token) bool {
	if sqlparser.Preview(body) == sqlparser.StmtSelect {
		return true
	}
	first := nextSignificant(toks, -1)
	if first < 0 || !toks[first].isWord("with") {
		return false
	}
	for _, t := range toks[first+1:] {
		if t.depth != 0 {
			continue
		}
		for _, kw := range []string{"insert", "update", "delete", "merge"} {
			if t.isWord(kw) {
				return false
			}
		}
	}
	return true
}
