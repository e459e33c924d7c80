// Package sqlfmt pretty-prints SQL statements.
//
// Output is a function of the token sequence only: whitespace in the input is
// discarded and re-emitted by fixed rules, so formatting is idempotent and
// never touches string literals, quoted identifiers or comments.
package sqlfmt

import "strings"

type Options struct {
	// Reindent starts every top-level clause on its own line.
	Reindent bool
}

// Format returns the canonical single-line form with upper-cased keywords.
func Format(sql string) string {
	return FormatWith(sql, Options{})
}

func FormatWith(sql string, opts Options) string {
	tokens := tokenize(sql)
	if len(tokens) == 0 {
		return ""
	}

	var b strings.Builder
	depth := 0
	var prev *token
	for i := range tokens {
		tok := &tokens[i]
		if tok.kind == tokenWord && isKeyword(tok.text) {
			tok.text = strings.ToUpper(tok.text)
			tok.keyword = true
		}

		if prev != nil {
			switch {
			case prev.kind == tokenLineComment:
				b.WriteByte('\n')
			case opts.Reindent && depth == 0 && startsClause(prev, tokens[i:]):
				b.WriteByte('\n')
			case needsSpace(prev, tok):
				b.WriteByte(' ')
			}
		}
		b.WriteString(tok.text)

		switch tok.text {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		}
		prev = tok
	}
	return b.String()
}

func needsSpace(prev, next *token) bool {
	switch next.text {
	case ",", ")", "]", ";", ".", "::":
		return false
	case "[":
		if prev.kind == tokenWord && !prev.keyword || prev.kind == tokenQuotedIdent || prev.text == ")" || prev.text == "]" {
			return false
		}
	case "(":
		if prev.kind == tokenWord && !prev.keyword {
			return false
		}
		if prev.kind == tokenQuotedIdent {
			return false
		}
	}
	switch prev.text {
	case "(", "[", ".", "::":
		return false
	}
	return true
}

var joinModifiers = map[string]struct{}{
	"LEFT": {}, "RIGHT": {}, "INNER": {}, "OUTER": {}, "FULL": {},
	"CROSS": {}, "NATURAL": {}, "ANTI": {}, "SEMI": {}, "POSITIONAL": {}, "ASOF": {},
}

var clauseStarters = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "GROUP": {}, "HAVING": {}, "ORDER": {},
	"LIMIT": {}, "OFFSET": {}, "UNION": {}, "INTERSECT": {}, "EXCEPT": {},
	"QUALIFY": {}, "WINDOW": {}, "JOIN": {},
}

func startsClause(prev *token, rest []token) bool {
	next := &rest[0]
	if !next.keyword {
		return false
	}
	if _, ok := joinModifiers[next.text]; ok {
		if _, prevIsModifier := joinModifiers[prev.text]; prevIsModifier {
			return false
		}
		return leadsToJoin(rest)
	}
	if _, ok := clauseStarters[next.text]; !ok {
		return false
	}
	switch next.text {
	case "JOIN":
		_, prevIsModifier := joinModifiers[prev.text]
		return !prevIsModifier
	case "SELECT":
		switch prev.text {
		case "UNION", "ALL", "INTERSECT", "EXCEPT", "DISTINCT":
			return false
		}
	case "GROUP":
		if prev.text == "WITHIN" {
			return false
		}
	}
	return true
}

// leadsToJoin reports whether a run of join modifiers ends in JOIN, which
// separates LEFT JOIN from the left() string function.
func leadsToJoin(rest []token) bool {
	for _, tok := range rest {
		upper := strings.ToUpper(tok.text)
		if upper == "JOIN" {
			return true
		}
		if _, ok := joinModifiers[upper]; !ok || tok.kind != tokenWord {
			return false
		}
	}
	return false
}
