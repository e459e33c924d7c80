package sqlfmt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokenWord tokenKind = iota + 1
	tokenNumber
	tokenString
	tokenQuotedIdent
	tokenLineComment
	tokenBlockComment
	tokenPunct
	tokenOperator
)

type token struct {
	kind    tokenKind
	text    string
	keyword bool
}

// multiCharOperators is ordered longest first so that the first prefix match
// is the longest one.
var multiCharOperators = []string{
	"!~~*",
	"->>", "!~~", "~~*", "~~~", "<->", "<#>", "<=>", "!~*",
	"::", ":=", "=>", "<=", ">=", "<>", "!=", "==", "||", "->", "**", "//",
	"^@", "~~", "<<", ">>", "@>", "<@", "&&", "!~", "~*",
}

func tokenize(sql string) []token {
	tokens := make([]token, 0, len(sql)/3)
	i := 0
	for i < len(sql) {
		r, size := utf8.DecodeRuneInString(sql[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case strings.HasPrefix(sql[i:], "--"):
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql) - i
			}
			tokens = append(tokens, token{kind: tokenLineComment, text: strings.TrimRightFunc(sql[i:i+end], unicode.IsSpace)})
			i += end
		case strings.HasPrefix(sql[i:], "/*"):
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				tokens = append(tokens, token{kind: tokenBlockComment, text: sql[i:]})
				i = len(sql)
				continue
			}
			tokens = append(tokens, token{kind: tokenBlockComment, text: sql[i : i+2+end+2]})
			i += 2 + end + 2
		case r == '\'':
			end := scanQuoted(sql, i, '\'')
			tokens = append(tokens, token{kind: tokenString, text: sql[i:end]})
			i = end
		case r == '"':
			end := scanQuoted(sql, i, '"')
			tokens = append(tokens, token{kind: tokenQuotedIdent, text: sql[i:end]})
			i = end
		case r == '$' && dollarTag(sql[i:]) != "":
			end := scanDollarQuoted(sql, i)
			tokens = append(tokens, token{kind: tokenString, text: sql[i:end]})
			i = end
		case isDigit(r) || (r == '.' && i+1 < len(sql) && isDigit(rune(sql[i+1])) && !followsWord(sql, i)):
			end := scanNumber(sql, i)
			tokens = append(tokens, token{kind: tokenNumber, text: sql[i:end]})
			i = end
		case isWordRune(r):
			end := i
			for end < len(sql) {
				wr, wsize := utf8.DecodeRuneInString(sql[end:])
				if !isWordRune(wr) && !isDigit(wr) {
					break
				}
				end += wsize
			}
			// Prefixed literals such as E'..' or X'..' stay glued to their prefix.
			if end < len(sql) && sql[end] == '\'' {
				end = scanQuoted(sql, end, '\'')
				tokens = append(tokens, token{kind: tokenString, text: sql[i:end]})
				i = end
				continue
			}
			tokens = append(tokens, token{kind: tokenWord, text: sql[i:end]})
			i = end
		case strings.ContainsRune("(),;.", r):
			tokens = append(tokens, token{kind: tokenPunct, text: string(r)})
			i += size
		default:
			op := string(r)
			for _, candidate := range multiCharOperators {
				if strings.HasPrefix(sql[i:], candidate) {
					op = candidate
					break
				}
			}
			tokens = append(tokens, token{kind: tokenOperator, text: op})
			i += len(op)
		}
	}
	return tokens
}

// scanQuoted returns the index just past the closing quote, honouring doubled
// quotes as escapes. An unterminated literal runs to the end of the input.
func scanQuoted(sql string, start int, quote byte) int {
	i := start + 1
	for i < len(sql) {
		if sql[i] == quote {
			if i+1 < len(sql) && sql[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(sql)
}

// dollarTag returns the opening delimiter of a dollar-quoted literal at the
// start of s, such as "$$" or "$fn$", or "" when s does not start one.
func dollarTag(s string) string {
	if len(s) < 2 || s[0] != '$' {
		return ""
	}
	if s[1] == '$' {
		return "$$"
	}
	first, _ := utf8.DecodeRuneInString(s[1:])
	if first != '_' && !unicode.IsLetter(first) {
		return ""
	}
	for j := 1; j < len(s); {
		r, size := utf8.DecodeRuneInString(s[j:])
		if r == '$' {
			return s[:j+1]
		}
		if r != '_' && !unicode.IsLetter(r) && !isDigit(r) {
			return ""
		}
		j += size
	}
	return ""
}

// scanDollarQuoted returns the index just past the closing tag. The body is
// taken verbatim; an unterminated literal runs to the end of the input.
func scanDollarQuoted(sql string, start int) int {
	tag := dollarTag(sql[start:])
	body := start + len(tag)
	end := strings.Index(sql[body:], tag)
	if end < 0 {
		return len(sql)
	}
	return body + end + len(tag)
}

func scanNumber(sql string, start int) int {
	i := start
	for i < len(sql) && isDigit(rune(sql[i])) {
		i++
	}
	if i < len(sql) && sql[i] == '.' && i+1 < len(sql) && isDigit(rune(sql[i+1])) {
		i++
		for i < len(sql) && isDigit(rune(sql[i])) {
			i++
		}
	}
	if i < len(sql) && (sql[i] == 'e' || sql[i] == 'E') {
		j := i + 1
		if j < len(sql) && (sql[j] == '+' || sql[j] == '-') {
			j++
		}
		if j < len(sql) && isDigit(rune(sql[j])) {
			for j < len(sql) && isDigit(rune(sql[j])) {
				j++
			}
			i = j
		}
	}
	return i
}

func followsWord(sql string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(sql[:i])
	return isWordRune(r) || isDigit(r) || r == '"' || r == ')'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isWordRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}
