package sqlfmt

import "strings"

// Statement describes one top-level statement of a SQL string.
type Statement struct {
	// Leading is the first word of the statement, upper-cased. Comments
	// and opening parentheses are skipped.
	Leading string
}

// Statements splits sql on top-level semicolons. Semicolons inside string
// literals, quoted identifiers and comments do not separate statements, and
// statements made only of comments are dropped.
func Statements(sql string) []Statement {
	var statements []Statement
	var current *Statement
	for _, tok := range tokenize(sql) {
		switch {
		case tok.kind == tokenLineComment || tok.kind == tokenBlockComment:
			continue
		case tok.kind == tokenPunct && tok.text == ";":
			current = nil
			continue
		}
		if current == nil {
			statements = append(statements, Statement{})
			current = &statements[len(statements)-1]
		}
		if current.Leading == "" && tok.text != "(" {
			current.Leading = strings.ToUpper(tok.text)
		}
	}
	return statements
}
