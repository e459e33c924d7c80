// Package outcome extracts a structured synthesis outcome from raw model text.
package outcome

import "fmt"

type Kind int

const (
	KindQuery Kind = iota + 1
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is either a formatted SQL query or a failure explanation written
// by the model. The zero value is not a valid outcome.
type Outcome struct {
	kind Kind
	text string
}

func Query(sql string) Outcome {
	return Outcome{kind: KindQuery, text: sql}
}

func Failure(message string) Outcome {
	return Outcome{kind: KindFailure, text: message}
}

func (o Outcome) Kind() Kind {
	return o.kind
}

func (o Outcome) IsQuery() bool {
	return o.kind == KindQuery
}

// SQL returns the formatted statement, or "" for a failure outcome.
func (o Outcome) SQL() string {
	if o.kind != KindQuery {
		return ""
	}
	return o.text
}

// Message returns the model's explanation, or "" for a query outcome.
func (o Outcome) Message() string {
	if o.kind != KindFailure {
		return ""
	}
	return o.text
}

func (o Outcome) String() string {
	return fmt.Sprintf("%s(%q)", o.kind, o.text)
}
