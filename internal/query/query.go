package query

import (
	"context"
	"time"

	"github.com/duckmesh/nlquery/internal/sqlfmt"
)

type Request struct {
	SQL string
}

// Result is a tabular query result. Rows keep the order the engine produced.
type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// ExecutionError is returned when the engine rejects a statement: unknown
// table or column, syntax error, type mismatch. Other failures, such as a
// missing dataset, are returned as plain errors.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return "execute query: " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Diagnostic is the engine's own message.
func (e *ExecutionError) Diagnostic() string {
	return e.Err.Error()
}

// IsReadOnly reports whether sqlText is a single statement that starts with
// SELECT or WITH. Trailing semicolons and comments are allowed.
func IsReadOnly(sqlText string) bool {
	statements := sqlfmt.Statements(sqlText)
	if len(statements) != 1 {
		return false
	}
	switch statements[0].Leading {
	case "SELECT", "WITH":
		return true
	}
	return false
}
