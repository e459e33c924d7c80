package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/duckmesh/nlquery/internal/dataset"
	"github.com/duckmesh/nlquery/internal/query"
	"github.com/duckmesh/nlquery/internal/sqlfmt"
)

// Engine runs each query in a fresh in-memory DuckDB instance with one view
// per dataset table. Relative file references in the query resolve against
// the dataset root through the instance's file_search_path. Before the query
// runs, file access is limited to the dataset root and the configuration is
// locked.
type Engine struct {
	Source dataset.Source

	open func() (*sql.DB, error)
}

func NewEngine(source dataset.Source) *Engine {
	return &Engine{Source: source}
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	sqlText := stripTrailingSemicolons(request.SQL)
	if sqlText == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}
	if e.Source == nil {
		return query.Result{}, fmt.Errorf("dataset source is required")
	}
	if len(sqlfmt.Statements(sqlText)) > 1 {
		return query.Result{}, &query.ExecutionError{SQL: sqlText, Err: errMultipleStatements}
	}

	start := time.Now()
	workDir, err := os.MkdirTemp("", "nlquery-query-")
	if err != nil {
		return query.Result{}, fmt.Errorf("create query temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	layout, err := e.Source.Materialize(ctx, workDir)
	if err != nil {
		return query.Result{}, fmt.Errorf("load dataset: %w", err)
	}

	db, err := e.openDB()
	if err != nil {
		return query.Result{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	conn, err := db.Conn(ctx)
	if err != nil {
		return query.Result{}, fmt.Errorf("acquire duckdb connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "SET file_search_path = "+quoteString(layout.Root)); err != nil {
		return query.Result{}, fmt.Errorf("set dataset root: %w", err)
	}
	for _, table := range layout.Tables {
		viewSQL, err := viewStatement(table)
		if err != nil {
			return query.Result{}, err
		}
		if _, err := conn.ExecContext(ctx, viewSQL); err != nil {
			return query.Result{}, fmt.Errorf("create view for table %q: %w", table.Name, err)
		}
	}
	for _, statement := range sandboxStatements(layout.Root) {
		if _, err := conn.ExecContext(ctx, statement); err != nil {
			return query.Result{}, fmt.Errorf("restrict file access: %w", err)
		}
	}

	rows, err := conn.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, executionError(ctx, sqlText, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, executionError(ctx, sqlText, err)
	}

	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

var errMultipleStatements = errors.New("only one SQL statement may be run per query")

// sandboxStatements confine the query to reading files under root. The order
// matters: the configuration must be locked last.
func sandboxStatements(root string) []string {
	return []string{
		"SET allowed_directories = [" + quoteString(root) + "]",
		"SET enable_external_access = false",
		"SET lock_configuration = true",
	}
}

func (e *Engine) openDB() (*sql.DB, error) {
	if e.open != nil {
		return e.open()
	}
	return sql.Open("duckdb", "")
}

// executionError attributes err to the statement unless the caller gave up.
func executionError(ctx context.Context, sqlText string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("execute query: %w", errors.Join(ctxErr, err))
	}
	return &query.ExecutionError{SQL: sqlText, Err: err}
}

func viewStatement(table dataset.Table) (string, error) {
	if err := dataset.ValidateTableName(table.Name); err != nil {
		return "", err
	}
	var reader string
	switch table.Format {
	case dataset.FormatCSV:
		reader = "read_csv_auto"
	case dataset.FormatParquet:
		reader = "read_parquet"
	default:
		return "", fmt.Errorf("unsupported format %q for table %q", table.Format, table.Name)
	}
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM %s(%s)", quoteIdent(table.Name), reader, quoteString(table.Path)), nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
