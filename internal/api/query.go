package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/duckmesh/nlquery/internal/auth"
	"github.com/duckmesh/nlquery/internal/dataset"
	"github.com/duckmesh/nlquery/internal/query"
	"github.com/duckmesh/nlquery/internal/sqlfmt"
)

type queryRequest struct {
	SQL string `json:"sql"`
}

type queryResponse struct {
	SQL     string         `json:"sql"`
	Columns []string       `json:"columns"`
	Rows    [][]any        `json:"rows"`
	Stats   map[string]any `json:"stats"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.QueryEngine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAsker); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}

	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}
	if !query.IsReadOnly(request.SQL) {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", "only a single read-only SELECT/WITH statement is allowed", false, nil)
		return
	}

	formatted := sqlfmt.Format(request.SQL)
	result, err := deps.QueryEngine.Execute(r.Context(), query.Request{SQL: formatted})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		SQL:     formatted,
		Columns: result.Columns,
		Rows:    nonNilRows(result.Rows),
		Stats:   map[string]any{"duration_ms": result.Duration.Milliseconds(), "row_count": len(result.Rows)},
	})
}

func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var execErr *query.ExecutionError
	switch {
	case errors.As(err, &execErr):
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": execErr.Diagnostic()})
	case errors.Is(err, dataset.ErrTableNotFound):
		writeError(r.Context(), w, http.StatusServiceUnavailable, "DATASET_UNAVAILABLE", "dataset is not available", true, map[string]any{"details": err.Error()})
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_ERROR", "query could not be run", true, map[string]any{"details": err.Error()})
	}
}

func nonNilRows(rows [][]any) [][]any {
	if rows == nil {
		return [][]any{}
	}
	return rows
}
