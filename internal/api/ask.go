package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/duckmesh/nlquery/internal/assistant"
	"github.com/duckmesh/nlquery/internal/auth"
	"github.com/duckmesh/nlquery/internal/dataset"
	"github.com/duckmesh/nlquery/internal/llm"
	"github.com/duckmesh/nlquery/internal/summary"
	"github.com/duckmesh/nlquery/internal/synthesis"
)

type askRequest struct {
	Question          string  `json:"question"`
	Model             string  `json:"model"`
	MaxAttempts       *int    `json:"max_attempts"`
	AdditionalContext *string `json:"additional_context"`
}

type askResponse struct {
	Status       string   `json:"status"`
	Model        string   `json:"model"`
	SQL          string   `json:"sql,omitempty"`
	Message      string   `json:"message,omitempty"`
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	SummaryError string   `json:"summary_error,omitempty"`
	Attempts     int      `json:"attempts"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assistant == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "assistant is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAsker); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	session, err := sessionFromRequest(deps.Session, request)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SESSION", err.Error(), false, nil)
		return
	}

	answer, err := deps.Assistant.Ask(r.Context(), request.Question, session)
	var summaryErr *summary.SummarizationError
	if err != nil && !errors.As(err, &summaryErr) {
		writeAskError(w, r, err)
		return
	}

	if answer.Status == synthesis.StatusExhausted {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "REFLECTION_EXHAUSTED", answer.Message, true, map[string]any{
			"attempts":      answer.Attempts,
			"last_response": answer.LastResponse,
		})
		return
	}

	response := askResponse{
		Status:   string(answer.Status),
		Model:    answer.Model.String(),
		SQL:      answer.SQL,
		Message:  answer.Message,
		Summary:  answer.Summary,
		Attempts: answer.Attempts,
	}
	if answer.Status == synthesis.StatusSucceededQuery {
		response.Columns = answer.Table.Columns
		response.Rows = nonNilRows(answer.Table.Rows)
	}
	if summaryErr != nil {
		response.SummaryError = summaryErr.Error()
	}
	writeJSON(w, http.StatusOK, response)
}

func sessionFromRequest(defaults assistant.SessionConfig, request askRequest) (assistant.SessionConfig, error) {
	session := defaults
	if !session.Model.Valid() {
		session.Model = llm.DefaultModel
	}
	if strings.TrimSpace(request.Model) != "" {
		model, err := llm.ParseModel(request.Model)
		if err != nil {
			return assistant.SessionConfig{}, err
		}
		session.Model = model
	}
	if request.MaxAttempts != nil {
		session.MaxAttempts = *request.MaxAttempts
	}
	if request.AdditionalContext != nil {
		session.AdditionalContext = *request.AdditionalContext
	}
	if err := session.Validate(); err != nil {
		return assistant.SessionConfig{}, err
	}
	return session, nil
}

func writeAskError(w http.ResponseWriter, r *http.Request, err error) {
	var providerErr *llm.ProviderError
	switch {
	case errors.Is(err, assistant.ErrInvalidSession):
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SESSION", err.Error(), false, nil)
	case errors.As(err, &providerErr):
		writeError(r.Context(), w, http.StatusBadGateway, "MODEL_PROVIDER_ERROR", "model provider call failed", true, map[string]any{
			"provider": string(providerErr.Provider),
			"details":  providerErr.Error(),
		})
	case errors.Is(err, dataset.ErrTableNotFound):
		writeError(r.Context(), w, http.StatusServiceUnavailable, "DATASET_UNAVAILABLE", "dataset is not available", true, map[string]any{"details": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeError(r.Context(), w, http.StatusGatewayTimeout, "ASK_TIMEOUT", "request timed out", true, nil)
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "ASK_FAILED", "question could not be answered", true, map[string]any{"details": err.Error()})
	}
}
