// Package summary turns a query result into a natural-language answer.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/duckmesh/nlquery/internal/llm"
	"github.com/duckmesh/nlquery/internal/observability"
	"github.com/duckmesh/nlquery/internal/query"
)

const callKind = "summary"

// SummarizationError wraps a failed summarization call. The query result it
// was meant to describe is still valid.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string {
	return "summarize result: " + e.Err.Error()
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}

type Summarizer struct {
	Completer llm.Completer
	Logger    *slog.Logger
	MaxRows   int
}

func NewSummarizer(completer llm.Completer, logger *slog.Logger) *Summarizer {
	return &Summarizer{Completer: completer, Logger: logger, MaxRows: DefaultMaxRows}
}

// Summarize makes exactly one model call describing result as an answer to
// question and returns the model's text unchanged. It is not retried and
// never triggers reflection.
func (s *Summarizer) Summarize(ctx context.Context, question string, result query.Result, model llm.Model, additionalContext string) (string, error) {
	if s.Completer == nil {
		return "", &SummarizationError{Err: fmt.Errorf("completer is required")}
	}
	prompt := BuildPrompt(question, RenderTable(result, s.maxRows()), additionalContext)

	start := time.Now()
	text, err := s.Completer.Complete(ctx, model, prompt)
	observability.ObserveModelCall(string(model.Provider()), callKind, err, time.Since(start))
	if err != nil {
		s.logger().WarnContext(ctx, "summarization failed",
			slog.String("model", string(model)),
			slog.String("error", err.Error()),
		)
		return "", &SummarizationError{Err: err}
	}
	return text, nil
}

// BuildPrompt renders the summarization instruction. additionalContext is
// appended only when it has non-whitespace content.
func BuildPrompt(question, table, additionalContext string) string {
	var b strings.Builder
	b.WriteString("A user asked the following question:\n\n")
	b.WriteString(question)
	b.WriteString("\n\nThis is the result of the SQL query that answers it:\n\n")
	b.WriteString(table)
	b.WriteString("\n\nSummarize the data in a short, natural-language answer to the question. ")
	b.WriteString("Do not mention SQL, tables or dataframes.")
	if extra := strings.TrimSpace(additionalContext); extra != "" {
		b.WriteString("\n\nAdditional context from the user:\n\n")
		b.WriteString(extra)
	}
	b.WriteString("\n")
	return b.String()
}

func (s *Summarizer) maxRows() int {
	if s.MaxRows <= 0 {
		return DefaultMaxRows
	}
	return s.MaxRows
}

func (s *Summarizer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
