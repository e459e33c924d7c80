// Package assistant answers a natural-language question end to end: query
// synthesis with self-correction followed by a one-shot summary.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/duckmesh/nlquery/internal/config"
	"github.com/duckmesh/nlquery/internal/llm"
	"github.com/duckmesh/nlquery/internal/query"
	"github.com/duckmesh/nlquery/internal/synthesis"
)

var ErrInvalidSession = errors.New("invalid session")

// SessionConfig carries the per-question knobs a user can choose.
type SessionConfig struct {
	Model             llm.Model
	MaxAttempts       int
	AdditionalContext string
}

func (c SessionConfig) Validate() error {
	if !c.Model.Valid() {
		return fmt.Errorf("%w: unsupported model %q", ErrInvalidSession, c.Model)
	}
	if c.MaxAttempts < 0 || c.MaxAttempts > config.MaxSessionAttempts {
		return fmt.Errorf("%w: max attempts must be between 0 and %d, got %d", ErrInvalidSession, config.MaxSessionAttempts, c.MaxAttempts)
	}
	return nil
}

// SessionFromConfig returns the session defaults configured for the process.
func SessionFromConfig(cfg config.Config) SessionConfig {
	model, err := llm.ParseModel(cfg.AI.Model)
	if err != nil {
		model = llm.DefaultModel
	}
	return SessionConfig{
		Model:             model,
		MaxAttempts:       cfg.Session.MaxAttempts,
		AdditionalContext: cfg.Session.AdditionalContext,
	}
}

type Answer struct {
	Question     string
	Model        llm.Model
	Status       synthesis.Status
	SQL          string
	Message      string
	Table        query.Result
	Summary      string
	Attempts     int
	LastResponse string
}

type synthesizer interface {
	Run(ctx context.Context, question string, model llm.Model, maxAttempts int) (synthesis.Result, error)
}

type summarizer interface {
	Summarize(ctx context.Context, question string, result query.Result, model llm.Model, additionalContext string) (string, error)
}

type Service struct {
	synthesizer synthesizer
	summarizer  summarizer
	logger      *slog.Logger
}

func NewService(synthesizer synthesizer, summarizer summarizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{synthesizer: synthesizer, summarizer: summarizer, logger: logger}
}

// Ask runs one question. An exhausted synthesis is reported through
// Answer.Status with a nil error. A failed summary returns the answer with
// its query and table populated alongside the *summary.SummarizationError.
func (s *Service) Ask(ctx context.Context, question string, session SessionConfig) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("%w: question is required", ErrInvalidSession)
	}
	if err := session.Validate(); err != nil {
		return Answer{}, err
	}

	result, err := s.synthesizer.Run(ctx, question, session.Model, session.MaxAttempts)
	if err != nil {
		return Answer{}, err
	}

	answer := Answer{
		Question:     question,
		Model:        session.Model,
		Status:       result.Status,
		Attempts:     result.State.AttemptsUsed,
		LastResponse: result.State.LastResponse,
	}
	switch result.Status {
	case synthesis.StatusExhausted:
		answer.Message = result.Err().Error()
		return answer, nil
	case synthesis.StatusSucceededFailure:
		answer.Message = result.Outcome.Message()
		return answer, nil
	}

	answer.SQL = result.Outcome.SQL()
	answer.Table = result.Table
	summary, err := s.summarizer.Summarize(ctx, question, result.Table, session.Model, session.AdditionalContext)
	if err != nil {
		s.logger.WarnContext(ctx, "answer returned without summary",
			slog.String("model", string(session.Model)),
			slog.Int("rows", len(result.Table.Rows)),
		)
		return answer, err
	}
	answer.Summary = summary
	return answer, nil
}
