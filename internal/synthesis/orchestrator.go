package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/duckmesh/nlquery/internal/llm"
	"github.com/duckmesh/nlquery/internal/observability"
	"github.com/duckmesh/nlquery/internal/outcome"
	"github.com/duckmesh/nlquery/internal/query"
)

// ErrReflectionExhausted is reported when every reflection attempt was used
// without producing a valid outcome.
var ErrReflectionExhausted = errors.New("could not produce a valid query")

type State string

const (
	StateAwaitingResponse State = "awaiting_response"
	StateParsing          State = "parsing"
	StateExecuting        State = "executing"
	StateReflecting       State = "reflecting"
	StateSucceeded        State = "succeeded"
	StateExhausted        State = "exhausted"
)

type Status string

const (
	StatusSucceededQuery   Status = "succeeded_query"
	StatusSucceededFailure Status = "succeeded_failure"
	StatusExhausted        Status = "exhausted"
)

const (
	callKindSynthesis  = "synthesis"
	callKindReflection = "reflection"
)

// AttemptState is threaded through one synthesis. Context is always the
// initial prompt; reflections are built from it.
type AttemptState struct {
	Context      PromptContext
	LastResponse string
	AttemptsUsed int
}

type Transition struct {
	From    State
	To      State
	Attempt int
	Reason  string
}

type Result struct {
	Status      Status
	Outcome     outcome.Outcome
	Table       query.Result
	State       AttemptState
	Transitions []Transition
}

// Err returns ErrReflectionExhausted for an exhausted result and nil
// otherwise.
func (r Result) Err() error {
	if r.Status == StatusExhausted {
		return fmt.Errorf("%w after %d reflection attempts", ErrReflectionExhausted, r.State.AttemptsUsed)
	}
	return nil
}

type Orchestrator struct {
	Completer llm.Completer
	Engine    query.Engine
	Template  PromptTemplate
	Logger    *slog.Logger
}

func NewOrchestrator(completer llm.Completer, engine query.Engine, template PromptTemplate, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Completer: completer, Engine: engine, Template: template, Logger: logger}
}

// stepResult is the value that drives the next transition after a response
// has been parsed and, for a query, executed.
type stepResult struct {
	next    State
	outcome outcome.Outcome
	table   query.Result
	cause   error
}

type run struct {
	orchestrator *Orchestrator
	model        llm.Model
	state        AttemptState
	transitions  []Transition
	current      State
}

// Run synthesizes a query for question. Parse failures and statements the
// engine rejects are fed back to the model up to maxAttempts times. Provider
// failures and other executor errors end the run and are returned.
func (o *Orchestrator) Run(ctx context.Context, question string, model llm.Model, maxAttempts int) (Result, error) {
	if o.Completer == nil {
		return Result{}, fmt.Errorf("completer is required")
	}
	if o.Engine == nil {
		return Result{}, fmt.Errorf("query engine is required")
	}
	if strings.TrimSpace(question) == "" {
		return Result{}, fmt.Errorf("question is required")
	}
	if maxAttempts < 0 {
		return Result{}, fmt.Errorf("max attempts must not be negative, got %d", maxAttempts)
	}

	r := &run{
		orchestrator: o,
		model:        model,
		state:        AttemptState{Context: o.Template.Build(question)},
		current:      StateAwaitingResponse,
	}

	response, err := r.complete(ctx, callKindSynthesis, r.state.Context.Text)
	if err != nil {
		return r.result(""), err
	}
	r.state.LastResponse = response
	r.transition(StateParsing, "")

	for {
		step, err := r.step(ctx)
		if err != nil {
			return r.result(""), err
		}

		if step.next == StateSucceeded {
			r.transition(StateSucceeded, "")
			result := r.result(StatusSucceededQuery)
			if !step.outcome.IsQuery() {
				result.Status = StatusSucceededFailure
			}
			result.Outcome = step.outcome
			result.Table = step.table
			observability.ObserveSynthesis(string(result.Status), r.state.AttemptsUsed)
			return result, nil
		}

		r.transition(StateReflecting, step.cause.Error())
		if r.state.AttemptsUsed >= maxAttempts {
			r.transition(StateExhausted, "attempt bound reached")
			o.logger().WarnContext(ctx, "synthesis exhausted",
				slog.String("model", string(model)),
				slog.Int("attempts_used", r.state.AttemptsUsed),
				slog.Int("max_attempts", maxAttempts),
			)
			observability.ObserveSynthesis(string(StatusExhausted), r.state.AttemptsUsed)
			return r.result(StatusExhausted), nil
		}

		reflection := BuildReflectionPrompt(r.state.Context, r.state.LastResponse)
		o.logger().InfoContext(ctx, "reflecting on failed attempt",
			slog.String("model", string(model)),
			slog.Int("attempt", r.state.AttemptsUsed+1),
			slog.String("cause", step.cause.Error()),
		)
		observability.IncrementReflections()
		response, err := r.complete(ctx, callKindReflection, reflection.Text)
		if err != nil {
			return r.result(""), err
		}
		r.state.AttemptsUsed++
		r.state.LastResponse = response
		r.transition(StateParsing, "")
	}
}

// step parses the last response and executes it when it is a query.
func (r *run) step(ctx context.Context) (stepResult, error) {
	parsed, err := outcome.Parse(r.state.LastResponse)
	if err != nil {
		var parseErr *outcome.ParseError
		if errors.As(err, &parseErr) {
			return stepResult{next: StateReflecting, cause: err}, nil
		}
		return stepResult{}, err
	}
	if !parsed.IsQuery() {
		return stepResult{next: StateSucceeded, outcome: parsed}, nil
	}

	r.transition(StateExecuting, "")
	start := time.Now()
	table, err := r.orchestrator.Engine.Execute(ctx, query.Request{SQL: parsed.SQL()})
	if err != nil {
		var execErr *query.ExecutionError
		if errors.As(err, &execErr) {
			observability.ObserveQuery("rejected", time.Since(start))
			return stepResult{next: StateReflecting, outcome: parsed, cause: err}, nil
		}
		observability.ObserveQuery("error", time.Since(start))
		return stepResult{}, err
	}
	observability.ObserveQuery("ok", time.Since(start))
	return stepResult{next: StateSucceeded, outcome: parsed, table: table}, nil
}

func (r *run) complete(ctx context.Context, kind, prompt string) (string, error) {
	start := time.Now()
	response, err := r.orchestrator.Completer.Complete(ctx, r.model, prompt)
	observability.ObserveModelCall(string(r.model.Provider()), kind, err, time.Since(start))
	return response, err
}

func (r *run) transition(to State, reason string) {
	t := Transition{From: r.current, To: to, Attempt: r.state.AttemptsUsed, Reason: reason}
	r.transitions = append(r.transitions, t)
	r.current = to
	r.orchestrator.logger().Debug("synthesis transition",
		slog.String("from", string(t.From)),
		slog.String("to", string(t.To)),
		slog.Int("attempt", t.Attempt),
		slog.String("reason", reason),
	)
}

func (r *run) result(status Status) Result {
	return Result{
		Status:      status,
		State:       r.state,
		Transitions: append([]Transition(nil), r.transitions...),
	}
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
