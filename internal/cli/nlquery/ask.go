package nlquery

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duckmesh/nlquery/internal/assistant"
	"github.com/duckmesh/nlquery/internal/llm"
	"github.com/duckmesh/nlquery/internal/sqlfmt"
	"github.com/duckmesh/nlquery/internal/summary"
	"github.com/duckmesh/nlquery/internal/synthesis"
)

func newAskCmd(opts *Options) *cobra.Command {
	var (
		model             string
		maxAttempts       int
		additionalContext string
		maxRows           int
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Translate a question to SQL, run it and summarize the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session := opts.Session
			if cmd.Flags().Changed("model") {
				parsed, err := llm.ParseModel(model)
				if err != nil {
					return err
				}
				session.Model = parsed
			}
			if cmd.Flags().Changed("max-attempts") {
				session.MaxAttempts = maxAttempts
			}
			if cmd.Flags().Changed("context") {
				session.AdditionalContext = additionalContext
			}
			if err := session.Validate(); err != nil {
				return err
			}

			services, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			if services.Assistant == nil {
				return failed("assistant is not configured")
			}

			question := strings.Join(args, " ")
			opts.Logger.DebugContext(cmd.Context(), "asking",
				slog.String("model", session.Model.String()),
				slog.Int("max_attempts", session.MaxAttempts),
			)
			answer, err := services.Assistant.Ask(cmd.Context(), question, session)
			var summaryErr *summary.SummarizationError
			if err != nil && !errors.As(err, &summaryErr) {
				return &runError{err: err}
			}
			return printAnswer(cmd.OutOrStdout(), answer, summaryErr, maxRows)
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model to use (see 'nlquery models')")
	cmd.Flags().IntVarP(&maxAttempts, "max-attempts", "n", 0, "maximum number of reflection attempts (0-10)")
	cmd.Flags().StringVar(&additionalContext, "context", "", "additional context for the summary")
	cmd.Flags().IntVar(&maxRows, "max-rows", summary.DefaultMaxRows, "maximum number of rows to print")
	return cmd
}

func printAnswer(w io.Writer, answer assistant.Answer, summaryErr *summary.SummarizationError, maxRows int) error {
	switch answer.Status {
	case synthesis.StatusExhausted:
		_, _ = fmt.Fprintf(w, "Last model response:\n%s\n", answer.LastResponse)
		return failed("%s", answer.Message)
	case synthesis.StatusSucceededFailure:
		_, _ = fmt.Fprintf(w, "The question cannot be answered from the dataset: %s\n", answer.Message)
		return nil
	}

	_, _ = fmt.Fprintf(w, "SQL:\n%s\n\n", sqlfmt.FormatWith(answer.SQL, sqlfmt.Options{Reindent: true}))
	summary.WriteTable(w, answer.Table, maxRows)
	if answer.Attempts > 0 {
		_, _ = fmt.Fprintf(w, "\n(corrected after %d reflection attempts)\n", answer.Attempts)
	}
	if summaryErr != nil {
		return &runError{err: summaryErr}
	}
	_, _ = fmt.Fprintf(w, "\nSummary:\n%s\n", strings.TrimSpace(answer.Summary))
	return nil
}
