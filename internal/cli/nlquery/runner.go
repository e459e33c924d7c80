// Package nlquery implements the nlquery command line.
package nlquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/duckmesh/nlquery/internal/assistant"
	"github.com/duckmesh/nlquery/internal/query"
	"github.com/duckmesh/nlquery/internal/storage"
)

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
	exitCodeUsage   = 2
)

type Asker interface {
	Ask(ctx context.Context, question string, session assistant.SessionConfig) (assistant.Answer, error)
}

// Services are the runtime dependencies a command needs. They are built on
// demand so commands like models never require model credentials.
type Services struct {
	Assistant Asker
	Engine    query.Engine
}

type Options struct {
	Session assistant.SessionConfig
	// DatasetRoot is the default output directory of generate-data.
	DatasetRoot   string
	DatasetPrefix string
	Build         func(ctx context.Context) (Services, error)
	OpenStore     func(ctx context.Context) (storage.ObjectStore, error)
	Logger        *slog.Logger
	Stdout        io.Writer
	Stderr        io.Writer
}

// runError marks a failure that happened after arguments were accepted.
type runError struct {
	err error
}

func (e *runError) Error() string {
	return e.err.Error()
}

func (e *runError) Unwrap() error {
	return e.err
}

func failed(format string, args ...any) error {
	return &runError{err: fmt.Errorf(format, args...)}
}

// Run executes one command line and returns the process exit code: 0 on
// success, 1 when the command failed and 2 on a usage error.
func Run(ctx context.Context, args []string, opts Options) int {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	root := newRootCmd(&opts)
	root.SetArgs(args)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitCodeSuccess
	}
	_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
	var failure *runError
	if errors.As(err, &failure) {
		return exitCodeError
	}
	_, _ = fmt.Fprintf(opts.Stderr, "run 'nlquery --help' for usage\n")
	return exitCodeUsage
}

func newRootCmd(opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "nlquery",
		Short:         "Ask questions about the employees and purchases dataset in plain language.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(
		newAskCmd(opts),
		newQueryCmd(opts),
		newModelsCmd(opts),
		newGenerateDataCmd(opts),
	)
	return root
}

func (o *Options) services(ctx context.Context) (Services, error) {
	if o.Build == nil {
		return Services{}, failed("services are not configured")
	}
	services, err := o.Build(ctx)
	if err != nil {
		return Services{}, &runError{err: err}
	}
	return services, nil
}

func (o *Options) store(ctx context.Context) (storage.ObjectStore, error) {
	if o.OpenStore == nil {
		return nil, failed("object store is not configured")
	}
	store, err := o.OpenStore(ctx)
	if err != nil {
		return nil, &runError{err: err}
	}
	return store, nil
}
