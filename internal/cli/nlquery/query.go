package nlquery

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duckmesh/nlquery/internal/query"
	"github.com/duckmesh/nlquery/internal/sqlfmt"
	"github.com/duckmesh/nlquery/internal/summary"
)

func newQueryCmd(opts *Options) *cobra.Command {
	var maxRows int
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read-only SQL statement against the dataset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statement := strings.Join(args, " ")
			if !query.IsReadOnly(statement) {
				return fmt.Errorf("only a single read-only SELECT/WITH statement is allowed")
			}

			services, err := opts.services(cmd.Context())
			if err != nil {
				return err
			}
			if services.Engine == nil {
				return failed("query engine is not configured")
			}

			result, err := services.Engine.Execute(cmd.Context(), query.Request{SQL: sqlfmt.Format(statement)})
			if err != nil {
				return &runError{err: err}
			}
			summary.WriteTable(cmd.OutOrStdout(), result, maxRows)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxRows, "max-rows", summary.DefaultMaxRows, "maximum number of rows to print")
	return cmd
}
