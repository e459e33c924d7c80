package nlquery

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duckmesh/nlquery/internal/dataset"
)

const defaultPurchaseCount = 1000

func newGenerateDataCmd(opts *Options) *cobra.Command {
	var (
		out       string
		formats   []string
		purchases int
		seed      int64
		upload    bool
		prefix    string
	)
	cmd := &cobra.Command{
		Use:   "generate-data",
		Short: "Generate the employees and purchases dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := dataset.ParseFormats(formats)
			if err != nil {
				return err
			}
			if purchases < 0 {
				return fmt.Errorf("purchases must not be negative, got %d", purchases)
			}
			if strings.TrimSpace(out) == "" && !upload {
				return fmt.Errorf("--out is required unless --upload is set")
			}

			data := dataset.NewGenerator(seed).Generate(purchases)
			files, err := dataset.Encode(data, parsed)
			if err != nil {
				return &runError{err: err}
			}

			w := cmd.OutOrStdout()
			if strings.TrimSpace(out) != "" {
				paths, err := dataset.WriteDir(out, files)
				if err != nil {
					return &runError{err: err}
				}
				for _, path := range paths {
					_, _ = fmt.Fprintf(w, "wrote %s\n", path)
				}
			}

			if upload {
				store, err := opts.store(cmd.Context())
				if err != nil {
					return err
				}
				infos, err := dataset.Upload(cmd.Context(), store, prefix, files)
				if err != nil {
					return &runError{err: err}
				}
				for _, info := range infos {
					_, _ = fmt.Fprintf(w, "uploaded %s (%d bytes)\n", info.Key, info.Size)
				}
			}

			opts.Logger.InfoContext(cmd.Context(), "dataset generated",
				slog.Int("employees", len(data.Employees)),
				slog.Int("purchases", len(data.Purchases)),
				slog.Int64("seed", seed),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", opts.DatasetRoot, "directory to write the dataset files to")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{string(dataset.FormatCSV)}, "file formats to write (csv, parquet)")
	cmd.Flags().IntVar(&purchases, "purchases", defaultPurchaseCount, "number of purchases to generate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the files to the object store")
	cmd.Flags().StringVar(&prefix, "prefix", opts.DatasetPrefix, "object store directory for uploaded files")
	return cmd
}
