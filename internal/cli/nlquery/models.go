package nlquery

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/duckmesh/nlquery/internal/llm"
)

func newModelsCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the supported models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaultModel := opts.Session.Model
			if !defaultModel.Valid() {
				defaultModel = llm.DefaultModel
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Model", "Provider", "Default"})
			table.SetAutoFormatHeaders(false)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, model := range llm.SupportedModels() {
				isDefault := ""
				if model == defaultModel {
					isDefault = "*"
				}
				table.Append([]string{model.String(), string(model.Provider()), isDefault})
			}
			table.Render()
			return nil
		},
	}
}
