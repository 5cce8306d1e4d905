package cmd

import (
	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run ingestion on the active knowledge base",
	Long: `Trigger the backend ingestion run that converts uploaded documents into
queryable chunks. Document status is reflected on the next docs list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleDirectory})
		return controller.RunIngest(ctx)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
