package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var (
	docsSearch string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage documents in the active knowledge base",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the active knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		controller.Apply(cmd.Context(), []internal.Rule{internal.RuleDirectory, internal.RuleDocuments})
		if message := controller.DocumentsError(); message != "" {
			return fmt.Errorf("%s", message)
		}
		if controller.Inputs().ActiveKB == "" {
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("No knowledge base selected"))
			return nil
		}

		docs := internal.FilterDocuments(controller.Documents(), docsSearch)
		out := cmd.OutOrStdout()
		if len(docs) == 0 {
			fmt.Fprintln(out, headerStyle.Render("No documents found"))
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d document(s)", len(docs))))
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Filename")+"\t"+titleStyle.Render("Status")+"\t"+titleStyle.Render("Chunks")+"\t"+titleStyle.Render("Created")+"\t")
		fmt.Fprintln(w, strings.Repeat("─", 90))
		for _, doc := range docs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t\n",
				idStyle.Render(doc.ID),
				doc.Filename,
				doc.Status,
				doc.ChunkCount,
				dimStyle.Render(internal.FormatDateTime(doc.CreatedAt)),
			)
		}
		return w.Flush()
	},
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload documents to the active knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleDirectory})
		return controller.UploadDocuments(ctx, args)
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document (irreversible)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete this document?") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleDirectory})
		return controller.DeleteDocument(ctx, args[0])
	},
}

func init() {
	docsListCmd.Flags().StringVar(&docsSearch, "search", "", "Filter documents by filename substring")
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsUploadCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	rootCmd.AddCommand(docsCmd)
}
