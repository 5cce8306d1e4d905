package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/kivohq/kivoctl/internal"
	"github.com/kivohq/kivoctl/internal/export"
	"github.com/spf13/cobra"
)

var (
	queryTopK   int
	queryFormat string
	queryOutput string
)

var (
	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a question against the active knowledge base",
	Long: `Run a retrieval query against the active knowledge base. The observed
latency is folded into the locally persisted usage counters.

Examples:
  kivoctl query "What changed in the Q3 report?"
  kivoctl query --top-k 8 --format md "Summarize the handbook"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleDirectory})
		question := strings.TrimSpace(args[0])
		result, latency, err := controller.RunQuery(ctx, question, queryTopK)
		if err != nil {
			return err
		}

		if queryFormat != "" {
			exporter, err := export.NewExporter(queryFormat)
			if err != nil {
				return err
			}
			report := export.NewReport(controller.Inputs().ActiveKB, question, result, latency)
			out := cmd.OutOrStdout()
			if queryOutput != "" {
				file, err := os.Create(queryOutput)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			return exporter.Export(report, out)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, answerStyle.Render(result.Answer))
		if len(result.Sources) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d source(s)", len(result.Sources))))
			for _, source := range result.Sources {
				fmt.Fprintf(out, "  %s %s\n", scoreStyle.Render(fmt.Sprintf("%.3f", source.Score)), sourceStyle.Render(source.Filename))
				if source.Excerpt != "" {
					fmt.Fprintf(out, "    %s\n", dimStyle.Render(clip(source.Excerpt, 120)))
				}
			}
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, dimStyle.Render("Latency: "+internal.FormatLatency(latency)))
		return nil
	},
}

// clip shortens a string to at most n runes, appending an ellipsis
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func init() {
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 5, "Number of chunks to retrieve")
	queryCmd.Flags().StringVar(&queryFormat, "format", "", "Export format (json, yaml, md, jsonl)")
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "", "Write the export to a file instead of stdout")
	rootCmd.AddCommand(queryCmd)
}
