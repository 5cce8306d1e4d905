package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show locally tracked query metrics",
	Long: `Show the usage counters persisted on this machine: total query count,
last latency and the running average, plus a latency distribution over the
workspace's recent queries when available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleDirectory, internal.RuleWorkspaceAnalytics})

		usage := controller.Usage()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render("Usage"))
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "Queries\t%d\n", usage.QueryCount)
		fmt.Fprintf(w, "Last latency\t%s\n", internal.FormatLatency(usage.LastLatencyMs))
		fmt.Fprintf(w, "Average latency\t%s\n", internal.FormatLatency(usage.AvgLatencyMs))
		if err := w.Flush(); err != nil {
			return err
		}

		if dist := internal.SummarizeLatencies(controller.RecentQueries()); dist.Mean > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("Recent latency distribution"))
			dw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintf(dw, "Mean\t%.0f ms\n", dist.Mean)
			fmt.Fprintf(dw, "Median\t%.0f ms\n", dist.Median)
			fmt.Fprintf(dw, "P95\t%.0f ms\n", dist.P95)
			return dw.Flush()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
