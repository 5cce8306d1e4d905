package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var (
	dashboardRange string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the workspace overview and recent activity",
	Long: `Show aggregate counters for the selected date range plus per-workspace
query volume and recent activity for the active knowledge base.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.SetRange(ctx, dashboardRange)
		controller.Apply(ctx, []internal.Rule{
			internal.RuleSession,
			internal.RuleDirectory,
			internal.RuleOverview,
			internal.RuleWorkspaceAnalytics,
		})

		out := cmd.OutOrStdout()
		overview := controller.Overview()
		fmt.Fprintln(out, headerStyle.Render("Workspace overview ("+dashboardRange+")"))
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		if overview != nil {
			fmt.Fprintf(w, "Knowledge bases\t%d\n", overview.KnowledgeBasesCount)
			fmt.Fprintf(w, "Docs indexed\t%d\n", overview.DocumentsCount)
			fmt.Fprintf(w, "Chunks\t%d\n", overview.ChunksCount)
			fmt.Fprintf(w, "Queries\t%d\n", overview.QueriesCount)
			fmt.Fprintf(w, "Avg latency\t%s\n", internal.FormatLatency(overview.AvgLatencyMs))
			lastIngest := "-"
			if overview.LastIngestAt != nil {
				lastIngest = internal.FormatDateTime(*overview.LastIngestAt)
			}
			fmt.Fprintf(w, "Last ingest\t%s\n", lastIngest)
		} else {
			fmt.Fprintln(w, dimStyle.Render("No overview data"))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if volume := controller.QueryVolume(); len(volume) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("Query volume"))
			vw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			for _, point := range volume {
				bar := strings.Repeat("█", min(point.Count, 40))
				fmt.Fprintf(vw, "%s\t%3d\t%s\n", point.Date, point.Count, bar)
			}
			if err := vw.Flush(); err != nil {
				return err
			}
		}

		if rows := internal.RecentQueryRows(controller.RecentQueries()); len(rows) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("Recent queries"))
			qw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			for _, row := range rows {
				fmt.Fprintf(qw, "%s\t%s\t%s\n", row.Question, row.Latency, dimStyle.Render(row.Time))
			}
			if err := qw.Flush(); err != nil {
				return err
			}
		}

		if rows := internal.RecentIngestRows(controller.RecentIngests()); len(rows) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("Recent ingests"))
			iw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			for _, row := range rows {
				fmt.Fprintf(iw, "%s\t%s chunks\t%s\n", row.Status, row.Chunks, dimStyle.Render(row.Time))
			}
			if err := iw.Flush(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardRange, "range", "7d", "Date range (e.g. 24h, 7d, 30d)")
	rootCmd.AddCommand(dashboardCmd)
}
