package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var (
	kbDescription string
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage knowledge bases",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge bases",
	Long:  `List all knowledge bases. The active one drives documents, query and analytics views.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		controller.Apply(cmd.Context(), []internal.Rule{internal.RuleDirectory})
		if message := controller.DirectoryError(); message != "" {
			return fmt.Errorf("%s", message)
		}

		workspaces := controller.Directory.Workspaces()
		if len(workspaces) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("No knowledge bases found"))
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d knowledge base(s)", len(workspaces))))
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Description")+"\t")
		fmt.Fprintln(w, strings.Repeat("─", 72))
		active := controller.Directory.ActiveID()
		for _, ws := range workspaces {
			name := ws.Name
			if ws.ID == active {
				name = activeStyle.Render(name + " *")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", idStyle.Render(ws.ID), name, dimStyle.Render(ws.Description))
		}
		return w.Flush()
	},
}

var kbCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a knowledge base and make it active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		kb, err := controller.CreateWorkspace(cmd.Context(), args[0], kbDescription)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", kb.Name, kb.ID)
		return nil
	},
}

var kbSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Make a knowledge base active",
	Long: `Make a knowledge base active. An explicit selection permanently disables
the automatic first-workspace pick for this profile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleDirectory})
		if err := controller.SelectWorkspace(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active knowledge base: %s\n", args[0])
		return nil
	},
}

func init() {
	kbCreateCmd.Flags().StringVar(&kbDescription, "description", "", "Knowledge base description")
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbCreateCmd)
	kbCmd.AddCommand(kbSelectCmd)
	rootCmd.AddCommand(kbCmd)
}
