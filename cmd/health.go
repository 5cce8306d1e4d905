package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// healthCmd verifies the connection step by step, mirroring what the
// settings page's health check does.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the configured backend",
	Long: `Check the health of the configured connection by verifying:
  • Connection settings are present
  • The backend /health endpoint responds
  • Stored credentials still resolve a session

This command is useful for debugging connection issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		in := controller.Inputs()

		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking connection settings..."))
		if in.BaseURL == "" {
			fmt.Fprintln(out, errorStyle.Render("✗ No base URL configured"))
			return fmt.Errorf("connection not configured")
		}
		if in.APIKey == "" && in.Token == "" {
			fmt.Fprintln(out, errorStyle.Render("✗ No API key or session token"))
			return fmt.Errorf("no credentials configured")
		}
		fmt.Fprintln(out, successStyle.Render("✓ Connection configured"))
		fmt.Fprintln(out)

		ctx := cmd.Context()
		fmt.Fprintln(out, infoStyle.Render("Step 2: Probing the backend..."))
		if err := controller.HealthCheck(ctx); err != nil {
			fmt.Fprintln(out, errorStyle.Render("✗ Backend unreachable:"), err)
			return err
		}
		fmt.Fprintln(out, successStyle.Render("✓ Connected"))
		fmt.Fprintln(out)

		if in.Token != "" {
			fmt.Fprintln(out, infoStyle.Render("Step 3: Resolving session..."))
			controller.Apply(ctx, []internal.Rule{internal.RuleSession})
			if user := controller.Session.CurrentUser(); user != nil {
				fmt.Fprintln(out, successStyle.Render("✓ Logged in as "+user.Email))
			} else {
				fmt.Fprintln(out, errorStyle.Render("✗ Session expired"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
