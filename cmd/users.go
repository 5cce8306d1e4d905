package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var roleAdmin bool

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administer user accounts (admin only)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		controller.Apply(cmd.Context(), []internal.Rule{internal.RuleSession})
		me := controller.Session.CurrentUser()
		if me == nil {
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("Not logged in"))
			return nil
		}
		if !me.IsAdmin {
			return fmt.Errorf("admin privileges required")
		}

		users := controller.AdminUsers()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d account(s)", len(users))))
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Email")+"\t"+titleStyle.Render("Role")+"\t"+titleStyle.Render("Joined")+"\t")
		fmt.Fprintln(w, strings.Repeat("─", 96))
		for _, user := range users {
			role := "member"
			if user.IsAdmin {
				role = activeStyle.Render("admin")
			}
			name := user.FullName
			if name == "" {
				name = dimStyle.Render("-")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
				idStyle.Render(user.ID),
				name,
				user.Email,
				role,
				dimStyle.Render(internal.FormatDateTime(user.CreatedAt)),
			)
		}
		return w.Flush()
	},
}

var usersRemoveCmd = &cobra.Command{
	Use:   "rm <user-id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Delete this account? This cannot be undone.") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession})
		return controller.DeleteUser(ctx, args[0])
	},
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <user-id>",
	Short: "Grant or revoke admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession})
		return controller.ToggleAdmin(ctx, args[0], roleAdmin)
	},
}

func init() {
	usersRoleCmd.Flags().BoolVar(&roleAdmin, "admin", false, "Grant admin rights (omit to revoke)")
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersRemoveCmd)
	usersCmd.AddCommand(usersRoleCmd)
	rootCmd.AddCommand(usersCmd)
}
