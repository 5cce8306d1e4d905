package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string

	registerEmail    string
	registerPassword string
	registerName     string
	registerPosition string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the backend and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		email := loginEmail
		password := loginPassword
		if email == "" {
			email = promptLine(cmd, "Email: ")
		}
		if password == "" {
			password = promptLine(cmd, "Password: ")
		}
		if err := controller.Login(cmd.Context(), email, password); err != nil {
			return err
		}
		if user := controller.Session.CurrentUser(); user != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Email)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()
		controller.Logout(cmd.Context())
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account (log in separately afterwards)",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		email := registerEmail
		password := registerPassword
		if email == "" {
			email = promptLine(cmd, "Email: ")
		}
		if password == "" {
			password = promptLine(cmd, "Password: ")
		}
		return controller.Register(cmd.Context(), internal.RegisterRequest{
			Email:    email,
			Password: password,
			FullName: registerName,
			Position: registerPosition,
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		controller.Apply(ctx, []internal.Rule{internal.RuleSession})
		user := controller.Session.CurrentUser()
		if user == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Email:    %s\n", user.Email)
		if user.FullName != "" {
			fmt.Fprintf(out, "Name:     %s\n", user.FullName)
		}
		if user.Position != "" {
			fmt.Fprintf(out, "Position: %s\n", user.Position)
		}
		fmt.Fprintf(out, "Admin:    %v\n", user.IsAdmin)
		fmt.Fprintf(out, "Joined:   %s\n", internal.FormatDateTime(user.CreatedAt))
		return nil
	},
}

// promptLine reads one trimmed line from the command's input
func promptLine(cmd *cobra.Command, prompt string) string {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Account password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerName, "name", "", "Full name")
	registerCmd.Flags().StringVar(&registerPosition, "position", "", "Job position")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
}
