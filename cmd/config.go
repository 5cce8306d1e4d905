package cmd

import (
	"fmt"

	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the stored connection settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current connection settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		in := controller.Inputs()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Base URL:  %s\n", in.BaseURL)
		fmt.Fprintf(out, "API key:   %s\n", maskSecret(in.APIKey))
		if in.Token != "" {
			fmt.Fprintf(out, "Session:   token stored\n")
		} else {
			fmt.Fprintf(out, "Session:   not logged in\n")
		}
		fmt.Fprintf(out, "Workspace: %s\n", placeholder(in.ActiveKB))
		return nil
	},
}

// configSettableKeys are the settings a user may change directly. Everything
// else (token, counters, selection flag) is owned by its component.
var configSettableKeys = map[string]string{
	"baseUrl": internal.KeyBaseURL,
	"apiKey":  internal.KeyAPIKey,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a connection setting (baseUrl or apiKey)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storeKey, ok := configSettableKeys[args[0]]
		if !ok {
			return fmt.Errorf("unknown setting %q (settable: baseUrl, apiKey)", args[0])
		}
		controller, cleanup, err := openController()
		if err != nil {
			return err
		}
		defer cleanup()

		// Persist through the controller so dependent views re-fire on the
		// next invocation with consistent settings.
		next := controller.Inputs()
		switch storeKey {
		case internal.KeyBaseURL:
			next.BaseURL = args[1]
		case internal.KeyAPIKey:
			next.APIKey = args[1]
		}
		controller.SetInputs(cmd.Context(), next)
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
		return nil
	},
}

// maskSecret hides all but the last four characters of a secret
func maskSecret(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// placeholder renders "-" for empty display values
func placeholder(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
