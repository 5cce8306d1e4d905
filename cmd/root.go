package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kivohq/kivoctl/internal"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	settingsPath string
	baseURLFlag  string
	apiKeyFlag   string
	assumeYes    bool
	version      string = "dev"
	commit       string = "unknown"
	date         string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kivoctl",
	Short: "Admin console for a Kivo retrieval-augmented-generation backend",
	Long: `A terminal admin console for a Kivo RAG backend.

kivoctl manages the API connection, knowledge bases and documents, runs
retrieval queries, shows usage dashboards, and handles in-app messages,
calendar events and accounts. Connection settings, credentials and usage
counters persist locally between invocations.

Quick Start:
  kivoctl config set baseUrl http://127.0.0.1:8000
  kivoctl config set apiKey <key>
  kivoctl kb list                       # List knowledge bases
  kivoctl query "What changed in Q3?"   # Ask the active knowledge base
  kivoctl dashboard --range 7d          # Usage overview

For detailed usage, see: https://github.com/kivohq/kivoctl`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
		// A missing .env is fine; explicit settings win over it anyway.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Custom settings database location")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Override the configured API base URL for this run")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Override the configured API key for this run")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openController opens the settings store and assembles the workspace
// session controller. The returned cleanup closes the store.
func openController() (*internal.Controller, func(), error) {
	path := settingsPath
	if path == "" {
		var err error
		path, err = internal.DefaultSettingsPath()
		if err != nil {
			return nil, nil, err
		}
	}
	store, err := internal.OpenSettings(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open settings: %w", err)
	}
	notifier := internal.NewNotifier()
	notifier.SetOutput(os.Stderr)
	controller := internal.NewController(store, notifier)
	controller.OverrideConnection(baseURLFlag, apiKeyFlag)
	cleanup := func() {
		if err := store.Close(); err != nil {
			internal.LogWarn("Failed to close settings store: %v", err)
		}
	}
	return controller, cleanup, nil
}

// confirm asks for explicit confirmation before a destructive action.
// The --yes flag bypasses the prompt.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	if assumeYes {
		return true
	}
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return parseConfirmation(line)
}

// parseConfirmation interprets a confirmation reply; only an explicit yes
// proceeds.
func parseConfirmation(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
