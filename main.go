package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// rootCmd is the parley binary. Without a subcommand it prints help.
var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley chat backend",
	Long: `Parley stores conversations, messages, artifacts, projects and folders
in a local database and serves them over an HTTP API with read-only
server-rendered pages.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8088", "base URL of a running parley server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
