// Package main provides the jobscout command line: multi-board job searches
// and the HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Search job boards from the command line or over HTTP",
	Long: `jobscout queries several job boards at once, follows their pagination and
detail pages, and returns normalized postings. Boards are described by
profiles; extra profiles can be loaded from a JSON or YAML file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath   string
	profilesPath string
	useBrowser   bool
	verbose      bool
	databaseURL  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or TOML config file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().StringVar(&profilesPath, "profiles", "", "Path to extra board profiles (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&useBrowser, "browser", false, "Use headless Chrome for boards that need JavaScript")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db-url", "", "PostgreSQL URL for the page cache (optional, defaults to JOBSCOUT_DATABASE_URL)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
