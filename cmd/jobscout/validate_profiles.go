package main

import (
	"fmt"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/schemas"
	"github.com/spf13/cobra"
)

var validateProfilesCmd = &cobra.Command{
	Use:   "validate-profiles <file>",
	Short: "Check a board profiles file",
	Long: `Validates a JSON or YAML board profiles file against the built-in schema and
compiles every selector and URL in it. --schema additionally validates a JSON
file against a schema on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateProfiles,
}

var validateSchemaPath string

func init() {
	validateProfilesCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Optional JSON Schema file to validate against as well")
	rootCmd.AddCommand(validateProfilesCmd)
}

func runValidateProfiles(cmd *cobra.Command, args []string) error {
	path := args[0]

	if validateSchemaPath != "" {
		if err := schemas.ValidateJSON(validateSchemaPath, path); err != nil {
			return err
		}
	}

	loaded, err := boards.LoadFile(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, b := range loaded {
		p := b.Profile()
		_, _ = fmt.Fprintf(out, "✓ %s (%s)\n", p.Name, p.BaseURL)
	}
	_, _ = fmt.Fprintf(out, "%s: %d profiles OK\n", path, len(loaded))
	return nil
}
