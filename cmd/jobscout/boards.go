package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/observability"
	"github.com/spf13/cobra"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List the available job boards",
	RunE:  runBoards,
}

var boardsJSON bool

func init() {
	boardsCmd.Flags().BoolVar(&boardsJSON, "json", false, "Print the board profiles as JSON")
	rootCmd.AddCommand(boardsCmd)
}

func runBoards(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	if !boardsJSON {
		observability.NewPrinter(cmd.OutOrStdout()).PrintBoards(registry.Sources())
		return nil
	}

	var profiles []boards.Profile
	for _, s := range registry.Sources() {
		if b, ok := s.(*boards.Board); ok {
			profiles = append(profiles, b.Profile())
		}
	}
	data, err := json.MarshalIndent(boards.ProfileFile{Profiles: profiles}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
