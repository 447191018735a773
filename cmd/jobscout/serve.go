package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/jobscout/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort          int
	serveSearchTimeout string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes job searches and board listings as REST endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveSearchTimeout, "search-timeout", "2m", "Upper bound for a single search request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	timeout, err := parsePositiveDuration(serveSearchTimeout)
	if err != nil {
		return fmt.Errorf("invalid --search-timeout: %w", err)
	}

	st, err := buildStack(context.Background(), cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:          servePort,
		Coordinator:   st.coordinator,
		SearchTimeout: timeout,
		OnShutdown:    []func(){st.Close},
	})
	if err != nil {
		st.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", s)
	}
	return d, nil
}
