package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/jobscout/internal/boards"
	"github.com/jonathan/jobscout/internal/config"
	"github.com/jonathan/jobscout/internal/db"
	"github.com/jonathan/jobscout/internal/fetch"
	"github.com/jonathan/jobscout/internal/scraping"
	"github.com/spf13/cobra"
)

// resolveConfig loads the config file, then environment variables, then
// explicitly set flags, and fills the rest from config.Defaults().
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("profiles") {
		cfg.ProfilesFile = profilesPath
	}
	if flags.Changed("browser") {
		cfg.UseBrowser = useBrowser
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = databaseURL
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Verbose && configPath != "" {
		log.Printf("Loaded config from: %s", configPath)
	}
	return cfg, nil
}

// stack is the fetch pipeline and coordinator built from a Config, plus the
// resources to release when done.
type stack struct {
	coordinator *scraping.Coordinator
	closers     []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// buildRegistry returns the built-in boards, with profiles from
// cfg.ProfilesFile replacing or extending them.
func buildRegistry(cfg config.Config) (*boards.Registry, error) {
	registry := boards.Default()
	if cfg.ProfilesFile == "" {
		return registry, nil
	}
	loaded, err := boards.LoadFile(cfg.ProfilesFile)
	if err != nil {
		return nil, err
	}
	return registry.With(boards.Sources(loaded)...), nil
}

// buildStack wires HTTP fetching, per-host throttling, the optional page
// cache and the optional browser into a coordinator.
func buildStack(ctx context.Context, cfg config.Config) (*stack, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	opts := &fetch.Options{
		Timeout:   cfg.TimeoutDuration(),
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
		Verbose:   cfg.Verbose,
	}

	st := &stack{}
	var fetcher fetch.Fetcher = fetch.NewThrottled(fetch.NewHTTPFetcher(opts), cfg.RatePerSecond, cfg.Burst)

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to prepare page cache: %w", err)
		}
		st.closers = append(st.closers, database.Close)
		fetcher = fetch.NewCachedFetcher(fetcher, database, &fetch.CachedFetcherConfig{
			CacheTTL: cfg.CacheTTLDuration(),
			Verbose:  cfg.Verbose,
		})
	}

	coordOpts := &scraping.CoordinatorOptions{
		Loop: scraping.LoopOptions{
			MaxPages:  cfg.MaxPages,
			PageDelay: cfg.PageDelayDuration(),
			Verbose:   cfg.Verbose,
		},
	}
	if cfg.UseBrowser {
		browser := fetch.NewBrowserFetcher(opts)
		st.closers = append(st.closers, browser.Close)
		// Browser pages are throttled with the same budget as plain requests
		coordOpts.Browser = fetch.NewThrottled(browser, cfg.RatePerSecond, cfg.Burst)
	}

	st.coordinator = scraping.NewCoordinator(registry, fetcher, coordOpts)
	return st, nil
}
