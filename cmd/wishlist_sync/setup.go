package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jonathan/wishlist-sync/internal/config"
	"github.com/jonathan/wishlist-sync/internal/pipeline"
	"github.com/jonathan/wishlist-sync/internal/settings"
	"github.com/jonathan/wishlist-sync/internal/types"
	"github.com/jonathan/wishlist-sync/internal/wowaudit"
)

// selectionFlags are the per-command overrides of run and plan. They override
// the environment only when set explicitly.
type selectionFlags struct {
	skipPolicy     string
	single         string
	maxConcurrency int
	databaseURL    string
}

func addSelectionFlags(cmd *cobra.Command) *selectionFlags {
	sel := &selectionFlags{}
	cmd.Flags().StringVar(&sel.skipPolicy, "skip-policy", "", "What an up-to-date cell skips: continue or break_raid (defaults to SKIP_POLICY)")
	cmd.Flags().StringVar(&sel.single, "single", "", "Process only this character (Name or Name-Realm); empty picks the first eligible")
	cmd.Flags().IntVar(&sel.maxConcurrency, "max-concurrency", 0, "Characters processed at once, 0 for all (defaults to MAX_CONCURRENCY)")
	return sel
}

func addDatabaseFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "db-url", "", "PostgreSQL connection URL for the run ledger (optional, defaults to DATABASE_URL env var)")
}

// runtimeDeps is everything a roster-backed command needs.
type runtimeDeps struct {
	cfg     config.Config
	configs []types.SimulationConfig
	logger  *slog.Logger
	roster  *wowaudit.Client
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// applyFlagOverrides copies explicitly set flags over the environment config.
func applyFlagOverrides(cmd *cobra.Command, sel *selectionFlags, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("skip-policy") {
		cfg.SkipPolicy = config.SkipPolicy(sel.skipPolicy)
	}
	if flags.Changed("single") {
		cfg.RunMode = config.RunModeSingle
		cfg.SingleCharacter = sel.single
	}
	if flags.Changed("max-concurrency") {
		cfg.MaxConcurrency = sel.maxConcurrency
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = sel.databaseURL
	}
	return cfg.Validate()
}

// loadRuntime validates configuration and the settings matrix before any
// roster call is made.
func loadRuntime(cmd *cobra.Command, sel *selectionFlags, environ []string) (*runtimeDeps, error) {
	cfg, err := config.Load(environ)
	if err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cmd, sel, &cfg); err != nil {
		return nil, err
	}

	configs, err := settings.Build(settings.OverridesFromEnviron(environ))
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)

	roster, err := wowaudit.NewClient(wowaudit.Options{
		BaseURL:           cfg.WowauditBaseURL,
		Token:             cfg.WowauditToken,
		ConfigurationName: cfg.ConfigurationName,
	})
	if err != nil {
		return nil, err
	}

	return &runtimeDeps{cfg: cfg, configs: configs, logger: logger, roster: roster}, nil
}

func schedulerOptions(cfg config.Config) pipeline.SchedulerOptions {
	return pipeline.SchedulerOptions{
		Mode:            cfg.RunMode,
		SingleCharacter: cfg.SingleCharacter,
		ExcludedRoles:   cfg.ExcludedRoles,
		MaxConcurrency:  cfg.MaxConcurrency,
	}
}
