package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/wishlist-sync/internal/db"
	"github.com/jonathan/wishlist-sync/internal/observability"
	"github.com/jonathan/wishlist-sync/internal/pipeline"
	"github.com/jonathan/wishlist-sync/internal/poller"
	"github.com/jonathan/wishlist-sync/internal/raidbots"
	"github.com/jonathan/wishlist-sync/internal/staleness"
	"github.com/jonathan/wishlist-sync/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Sim every stale wishlist cell and upload the results",
	Long: `Resolves the team region, raids, difficulties and wishlist history from WoWAudit, then
processes every eligible character concurrently: for each stale (raid, difficulty) cell it
launches one Droptimizer sim per configured settings entry, waits for it and uploads the
report. Requires Chrome/Chromium for the Raidbots submission.`,
	RunE: runSyncCmd,
}

var runSelection *selectionFlags

func init() {
	runSelection = addSelectionFlags(runCommand)
	addDatabaseFlag(runCommand, &runSelection.databaseURL)

	rootCmd.AddCommand(runCommand)
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := loadRuntime(cmd, runSelection, os.Environ())
	if err != nil {
		return err
	}
	cfg, logger := rt.cfg, rt.logger

	plan, err := pipeline.Prepare(ctx, rt.roster, rt.configs, logger)
	if err != nil {
		logger.Error("run aborted before character processing", "error", err)
		return err
	}

	ledger, runID, finish := openLedger(ctx, cfg.DatabaseURL, plan.Region, logger)
	if runID != uuid.Nil {
		logger = logger.With("run_id", runID.String())
	}

	status := raidbots.NewStatusClient(&raidbots.Options{
		BaseURL:   cfg.RaidbotsBaseURL,
		UserAgent: cfg.UserAgent,
	})
	waiter := poller.New(status, poller.Options{
		Interval: cfg.PollInterval(),
		MaxWait:  cfg.MaxPollWait(),
	}, logger)
	launcher := raidbots.NewBrowserLauncher(&raidbots.BrowserOptions{
		BaseURL:   cfg.RaidbotsBaseURL,
		Timeout:   cfg.BrowserTimeout(),
		StepDelay: cfg.BrowserStepDelay(),
		Headless:  true,
	}, logger)

	characterPipeline := pipeline.NewCharacterPipeline(launcher, waiter, rt.roster, ledger,
		staleness.NewEvaluator(cfg.MaxAge()), cfg.SkipPolicy, logger)
	scheduler := pipeline.NewScheduler(characterPipeline, schedulerOptions(cfg), logger)

	report, err := scheduler.Run(ctx, plan)
	if err != nil {
		finish(db.RunStatusAborted, nil)
		logger.Error("run aborted before character processing", "error", err)
		return err
	}

	runStatus := db.RunStatusCompleted
	if report.Interrupted() {
		runStatus = db.RunStatusAborted
	}
	finish(runStatus, runSummary(report))

	observability.NewPrinter(cmd.OutOrStdout()).PrintRunReport(report)
	return ctx.Err()
}

// openLedger connects the optional run ledger. Database problems never stop a
// run; the ledger silently degrades to a no-op.
func openLedger(ctx context.Context, databaseURL, region string, logger *slog.Logger) (pipeline.Ledger, uuid.UUID, func(status string, summary any)) {
	noop := func(string, any) {}
	if databaseURL == "" {
		return pipeline.NopLedger{}, uuid.Nil, noop
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		logger.Warn("failed to connect to database, continuing without run ledger", "error", err)
		return pipeline.NopLedger{}, uuid.Nil, noop
	}
	if err := database.Migrate(ctx); err != nil {
		logger.Warn("failed to migrate database, continuing without run ledger", "error", err)
		database.Close()
		return pipeline.NopLedger{}, uuid.Nil, noop
	}
	runID, err := database.CreateRun(ctx, region)
	if err != nil || runID == uuid.Nil {
		logger.Warn("failed to create run, continuing without run ledger", "error", err)
		database.Close()
		return pipeline.NopLedger{}, uuid.Nil, noop
	}
	logger.Debug("created run", "run_id", runID)

	finish := func(status string, summary any) {
		defer database.Close()
		if err := database.CompleteRun(context.WithoutCancel(ctx), runID, status, summary); err != nil {
			logger.Warn("failed to complete run", "run_id", runID, "error", err)
		}
	}
	return database.Ledger(runID), runID, finish
}

func runSummary(report *pipeline.RunReport) map[string]int {
	summary := map[string]int{
		"characters": len(report.Characters),
		"excluded":   len(report.Excluded),
	}
	for _, outcome := range types.Outcomes {
		summary[string(outcome)] = report.Total(outcome)
	}
	return summary
}
