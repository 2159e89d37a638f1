package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/wishlist-sync/internal/config"
	"github.com/jonathan/wishlist-sync/internal/db"
	"github.com/jonathan/wishlist-sync/internal/observability"
	"github.com/jonathan/wishlist-sync/internal/types"
)

var runsCommand = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded runs, or show the cells of one run",
	Long: `Reads the run ledger written by run. Without an argument it lists the most recent
runs; with a run ID it prints every recorded cell of that run, optionally filtered by
outcome. Requires DATABASE_URL or --db-url.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRunsCmd,
}

var (
	runsDatabaseURL string
	runsLimit       int
	runsOutcome     string
)

func init() {
	addDatabaseFlag(runsCommand, &runsDatabaseURL)
	runsCommand.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to list")
	runsCommand.Flags().StringVar(&runsOutcome, "outcome", "", "Only show cells with this outcome ("+outcomeNames()+")")

	rootCmd.AddCommand(runsCommand)
}

// ledgerReader is the read side of the run ledger.
type ledgerReader interface {
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListCells(ctx context.Context, runID uuid.UUID, outcome *types.CellOutcome) ([]db.Cell, error)
}

func runRunsCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadLedger(os.Environ(), runsDatabaseURL)
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	return showRuns(ctx, database, observability.NewPrinter(cmd.OutOrStdout()), args, runsLimit, runsOutcome)
}

func showRuns(ctx context.Context, reader ledgerReader, printer *observability.Printer, args []string, limit int, outcome string) error {
	if len(args) == 0 {
		if limit < 1 {
			return fmt.Errorf("--limit must be at least 1, got %d", limit)
		}
		runs, err := reader.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		printer.PrintRuns(runs)
		return nil
	}

	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	var filter *types.CellOutcome
	if outcome != "" {
		o := types.CellOutcome(outcome)
		if !o.Valid() {
			return fmt.Errorf("unknown outcome %q, expected one of %s", outcome, outcomeNames())
		}
		filter = &o
	}

	run, err := reader.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	cells, err := reader.ListCells(ctx, runID, filter)
	if err != nil {
		return err
	}
	printer.PrintRunCells(run, cells)
	return nil
}

func outcomeNames() string {
	names := make([]string, 0, len(types.Outcomes))
	for _, o := range types.Outcomes {
		names = append(names, string(o))
	}
	return strings.Join(names, ", ")
}
