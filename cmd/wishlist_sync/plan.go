package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/wishlist-sync/internal/observability"
	"github.com/jonathan/wishlist-sync/internal/pipeline"
	"github.com/jonathan/wishlist-sync/internal/staleness"
)

var planCommand = &cobra.Command{
	Use:   "plan",
	Short: "Show which cells a run would sim, without launching anything",
	Long: `Resolves the same metadata as run and prints, for every selected character, the
decision taken for each (raid, difficulty) cell and how many sims it would launch.
Nothing is submitted to Raidbots or uploaded to WoWAudit.`,
	RunE: runPlanCmd,
}

var planSelection *selectionFlags

func init() {
	planSelection = addSelectionFlags(planCommand)
	rootCmd.AddCommand(planCommand)
}

func runPlanCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := loadRuntime(cmd, planSelection, os.Environ())
	if err != nil {
		return err
	}

	plan, err := pipeline.Prepare(ctx, rt.roster, rt.configs, rt.logger)
	if err != nil {
		return err
	}

	selected, excluded, err := pipeline.SelectCharacters(plan.Characters, schedulerOptions(rt.cfg))
	if err != nil {
		return err
	}

	// Planning only evaluates cells; no launcher, waiter or uploader is needed.
	planner := pipeline.NewCharacterPipeline(nil, nil, nil, nil,
		staleness.NewEvaluator(rt.cfg.MaxAge()), rt.cfg.SkipPolicy, rt.logger)

	characters := make([]observability.CharacterPlan, 0, len(selected))
	for _, c := range selected {
		characters = append(characters, observability.CharacterPlan{
			Character: c,
			Cells:     planner.PlanCells(plan, c),
		})
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintPlan(plan, characters, excluded)
	return nil
}
