package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/wishlist-sync/internal/observability"
	"github.com/jonathan/wishlist-sync/internal/settings"
	"github.com/jonathan/wishlist-sync/internal/types"
)

var matrixCommand = &cobra.Command{
	Use:   "matrix",
	Short: "Print the settings matrix built from DROPTIMIZER_* variables",
	Long: `Builds the simulation settings from the DROPTIMIZER_<index>_<FIELD> environment variables
and prints the expanded list for each difficulty. Works offline; no API token is needed.`,
	RunE: runMatrixCmd,
}

var matrixDifficulties []string

func init() {
	matrixCommand.Flags().StringSliceVarP(&matrixDifficulties, "difficulties", "d",
		[]string{"normal", "heroic", "mythic"}, "Difficulties to expand the matrix for")
	rootCmd.AddCommand(matrixCommand)
}

func runMatrixCmd(cmd *cobra.Command, _ []string) error {
	configs, err := settings.Build(settings.OverridesFromEnviron(os.Environ()))
	if err != nil {
		return err
	}

	difficulties := make([]types.Difficulty, 0, len(matrixDifficulties))
	for _, d := range matrixDifficulties {
		difficulties = append(difficulties, types.Difficulty(d))
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintMatrix(difficulties, settings.Expand(configs, difficulties))
	return nil
}
