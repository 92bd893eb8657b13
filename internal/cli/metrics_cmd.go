package cli

import (
	"context"
	"fmt"

	"estuda/internal/cli/formatter"
	"estuda/internal/ledger"

	"github.com/spf13/cobra"
)

func newMetricsCmd(app *App) *cobra.Command {
	var plain bool
	var window int

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show study metrics and the current streak",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			snap, err := app.Tasks.ComputeMetrics(ctx, window)
			if err != nil {
				return err
			}
			snap.PlansCompleted, err = app.Plans.CompletedCount(ctx)
			if err != nil {
				return err
			}

			if plain || (app.IsInteractive != nil && !app.IsInteractive()) {
				fmt.Print(formatter.FormatMetricsPlain(snap))
				return nil
			}
			fmt.Print(formatter.FormatMetrics(snap))
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Plain key/value output")
	cmd.Flags().IntVar(&window, "window", ledger.MetricsWindowDays, "Rolling window in days for hour totals")

	return cmd
}
