package cli

import (
	"estuda/internal/ledger"
	"estuda/internal/planner"
	"estuda/internal/tutor"

	"github.com/spf13/cobra"
)

// App holds references to the services used by CLI commands. Tutor is
// nil when no API key is configured; commands that need it degrade with
// an explanatory error.
type App struct {
	Tasks *ledger.Ledger
	Plans *planner.Registry
	Tutor *tutor.Service

	// IsInteractive reports whether stdin is attached to a terminal.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "estuda" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "estuda",
		Short: "Study task ledger, plan generator and progress metrics",
	}

	root.AddCommand(
		newTaskCmd(app),
		newPlanCmd(app),
		newMetricsCmd(app),
		newChatCmd(app),
		newDashboardCmd(app),
	)

	return root
}
