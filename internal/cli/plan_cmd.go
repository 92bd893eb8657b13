package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estuda/internal/cli/formatter"
	"estuda/internal/domain"
	"estuda/internal/llm"
	"estuda/internal/planner"

	"github.com/spf13/cobra"
)

// resolveActivePlan matches user input against the active set: exact id,
// id prefix, then case-insensitive goal substring.
func resolveActivePlan(ctx context.Context, app *App, input string) (*domain.Plan, error) {
	if input == "" {
		return nil, fmt.Errorf("plan ID or goal is required")
	}

	plans, err := app.Plans.Active(ctx)
	if err != nil {
		return nil, err
	}

	for i := range plans {
		if plans[i].ID == input {
			return &plans[i], nil
		}
	}

	var matches []*domain.Plan
	for i := range plans {
		if strings.HasPrefix(plans[i].ID, input) {
			matches = append(matches, &plans[i])
		}
	}
	if len(matches) == 0 {
		lowered := strings.ToLower(input)
		for i := range plans {
			if strings.Contains(strings.ToLower(plans[i].PlanGoal), lowered) {
				matches = append(matches, &plans[i])
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("active plan not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("plan reference %q is ambiguous (%d matches)", input, len(matches))
	}
}

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate and manage study plans",
	}

	cmd.AddCommand(
		newPlanGenerateCmd(app),
		newPlanListCmd(app),
		newPlanShowCmd(app),
		newPlanCompleteCmd(app),
		newPlanExpandCmd(app),
	)

	return cmd
}

func newPlanGenerateCmd(app *App) *cobra.Command {
	var links bool

	cmd := &cobra.Command{
		Use:   `generate "<goal>"`,
		Short: "Generate a study plan from a goal description",
		Long:  "Ask the model for a day-by-day study plan and store it in the active set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.Plans.Generate(context.Background(), args[0])
			if err != nil {
				if errors.Is(err, llm.ErrMissingAPIKey) {
					return fmt.Errorf("plan generation needs an API key. Set ESTUDA_API_KEY to enable it")
				}
				var formatErr *planner.PlanFormatError
				if errors.As(err, &formatErr) {
					return fmt.Errorf("the model returned an unusable plan (starts with %q). Try rephrasing the goal", formatErr.Preview)
				}
				return fmt.Errorf("generating plan: %w", err)
			}

			fmt.Print(formatter.FormatPlan(plan, links))
			return nil
		},
	}

	cmd.Flags().BoolVar(&links, "links", false, "Print a Google Calendar link per task")

	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	var completed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List study plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if completed {
				plans, err := app.Plans.Completed(ctx)
				if err != nil {
					return err
				}
				fmt.Print(formatter.FormatPlanList("Completed plans", plans))
				return nil
			}

			plans, err := app.Plans.Active(ctx)
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatPlanList("Active plans", plans))
			return nil
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Show completed plans instead of active ones")

	return cmd
}

func newPlanShowCmd(app *App) *cobra.Command {
	var links bool

	cmd := &cobra.Command{
		Use:   "show PLAN",
		Short: "Show a plan's day-by-day schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plan, err := resolveActivePlan(ctx, app, args[0])
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatPlan(plan, links))
			return nil
		},
	}

	cmd.Flags().BoolVar(&links, "links", false, "Print a Google Calendar link per task")

	return cmd
}

func newPlanCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete PLAN",
		Short: "Move an active plan to the completed set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plan, err := resolveActivePlan(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Plans.Complete(ctx, plan); err != nil {
				return err
			}
			fmt.Printf("Completed plan %q\n", plan.PlanGoal)
			return nil
		},
	}
}

func newPlanExpandCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "expand PLAN",
		Short: "Turn a plan's schedule into study tasks",
		Long:  "Create one pending task per plan day, with hours derived from the time slot.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			plan, err := resolveActivePlan(ctx, app, args[0])
			if err != nil {
				return err
			}

			tasks, err := app.Plans.ExpandToTasks(ctx, plan)
			if err != nil {
				return err
			}

			fmt.Printf("Created %d tasks from plan %q\n", len(tasks), plan.PlanGoal)
			for _, t := range tasks {
				fmt.Println(formatter.FormatTaskLine(*t))
			}
			return nil
		},
	}
}
