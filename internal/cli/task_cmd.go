package cli

import (
	"context"
	"fmt"
	"strings"

	"estuda/internal/cli/formatter"
	"estuda/internal/domain"
	"estuda/internal/ledger"

	"github.com/spf13/cobra"
)

// resolveTaskID matches user input against the pending collection: exact
// id first, then unambiguous prefix.
func resolveTaskID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("task ID is required")
	}

	tasks, err := app.Tasks.Tasks(ctx)
	if err != nil {
		return "", err
	}

	for _, t := range tasks {
		if t.ID == input {
			return t.ID, nil
		}
	}

	var matches []string
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, input) {
			matches = append(matches, t.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("task not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("task ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage study tasks",
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskDoneCmd(app),
		newTaskRemoveCmd(app),
	)

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var text, hoursStr string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a study task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				if app.IsInteractive != nil && !app.IsInteractive() {
					return fmt.Errorf("--interactive requires a terminal")
				}
				if err := taskAddForm(&text, &hoursStr).Run(); err != nil {
					return err
				}
				if hoursStr == "" {
					hoursStr = "1"
				}
			}

			if text == "" {
				return fmt.Errorf("task text is required (use --text or --interactive)")
			}
			hours, err := ledger.ParseHours(hoursStr)
			if err != nil {
				return err
			}

			task, err := app.Tasks.AddTask(context.Background(), text, hours)
			if err != nil {
				return err
			}

			fmt.Printf("Added task %s: %s\n", formatter.ShortID(task.ID), task.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Task description")
	cmd.Flags().StringVar(&hoursStr, "hours", "1", "Estimated hours (accepts decimal comma, e.g. 1,5)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for the task fields")

	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List study tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := app.Tasks.Tasks(context.Background())
			if err != nil {
				return err
			}

			if !all {
				pending := make([]domain.Task, 0, len(tasks))
				for _, t := range tasks {
					if !t.Completed {
						pending = append(pending, t)
					}
				}
				tasks = pending
			}

			fmt.Print(formatter.FormatTaskList(tasks))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include completed tasks")

	return cmd
}

func newTaskDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			taskID, err := resolveTaskID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Tasks.CompleteTask(ctx, taskID); err != nil {
				return err
			}
			fmt.Printf("Completed task %s\n", formatter.ShortID(taskID))
			return nil
		},
	}
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Remove a task (completion history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			taskID, err := resolveTaskID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Tasks.DeleteTask(ctx, taskID); err != nil {
				return err
			}
			fmt.Printf("Removed task %s\n", formatter.ShortID(taskID))
			return nil
		},
	}
}
