// Package planner owns the lifecycle of generated study plans: generation
// from the remote service, the active and completed sets, and the
// explicit expansion of a plan's day-tasks into ledger tasks.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estuda/internal/domain"
	"estuda/internal/ledger"
	"estuda/internal/llm"
	"estuda/internal/store"

	"github.com/google/uuid"
)

// ErrPlanNotFound indicates the plan is not in the active set.
var ErrPlanNotFound = errors.New("plan not found in active set")

// PlanFormatError indicates the service response could not be parsed into
// the plan shape. Carries a preview of the raw response so the caller can
// show the user what came back before they retry.
type PlanFormatError struct {
	Preview string
	Err     error
}

func (e *PlanFormatError) Error() string {
	return fmt.Sprintf("plan response could not be parsed: %v (response starts: %q)", e.Err, e.Preview)
}

func (e *PlanFormatError) Unwrap() error { return e.Err }

const previewLen = 160

const maxMutationAttempts = 3

func errMissingField(name string) error {
	return fmt.Errorf("missing required field %q", name)
}

func errMissingTaskField(i int, name string) error {
	return fmt.Errorf("task %d missing required field %q", i, name)
}

// Registry manages the active and completed plan sets.
type Registry struct {
	kv     store.TxKV
	client llm.Client
	tasks  *ledger.Ledger
	now    func() time.Time
}

// New creates a Registry. client may be nil when generation is not
// configured; Generate then fails with the client's missing-key error.
func New(kv store.TxKV, client llm.Client, tasks *ledger.Ledger) *Registry {
	return &Registry{kv: kv, client: client, tasks: tasks, now: time.Now}
}

// Generate asks the text-generation service for a study plan, validates
// the structured response, and appends the plan to the active set.
// Service failures surface after the client's retry budget; a response
// that cannot be parsed into the plan shape surfaces as *PlanFormatError.
func (r *Registry) Generate(ctx context.Context, prompt string) (*domain.Plan, error) {
	resp, err := r.client.Generate(ctx, llm.GenerateRequest{
		Task:           llm.TaskPlan,
		SystemPrompt:   planSystemPrompt,
		UserPrompt:     prompt,
		ResponseSchema: planResponseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("generating plan: %w", err)
	}

	payload, err := llm.ExtractJSON[planPayload](resp.Text, validatePlanPayload)
	if err != nil {
		return nil, &PlanFormatError{Preview: preview(resp.Text), Err: err}
	}

	plan := &domain.Plan{
		ID:              uuid.New().String(),
		PlanGoal:        payload.PlanGoal,
		DurationSummary: payload.DurationSummary,
		CreatedAt:       r.now().UTC(),
	}
	for _, t := range payload.Tasks {
		plan.Tasks = append(plan.Tasks, domain.PlanTask{
			Day:        t.Day,
			Date:       t.Date,
			Topic:      t.Topic,
			TimeSlot:   t.TimeSlot,
			Activities: t.Activities,
		})
	}

	err = r.withConflictRetry(ctx, func() error {
		active, rev, err := store.LoadCollection[domain.Plan](ctx, r.kv, store.KeyPlansActive)
		if err != nil {
			return err
		}
		active = append(active, *plan)
		_, err = store.SaveCollection(ctx, r.kv, store.KeyPlansActive, active, rev)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}
	return plan, nil
}

// Complete moves plan from the active set to the completed set, stamped
// with a completion timestamp. The move is a single store transaction:
// the plan is never observable in both sets or in neither.
func (r *Registry) Complete(ctx context.Context, plan *domain.Plan) error {
	completedAt := r.now().UTC()

	err := r.withConflictRetry(ctx, func() error {
		return r.kv.WithinTx(ctx, func(ctx context.Context, tx store.KV) error {
			active, activeRev, err := store.LoadCollection[domain.Plan](ctx, tx, store.KeyPlansActive)
			if err != nil {
				return err
			}

			idx := -1
			for i := range active {
				if active[i].Matches(plan) {
					idx = i
					break
				}
			}
			if idx == -1 {
				return fmt.Errorf("plan %q: %w", plan.PlanGoal, ErrPlanNotFound)
			}

			moved := active[idx]
			moved.CompletedAt = &completedAt
			active = append(active[:idx], active[idx+1:]...)

			completed, completedRev, err := store.LoadCollection[domain.Plan](ctx, tx, store.KeyPlansCompleted)
			if err != nil {
				return err
			}
			completed = append(completed, moved)

			if _, err := store.SaveCollection(ctx, tx, store.KeyPlansActive, active, activeRev); err != nil {
				return err
			}
			_, err = store.SaveCollection(ctx, tx, store.KeyPlansCompleted, completed, completedRev)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return err
		}
		return fmt.Errorf("completing plan: %w", err)
	}
	return nil
}

// ExpandToTasks converts each of the plan's day-tasks into a ledger task,
// deriving the hour estimate from its time slot, and records a
// plan-sourced provenance marker per created task. This is an explicit
// user action; completing a plan never expands it implicitly.
func (r *Registry) ExpandToTasks(ctx context.Context, plan *domain.Plan) ([]*domain.Task, error) {
	var created []*domain.Task
	var provenance []domain.ProvenanceRecord
	now := r.now().UTC()

	for _, pt := range plan.Tasks {
		text := pt.Topic
		if text == "" {
			text = pt.Activities
		}
		task, err := r.tasks.AddTask(ctx, text, HoursFromTimeSlot(pt.TimeSlot))
		if err != nil {
			return created, fmt.Errorf("expanding plan task %q: %w", pt.Topic, err)
		}
		created = append(created, task)
		provenance = append(provenance, domain.ProvenanceRecord{
			TaskID:    task.ID,
			PlanGoal:  plan.PlanGoal,
			Day:       pt.Day,
			CreatedAt: now,
		})
	}

	err := r.withConflictRetry(ctx, func() error {
		records, rev, err := store.LoadCollection[domain.ProvenanceRecord](ctx, r.kv, store.KeyProvenance)
		if err != nil {
			return err
		}
		records = append(records, provenance...)
		_, err = store.SaveCollection(ctx, r.kv, store.KeyProvenance, records, rev)
		return err
	})
	if err != nil {
		return created, fmt.Errorf("recording plan provenance: %w", err)
	}
	return created, nil
}

// Active returns the active plan set.
func (r *Registry) Active(ctx context.Context) ([]domain.Plan, error) {
	plans, _, err := store.LoadCollection[domain.Plan](ctx, r.kv, store.KeyPlansActive)
	if err != nil {
		return nil, fmt.Errorf("loading active plans: %w", err)
	}
	return plans, nil
}

// Completed returns the completed plan set.
func (r *Registry) Completed(ctx context.Context) ([]domain.Plan, error) {
	plans, _, err := store.LoadCollection[domain.Plan](ctx, r.kv, store.KeyPlansCompleted)
	if err != nil {
		return nil, fmt.Errorf("loading completed plans: %w", err)
	}
	return plans, nil
}

// Provenance returns the plan-sourced task markers.
func (r *Registry) Provenance(ctx context.Context) ([]domain.ProvenanceRecord, error) {
	records, _, err := store.LoadCollection[domain.ProvenanceRecord](ctx, r.kv, store.KeyProvenance)
	if err != nil {
		return nil, fmt.Errorf("loading provenance: %w", err)
	}
	return records, nil
}

// CompletedCount returns the number of completed plans, for the dashboard.
func (r *Registry) CompletedCount(ctx context.Context) (int, error) {
	plans, err := r.Completed(ctx)
	if err != nil {
		return 0, err
	}
	return len(plans), nil
}

func (r *Registry) withConflictRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn()
		if !errors.Is(err, store.ErrRevisionConflict) {
			return err
		}
	}
	return err
}

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "…"
}
