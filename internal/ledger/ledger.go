// Package ledger owns the pending task collection and the append-only
// completion history. It is the only writer of those collections; the
// dashboard and planner reach them through this package.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"estuda/internal/domain"
	"estuda/internal/metrics"
	"estuda/internal/store"

	"github.com/google/uuid"
)

// ErrValidation indicates bad user input: blank task text or a
// non-positive hour estimate. Never retried, surfaced inline.
var ErrValidation = errors.New("invalid input")

// maxMutationAttempts bounds the re-read/re-apply loop on revision
// conflicts. Conflicts only arise when another surface committed between
// our read and write, so one or two retries settle it.
const maxMutationAttempts = 3

// MetricsWindowDays is the rolling window the dashboard uses.
const MetricsWindowDays = 7

// Ledger records study tasks and their completion against a keyed store.
type Ledger struct {
	kv  store.KV
	now func() time.Time
}

// New creates a Ledger over the given store.
func New(kv store.KV) *Ledger {
	return &Ledger{kv: kv, now: time.Now}
}

// ParseHours parses a user-entered hour estimate. Accepts a decimal comma
// as well as a decimal point.
func ParseHours(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	h, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("hours %q is not a number: %w", s, ErrValidation)
	}
	return h, nil
}

// AddTask validates and prepends a new pending task, then persists the
// collection.
func (l *Ledger) AddTask(ctx context.Context, text string, hours float64) (*domain.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("task text must not be empty: %w", ErrValidation)
	}
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return nil, fmt.Errorf("hours must be a positive number: %w", ErrValidation)
	}

	task := &domain.Task{
		ID:        uuid.New().String(),
		Text:      text,
		Hours:     hours,
		CreatedAt: l.now().UTC(),
	}

	err := l.withConflictRetry(ctx, func() error {
		tasks, rev, err := store.LoadCollection[domain.Task](ctx, l.kv, store.KeyTasks)
		if err != nil {
			return err
		}
		tasks = append([]domain.Task{*task}, tasks...)
		_, err = store.SaveCollection(ctx, l.kv, store.KeyTasks, tasks, rev)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("adding task: %w", err)
	}
	return task, nil
}

// CompleteTask marks the task done and appends a counted completion event.
// A silent no-op when the id is unknown or a counted event already exists
// for it: completing twice can never double-count.
//
// Writes are ordered history-first, task-state-second. Once the counted
// event is durable a failure updating the task collection leaves the
// system consistent with the invariant (the event exists whenever the
// completed flag is visible), just with the flag lagging.
func (l *Ledger) CompleteTask(ctx context.Context, id string) error {
	now := l.now().UTC()
	var event *domain.CompletionEvent

	err := l.withConflictRetry(ctx, func() error {
		event = nil
		events, historyRev, err := store.LoadCollection[domain.CompletionEvent](ctx, l.kv, store.KeyHistory)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if ev.TaskID == id && ev.Counted {
				return nil // already counted
			}
		}

		tasks, _, err := store.LoadCollection[domain.Task](ctx, l.kv, store.KeyTasks)
		if err != nil {
			return err
		}
		task := findTask(tasks, id)
		if task == nil {
			return nil // unknown id
		}

		event = &domain.CompletionEvent{
			ID:      uuid.New().String(),
			TaskID:  task.ID,
			Text:    task.Text,
			Hours:   task.Hours,
			Date:    now,
			Counted: true,
		}
		events = append(events, *event)
		_, err = store.SaveCollection(ctx, l.kv, store.KeyHistory, events, historyRev)
		return err
	})
	if err != nil {
		return fmt.Errorf("recording completion: %w", err)
	}
	if event == nil {
		return nil
	}

	err = l.withConflictRetry(ctx, func() error {
		tasks, rev, err := store.LoadCollection[domain.Task](ctx, l.kv, store.KeyTasks)
		if err != nil {
			return err
		}
		task := findTask(tasks, id)
		if task == nil || task.Completed {
			return nil
		}
		task.Completed = true
		completedAt := now
		task.CompletedAt = &completedAt
		_, err = store.SaveCollection(ctx, l.kv, store.KeyTasks, tasks, rev)
		return err
	})
	if err != nil {
		return fmt.Errorf("updating task state: %w", err)
	}
	return nil
}

// DeleteTask removes the task from the pending collection. Completion
// events already recorded for it are immutable and stay untouched, so
// deleting a completed task never un-counts it.
func (l *Ledger) DeleteTask(ctx context.Context, id string) error {
	err := l.withConflictRetry(ctx, func() error {
		tasks, rev, err := store.LoadCollection[domain.Task](ctx, l.kv, store.KeyTasks)
		if err != nil {
			return err
		}
		kept := tasks[:0]
		for _, t := range tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		if len(kept) == len(tasks) {
			return nil
		}
		_, err = store.SaveCollection(ctx, l.kv, store.KeyTasks, kept, rev)
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

// ComputeMetrics recomputes the dashboard snapshot from the full history.
func (l *Ledger) ComputeMetrics(ctx context.Context, windowDays int) (*domain.MetricsSnapshot, error) {
	events, _, err := store.LoadCollection[domain.CompletionEvent](ctx, l.kv, store.KeyHistory)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	snap := metrics.Aggregate(events, l.now(), windowDays)
	return &snap, nil
}

// Tasks returns the current pending collection, most recent first.
func (l *Ledger) Tasks(ctx context.Context) ([]domain.Task, error) {
	tasks, _, err := store.LoadCollection[domain.Task](ctx, l.kv, store.KeyTasks)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	return tasks, nil
}

// History returns the full completion event history.
func (l *Ledger) History(ctx context.Context) ([]domain.CompletionEvent, error) {
	events, _, err := store.LoadCollection[domain.CompletionEvent](ctx, l.kv, store.KeyHistory)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return events, nil
}

// withConflictRetry runs fn, re-running the whole read-modify-write when
// it loses a revision race. fn must re-read inside each attempt.
func (l *Ledger) withConflictRetry(ctx context.Context, fn func() error) error {
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

func findTask(tasks []domain.Task, id string) *domain.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}
