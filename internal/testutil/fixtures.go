package testutil

import (
	"time"

	"estuda/internal/domain"

	"github.com/google/uuid"
)

// Plan options
type PlanOption func(*domain.Plan)

func WithPlanTasks(tasks ...domain.PlanTask) PlanOption {
	return func(p *domain.Plan) {
		p.Tasks = tasks
	}
}

func WithDurationSummary(s string) PlanOption {
	return func(p *domain.Plan) {
		p.DurationSummary = s
	}
}

func NewTestPlan(goal string, opts ...PlanOption) *domain.Plan {
	p := &domain.Plan{
		ID:              uuid.New().String(),
		PlanGoal:        goal,
		DurationSummary: "5 dias",
		Tasks: []domain.PlanTask{
			{Day: "Dia 1", Date: "2026-08-29", Topic: "Frações", TimeSlot: "20:00-21:00", Activities: "Introdução a frações"},
			{Day: "Dia 2", Date: "2026-08-30", Topic: "Frações equivalentes", TimeSlot: "20:00-21:30", Activities: "Exercícios"},
		},
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlanTask options
func NewTestPlanTask(topic, timeSlot string) domain.PlanTask {
	return domain.PlanTask{
		Day:        "Dia 1",
		Date:       "2026-08-29",
		Topic:      topic,
		TimeSlot:   timeSlot,
		Activities: "Atividades de " + topic,
	}
}

// CompletionEvent options
type EventOption func(*domain.CompletionEvent)

func WithEventDate(d time.Time) EventOption {
	return func(ev *domain.CompletionEvent) {
		ev.Date = d
	}
}

func WithCounted(counted bool) EventOption {
	return func(ev *domain.CompletionEvent) {
		ev.Counted = counted
	}
}

func NewTestEvent(taskID string, hours float64, opts ...EventOption) domain.CompletionEvent {
	ev := domain.CompletionEvent{
		ID:      uuid.New().String(),
		TaskID:  taskID,
		Text:    "study",
		Hours:   hours,
		Date:    time.Now().UTC(),
		Counted: true,
	}
	for _, opt := range opts {
		opt(&ev)
	}
	return ev
}
