package domain

import "time"

// Task is a unit of study work in the pending collection.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Hours       float64    `json:"hours"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CompletionEvent is an immutable history record appended when a task is
// marked complete. For a given TaskID at most one event may ever carry
// Counted = true; the aggregator only looks at counted events.
type CompletionEvent struct {
	ID      string    `json:"id"`
	TaskID  string    `json:"taskId"`
	Text    string    `json:"text"`
	Hours   float64   `json:"hours"`
	Date    time.Time `json:"date"`
	Counted bool      `json:"counted"`
}

// ProvenanceRecord marks a task as plan-sourced, written when a plan is
// expanded into ledger tasks.
type ProvenanceRecord struct {
	TaskID    string    `json:"taskId"`
	PlanGoal  string    `json:"planGoal"`
	Day       string    `json:"day"`
	CreatedAt time.Time `json:"createdAt"`
}
