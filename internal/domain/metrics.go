package domain

// MetricsSnapshot is the derived view consumed by the dashboard. It is
// never persisted: every field is recomputable from the completion event
// history and the plan sets.
type MetricsSnapshot struct {
	TotalStudyHours     float64
	AvgStudyHoursPerDay float64
	TasksCompleted      int
	PlansCompleted      int
	CurrentStreak       int
}
