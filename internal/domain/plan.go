package domain

import "time"

// PlanTask is one descriptive entry of a generated study schedule. It is
// not the same entity as Task: it only becomes a ledger Task through an
// explicit expansion.
type PlanTask struct {
	Day        string `json:"day"`
	Date       string `json:"date"`
	Topic      string `json:"topic"`
	TimeSlot   string `json:"timeSlot"`
	Activities string `json:"activities"`
}

// Plan is a generated study schedule. A plan lives in the active set until
// the user confirms completion, which moves it to the completed set.
type Plan struct {
	ID              string     `json:"id"`
	PlanGoal        string     `json:"planGoal"`
	DurationSummary string     `json:"durationSummary"`
	Tasks           []PlanTask `json:"tasks"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// Matches reports whether other refers to the same plan. The ID is used
// when both sides carry one; otherwise the plan goal is the closest
// available identity key.
func (p *Plan) Matches(other *Plan) bool {
	if p.ID != "" && other.ID != "" {
		return p.ID == other.ID
	}
	return p.PlanGoal == other.PlanGoal
}
