package planner

import "estuda/internal/llm"

// planSystemPrompt pins the generator to structured study-plan output.
const planSystemPrompt = `Você é um assistente de planejamento e cronograma de estudos voltados apenas a matemática, ciência de dados, inteligência artificial e programação. Sua única função é gerar um plano de estudos detalhado em formato JSON, baseado na requisição do usuário. Retorne o JSON diretamente, sem texto explicativo. Use sempre o idioma português.`

// planPayload is the JSON structure the service outputs for a plan request.
type planPayload struct {
	PlanGoal        string `json:"planGoal"`
	DurationSummary string `json:"durationSummary"`
	Tasks           []struct {
		Day        string `json:"day"`
		Date       string `json:"date"`
		Topic      string `json:"topic"`
		TimeSlot   string `json:"timeSlot"`
		Activities string `json:"activities"`
	} `json:"tasks"`
}

// planResponseSchema mirrors planPayload for the service's JSON mode.
func planResponseSchema() *llm.Schema {
	return &llm.Schema{
		Type:     "OBJECT",
		Required: []string{"planGoal", "durationSummary", "tasks"},
		Properties: map[string]*llm.Schema{
			"planGoal":        {Type: "STRING"},
			"durationSummary": {Type: "STRING"},
			"tasks": {
				Type: "ARRAY",
				Items: &llm.Schema{
					Type:     "OBJECT",
					Required: []string{"day", "date", "topic", "timeSlot", "activities"},
					Properties: map[string]*llm.Schema{
						"day":        {Type: "STRING"},
						"date":       {Type: "STRING"},
						"topic":      {Type: "STRING"},
						"timeSlot":   {Type: "STRING"},
						"activities": {Type: "STRING"},
					},
				},
			},
		},
	}
}

// validatePlanPayload rejects any shape mismatch outright: a partially
// populated plan must never slip through as a valid one.
func validatePlanPayload(p planPayload) error {
	if p.PlanGoal == "" {
		return errMissingField("planGoal")
	}
	if p.DurationSummary == "" {
		return errMissingField("durationSummary")
	}
	if len(p.Tasks) == 0 {
		return errMissingField("tasks")
	}
	for i, t := range p.Tasks {
		if t.Topic == "" {
			return errMissingTaskField(i, "topic")
		}
		if t.Activities == "" {
			return errMissingTaskField(i, "activities")
		}
	}
	return nil
}
