package llm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planShape struct {
	PlanGoal string `json:"planGoal"`
	Tasks    []struct {
		Topic string `json:"topic"`
	} `json:"tasks"`
}

func TestExtractJSON_BareObject(t *testing.T) {
	raw := `{"planGoal": "fractions", "tasks": [{"topic": "intro"}]}`

	got, err := ExtractJSON[planShape](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "fractions", got.PlanGoal)
	require.Len(t, got.Tasks, 1)
}

func TestExtractJSON_MarkdownFenced(t *testing.T) {
	raw := "```json\n{\"planGoal\": \"fractions\", \"tasks\": []}\n```"

	got, err := ExtractJSON[planShape](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "fractions", got.PlanGoal)
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	raw := "Here is your plan:\n{\"planGoal\": \"algebra\", \"tasks\": []}\nEnjoy!"

	got, err := ExtractJSON[planShape](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "algebra", got.PlanGoal)
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	raw := `{"planGoal": "sets {A} and {B}", "tasks": []}`

	got, err := ExtractJSON[planShape](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "sets {A} and {B}", got.PlanGoal)
}

func TestExtractJSON_NoObject(t *testing.T) {
	_, err := ExtractJSON[planShape]("sorry, I cannot help with that", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_MalformedJSON(t *testing.T) {
	_, err := ExtractJSON[planShape](`{"planGoal": `, nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidatorRejects(t *testing.T) {
	raw := `{"planGoal": "", "tasks": []}`

	_, err := ExtractJSON[planShape](raw, func(p planShape) error {
		if p.PlanGoal == "" {
			return fmt.Errorf("planGoal is required")
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "planGoal is required")
}
