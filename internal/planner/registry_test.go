package planner

import (
	"context"
	"testing"

	"estuda/internal/ledger"
	"estuda/internal/llm"
	"estuda/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPlanJSON = `{
	"planGoal": "Frações em 5 dias",
	"durationSummary": "5 dias",
	"tasks": [
		{"day": "Dia 1", "date": "2026-08-29", "topic": "Introdução", "timeSlot": "20:00-21:00", "activities": "Conceitos básicos"},
		{"day": "Dia 2", "date": "2026-08-30", "topic": "Equivalência", "timeSlot": "20:00-21:30", "activities": "Exercícios"}
	]
}`

func newRegistry(t *testing.T, client llm.Client) (*Registry, *ledger.Ledger) {
	t.Helper()
	s := testutil.NewTestStore(t)
	l := ledger.New(s)
	return New(s, client, l), l
}

func TestGenerate_ParsesAndStoresPlan(t *testing.T) {
	fake := &testutil.FakeLLM{Responses: []string{validPlanJSON}}
	r, _ := newRegistry(t, fake)
	ctx := context.Background()

	plan, err := r.Generate(ctx, "estudar frações por 5 dias")
	require.NoError(t, err)

	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "Frações em 5 dias", plan.PlanGoal)
	assert.Equal(t, "5 dias", plan.DurationSummary)
	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, "Introdução", plan.Tasks[0].Topic)

	active, err := r.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, plan.ID, active[0].ID)

	// The request carried the plan schema so the service runs in JSON mode.
	require.Len(t, fake.Requests, 1)
	assert.Equal(t, llm.TaskPlan, fake.Requests[0].Task)
	require.NotNil(t, fake.Requests[0].ResponseSchema)
	assert.Contains(t, fake.Requests[0].ResponseSchema.Required, "planGoal")
}

func TestGenerate_UnparseableResponseIsFormatError(t *testing.T) {
	fake := &testutil.FakeLLM{Responses: []string{"Desculpe, não consegui gerar o plano hoje."}}
	r, _ := newRegistry(t, fake)

	_, err := r.Generate(context.Background(), "estudar frações")
	require.Error(t, err)

	var formatErr *PlanFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Preview, "Desculpe", "preview shows the user what came back")

	active, err := r.Active(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active, "a malformed response must not leave a partial plan behind")
}

func TestGenerate_PartialShapeIsFormatError(t *testing.T) {
	fake := &testutil.FakeLLM{Responses: []string{`{"planGoal": "x", "durationSummary": "", "tasks": []}`}}
	r, _ := newRegistry(t, fake)

	_, err := r.Generate(context.Background(), "estudar frações")
	var formatErr *PlanFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.ErrorIs(t, err, llm.ErrInvalidOutput)
}

func TestGenerate_ServiceFailurePropagates(t *testing.T) {
	fake := &testutil.FakeLLM{Err: llm.ErrRetryExhausted}
	r, _ := newRegistry(t, fake)

	_, err := r.Generate(context.Background(), "estudar frações")
	assert.ErrorIs(t, err, llm.ErrRetryExhausted)
}

func TestComplete_MovesPlanAtomically(t *testing.T) {
	r, _ := newRegistry(t, &testutil.FakeLLM{Responses: []string{validPlanJSON}})
	ctx := context.Background()

	plan, err := r.Generate(ctx, "estudar frações")
	require.NoError(t, err)

	require.NoError(t, r.Complete(ctx, plan))

	active, err := r.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active, "completed plan leaves the active set")

	completed, err := r.Completed(ctx)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, plan.ID, completed[0].ID)
	require.NotNil(t, completed[0].CompletedAt, "completion timestamp is stamped")

	count, err := r.CompletedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestComplete_MatchesByGoalWhenIDMissing(t *testing.T) {
	r, _ := newRegistry(t, &testutil.FakeLLM{Responses: []string{validPlanJSON}})
	ctx := context.Background()

	generated, err := r.Generate(ctx, "estudar frações")
	require.NoError(t, err)

	// A caller holding a plan deserialized from an older surface may not
	// carry the ID; the goal is the fallback identity key.
	stale := *generated
	stale.ID = ""
	require.NoError(t, r.Complete(ctx, &stale))

	active, err := r.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestComplete_UnknownPlan(t *testing.T) {
	r, _ := newRegistry(t, &testutil.FakeLLM{})
	ctx := context.Background()

	err := r.Complete(ctx, testutil.NewTestPlan("never generated"))
	assert.ErrorIs(t, err, ErrPlanNotFound)

	completed, err := r.Completed(ctx)
	require.NoError(t, err)
	assert.Empty(t, completed, "failed completion leaves both sets untouched")
}

func TestComplete_SecondCallFails(t *testing.T) {
	r, _ := newRegistry(t, &testutil.FakeLLM{Responses: []string{validPlanJSON}})
	ctx := context.Background()

	plan, err := r.Generate(ctx, "estudar frações")
	require.NoError(t, err)
	require.NoError(t, r.Complete(ctx, plan))

	err = r.Complete(ctx, plan)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	completed, err := r.Completed(ctx)
	require.NoError(t, err)
	assert.Len(t, completed, 1, "double completion never duplicates the plan")
}

func TestExpandToTasks_CreatesLedgerTasksWithDerivedHours(t *testing.T) {
	r, l := newRegistry(t, &testutil.FakeLLM{Responses: []string{validPlanJSON}})
	ctx := context.Background()

	plan, err := r.Generate(ctx, "estudar frações")
	require.NoError(t, err)

	created, err := r.ExpandToTasks(ctx, plan)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, 1.0, created[0].Hours, "20:00-21:00 is one hour")
	assert.Equal(t, 1.5, created[1].Hours, "20:00-21:30 is ninety minutes")
	assert.Equal(t, "Introdução", created[0].Text)

	tasks, err := l.Tasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2, "expansion goes through the ledger's add path")

	records, err := r.Provenance(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, created[0].ID, records[0].TaskID)
	assert.Equal(t, plan.PlanGoal, records[0].PlanGoal)
	assert.Equal(t, "Dia 1", records[0].Day)
}

func TestExpandToTasks_IsExplicitNotImplicit(t *testing.T) {
	r, l := newRegistry(t, &testutil.FakeLLM{Responses: []string{validPlanJSON}})
	ctx := context.Background()

	plan, err := r.Generate(ctx, "estudar frações")
	require.NoError(t, err)
	require.NoError(t, r.Complete(ctx, plan))

	tasks, err := l.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks, "completing a plan must not expand it")
}
