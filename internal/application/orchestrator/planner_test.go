package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
)

func newTestPlanner(t *testing.T, plannerReply string) *Planner {
	t.Helper()
	reg, err := newTestRegistry("smart",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 0.1, outPrice: 0.4, client: newFakeBackend("cheap", staticReply("ok"))},
		backendSpec{name: "smart", enabled: true, capabilities: []string{"reasoning"}, inPrice: 3.0, outPrice: 15.0, client: newFakeBackend("smart", staticReply(plannerReply))},
	)
	require.NoError(t, err)
	classifier := NewClassifier(reg)
	return NewPlanner(reg, classifier, NewAggregator(), zap.NewNop(), 0.7, 4096)
}

func TestParseTaskArray(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		tasks, err := ParseTaskArray(`[{"id":"a","description":"first"},{"id":"b","dependsOn":["a"]}]`)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "a", tasks[0].ID)
		assert.Equal(t, []string{"a"}, tasks[1].DependsOn)
	})

	t.Run("array surrounded by prose", func(t *testing.T) {
		reply := `Here is the plan you asked for:

[{"id":"a","description":"do it"}]

Let me know if you need changes.`
		tasks, err := ParseTaskArray(reply)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "a", tasks[0].ID)
	})

	t.Run("fenced code block", func(t *testing.T) {
		reply := "```json\n[{\"id\":\"a\",\"prompt\":\"run\"}]\n```"
		tasks, err := ParseTaskArray(reply)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "run", tasks[0].Prompt)
	})

	t.Run("skips non-task brackets before the array", func(t *testing.T) {
		reply := `[note: see below]
[{"id":"a","description":"real plan"}]`
		tasks, err := ParseTaskArray(reply)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "a", tasks[0].ID)
	})

	t.Run("brackets inside strings do not break matching", func(t *testing.T) {
		tasks, err := ParseTaskArray(`[{"id":"a","prompt":"handle [1] and [2]"}]`)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "handle [1] and [2]", tasks[0].Prompt)
	})

	t.Run("reply without an array is fatal", func(t *testing.T) {
		_, err := ParseTaskArray("I could not decompose this request, sorry.")
		var planErr *domain.PlanningError
		require.True(t, errors.As(err, &planErr))
	})

	t.Run("unbalanced bracket is fatal", func(t *testing.T) {
		_, err := ParseTaskArray(`[{"id":"a"`)
		var planErr *domain.PlanningError
		require.True(t, errors.As(err, &planErr))
	})
}

func TestPlanExecution(t *testing.T) {
	t.Run("valid reply yields a classified plan", func(t *testing.T) {
		p := newTestPlanner(t, `[
			{"id":"gather","description":"Extract the raw numbers","prompt":"extract"},
			{"id":"report","description":"Analyze the numbers","prompt":"analyze","dependsOn":["gather"]}
		]`)

		plan, err := p.PlanExecution(context.Background(), "summarize the quarter", &PlanOptions{})
		require.NoError(t, err)
		require.Len(t, plan.Tasks, 2)

		assert.Equal(t, domain.ComplexityLow, plan.Tasks[0].Complexity)
		assert.Equal(t, domain.ComplexityHigh, plan.Tasks[1].Complexity)
		assert.Equal(t, domain.StrategySequential, plan.Strategy)
		assert.Greater(t, plan.EstimatedCost, 0.0)
		assert.Greater(t, plan.EstimatedDuration.Seconds(), 0.0)
	})

	t.Run("explicit strategy overrides detection", func(t *testing.T) {
		p := newTestPlanner(t, `[{"id":"a","description":"Format it","prompt":"go"}]`)

		plan, err := p.PlanExecution(context.Background(), "req", &PlanOptions{Strategy: domain.StrategyHybrid})
		require.NoError(t, err)
		assert.Equal(t, domain.StrategyHybrid, plan.Strategy)
	})

	t.Run("planner-declared complexity is kept", func(t *testing.T) {
		p := newTestPlanner(t, `[{"id":"a","description":"Format it","prompt":"go","complexity":"high"}]`)

		plan, err := p.PlanExecution(context.Background(), "req", &PlanOptions{})
		require.NoError(t, err)
		assert.Equal(t, domain.ComplexityHigh, plan.Tasks[0].Complexity)
	})

	t.Run("unparseable reply fails planning", func(t *testing.T) {
		p := newTestPlanner(t, "no structured output here")

		_, err := p.PlanExecution(context.Background(), "req", &PlanOptions{})
		var planErr *domain.PlanningError
		require.True(t, errors.As(err, &planErr))
	})

	t.Run("empty array fails planning", func(t *testing.T) {
		p := newTestPlanner(t, "[]")

		_, err := p.PlanExecution(context.Background(), "req", &PlanOptions{})
		var planErr *domain.PlanningError
		require.True(t, errors.As(err, &planErr))
	})

	t.Run("duplicate ids fail planning", func(t *testing.T) {
		p := newTestPlanner(t, `[{"id":"a"},{"id":"a"}]`)

		_, err := p.PlanExecution(context.Background(), "req", &PlanOptions{})
		var planErr *domain.PlanningError
		require.True(t, errors.As(err, &planErr))
	})

	t.Run("unknown dependency fails planning", func(t *testing.T) {
		p := newTestPlanner(t, `[{"id":"a","dependsOn":["ghost"]}]`)

		_, err := p.PlanExecution(context.Background(), "req", &PlanOptions{})
		var planErr *domain.PlanningError
		require.True(t, errors.As(err, &planErr))
	})

	t.Run("self dependency fails planning", func(t *testing.T) {
		p := newTestPlanner(t, `[{"id":"a","dependsOn":["a"]},{"id":"b"}]`)

		_, err := p.PlanExecution(context.Background(), "req", &PlanOptions{})
		var planErr *domain.PlanningError
		require.True(t, errors.As(err, &planErr))
	})

	t.Run("backend error wraps into planning error", func(t *testing.T) {
		reg, err := newTestRegistry("smart",
			backendSpec{name: "smart", enabled: true, capabilities: []string{"reasoning"}, inPrice: 3.0, outPrice: 15.0,
				client: newFakeBackend("smart", func(int, *ports.CompletionRequest) (*ports.CompletionResponse, error) {
					return nil, fmt.Errorf("rate limited")
				})},
		)
		require.NoError(t, err)
		p := NewPlanner(reg, NewClassifier(reg), NewAggregator(), zap.NewNop(), 0.7, 4096)

		_, err = p.PlanExecution(context.Background(), "req", &PlanOptions{})
		var planErr *domain.PlanningError
		require.True(t, errors.As(err, &planErr))
		assert.ErrorContains(t, planErr.Err, "rate limited")
	})
}
