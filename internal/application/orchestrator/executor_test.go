package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
	"github.com/swellproject/swell/internal/registry"
)

// failNTimes fails the first n calls, then succeeds with the given text.
func failNTimes(n int, text string) func(int, *ports.CompletionRequest) (*ports.CompletionResponse, error) {
	return func(call int, _ *ports.CompletionRequest) (*ports.CompletionResponse, error) {
		if call <= n {
			return nil, fmt.Errorf("transient error on call %d", call)
		}
		return &ports.CompletionResponse{Text: text, InputTokens: 100, OutputTokens: 50}, nil
	}
}

func alwaysFail(int, *ports.CompletionRequest) (*ports.CompletionResponse, error) {
	return nil, fmt.Errorf("backend unavailable")
}

func newTestExecutor(t *testing.T, reg *registry.Registry, maxRetries int, escalation bool) *Executor {
	t.Helper()
	return NewExecutor(reg, NewClassifier(reg), nopBus{}, nopMetrics{}, zap.NewNop(),
		maxRetries, time.Millisecond, escalation, 4096, 0.7)
}

func TestExecuteTaskRetriesThenSucceeds(t *testing.T) {
	backend := newFakeBackend("cheap", failNTimes(2, "done"))
	reg, err := newTestRegistry("cheap",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 0.1, outPrice: 0.4, client: backend},
	)
	require.NoError(t, err)

	e := newTestExecutor(t, reg, 3, true)
	result := e.ExecuteTask(context.Background(), "orch-1", &domain.Task{ID: "t1", Complexity: domain.ComplexityLow, Prompt: "go"}, nil)

	assert.True(t, result.Success)
	assert.Equal(t, "done", result.Output)
	assert.Equal(t, "cheap", result.Backend)
	assert.Equal(t, 3, result.Attempts)
	assert.False(t, result.Escalated)
	assert.Equal(t, 3, backend.callCount())
}

func TestExecuteTaskEscalatesOnce(t *testing.T) {
	cheap := newFakeBackend("cheap", alwaysFail)
	smart := newFakeBackend("smart", staticReply("rescued"))
	reg, err := newTestRegistry("smart",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 0.1, outPrice: 0.4, client: cheap},
		backendSpec{name: "smart", enabled: true, capabilities: []string{"reasoning"}, inPrice: 3.0, outPrice: 15.0, client: smart},
	)
	require.NoError(t, err)

	e := newTestExecutor(t, reg, 2, true)
	result := e.ExecuteTask(context.Background(), "orch-1", &domain.Task{ID: "t1", Complexity: domain.ComplexityLow, Prompt: "go"}, nil)

	assert.True(t, result.Success)
	assert.Equal(t, "smart", result.Backend)
	assert.True(t, result.Escalated)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 2, cheap.callCount())
	assert.Equal(t, 1, smart.callCount())
}

func TestExecuteTaskEscalatedBackendAlsoFails(t *testing.T) {
	cheap := newFakeBackend("cheap", alwaysFail)
	smart := newFakeBackend("smart", alwaysFail)
	reg, err := newTestRegistry("smart",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 0.1, outPrice: 0.4, client: cheap},
		backendSpec{name: "smart", enabled: true, capabilities: []string{"reasoning"}, inPrice: 3.0, outPrice: 15.0, client: smart},
	)
	require.NoError(t, err)

	e := newTestExecutor(t, reg, 2, true)
	result := e.ExecuteTask(context.Background(), "orch-1", &domain.Task{ID: "t1", Complexity: domain.ComplexityLow, Prompt: "go"}, nil)

	// One escalation only: the failed fallback attempt ends the task.
	assert.False(t, result.Success)
	assert.Equal(t, "smart", result.Backend)
	assert.True(t, result.Escalated)
	assert.Equal(t, 3, result.Attempts)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, 1, smart.callCount())
}

func TestExecuteTaskEscalationDisabled(t *testing.T) {
	cheap := newFakeBackend("cheap", alwaysFail)
	smart := newFakeBackend("smart", staticReply("never called"))
	reg, err := newTestRegistry("smart",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 0.1, outPrice: 0.4, client: cheap},
		backendSpec{name: "smart", enabled: true, capabilities: []string{"reasoning"}, inPrice: 3.0, outPrice: 15.0, client: smart},
	)
	require.NoError(t, err)

	e := newTestExecutor(t, reg, 2, false)
	result := e.ExecuteTask(context.Background(), "orch-1", &domain.Task{ID: "t1", Complexity: domain.ComplexityLow, Prompt: "go"}, nil)

	assert.False(t, result.Success)
	assert.Equal(t, "cheap", result.Backend)
	assert.False(t, result.Escalated)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 0, smart.callCount())
}

func TestExecuteTaskNoFallbackAvailable(t *testing.T) {
	// The failing backend is already the most expensive one, so escalation
	// has nowhere to go even when enabled.
	smart := newFakeBackend("smart", alwaysFail)
	reg, err := newTestRegistry("smart",
		backendSpec{name: "smart", enabled: true, capabilities: []string{"reasoning"}, inPrice: 3.0, outPrice: 15.0, client: smart},
	)
	require.NoError(t, err)

	e := newTestExecutor(t, reg, 2, true)
	result := e.ExecuteTask(context.Background(), "orch-1", &domain.Task{ID: "t1", Complexity: domain.ComplexityHigh, Prompt: "go"}, nil)

	assert.False(t, result.Success)
	assert.False(t, result.Escalated)
	assert.Equal(t, 2, result.Attempts)
}

func TestExecuteTaskInjectsSuccessfulDependencyOutputs(t *testing.T) {
	var mu sync.Mutex
	var seenContext map[string]string
	backend := newFakeBackend("cheap", func(_ int, req *ports.CompletionRequest) (*ports.CompletionResponse, error) {
		mu.Lock()
		seenContext = req.Context
		mu.Unlock()
		return &ports.CompletionResponse{Text: "ok", InputTokens: 10, OutputTokens: 5}, nil
	})
	reg, err := newTestRegistry("cheap",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 0.1, outPrice: 0.4, client: backend},
	)
	require.NoError(t, err)

	previous := map[string]*domain.TaskResult{
		"good": {TaskID: "good", Success: true, Output: "useful data"},
		"bad":  {TaskID: "bad", Success: false, Error: "exploded"},
	}
	task := &domain.Task{ID: "t1", Complexity: domain.ComplexityLow, Prompt: "go", DependsOn: []string{"good", "bad"}}

	e := newTestExecutor(t, reg, 1, false)
	result := e.ExecuteTask(context.Background(), "orch-1", task, previous)

	require.True(t, result.Success)
	assert.Equal(t, "useful data", seenContext["good"])
	_, hasBad := seenContext["bad"]
	assert.False(t, hasBad, "failed dependency output must be omitted")
}

func TestExecuteTaskCostMatchesBackendPricing(t *testing.T) {
	backend := newFakeBackend("cheap", func(int, *ports.CompletionRequest) (*ports.CompletionResponse, error) {
		return &ports.CompletionResponse{Text: "ok", InputTokens: 1000, OutputTokens: 500}, nil
	})
	reg, err := newTestRegistry("cheap",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 2.0, outPrice: 6.0, client: backend},
	)
	require.NoError(t, err)

	e := newTestExecutor(t, reg, 1, false)
	result := e.ExecuteTask(context.Background(), "orch-1", &domain.Task{ID: "t1", Complexity: domain.ComplexityLow, Prompt: "go"}, nil)

	require.True(t, result.Success)
	assert.Equal(t, 1000, result.InputTokens)
	assert.Equal(t, 500, result.OutputTokens)
	assert.InDelta(t, 1000.0/1e6*2.0+500.0/1e6*6.0, result.Cost, 1e-12)
}

func TestExecuteWave(t *testing.T) {
	cheap := newFakeBackend("cheap", slowReply("ok", 30*time.Millisecond))
	reg, err := newTestRegistry("cheap",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 0.1, outPrice: 0.4, client: cheap},
	)
	require.NoError(t, err)

	wave := []*domain.Task{
		{ID: "a", Complexity: domain.ComplexityLow, Prompt: "one"},
		{ID: "b", Complexity: domain.ComplexityLow, Prompt: "two"},
		{ID: "c", Complexity: domain.ComplexityLow, Prompt: "three"},
	}

	e := newTestExecutor(t, reg, 1, false)
	start := time.Now()
	results := e.ExecuteWave(context.Background(), "orch-1", wave, nil)
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	for i, task := range wave {
		assert.Equal(t, task.ID, results[i].TaskID, "results keep wave order")
		assert.True(t, results[i].Success)
	}
	assert.Less(t, elapsed, 90*time.Millisecond, "wave tasks run concurrently")
}

func TestBackoffDoubles(t *testing.T) {
	e := &Executor{retryBaseDelay: time.Second}
	assert.Equal(t, 2*time.Second, e.backoff(1))
	assert.Equal(t, 4*time.Second, e.backoff(2))
	assert.Equal(t, 8*time.Second, e.backoff(3))
}

func TestExecuteTaskContextCancelledDuringBackoff(t *testing.T) {
	backend := newFakeBackend("cheap", alwaysFail)
	reg, err := newTestRegistry("cheap",
		backendSpec{name: "cheap", enabled: true, capabilities: []string{"formatting"}, inPrice: 0.1, outPrice: 0.4, client: backend},
	)
	require.NoError(t, err)

	e := NewExecutor(reg, NewClassifier(reg), nopBus{}, nopMetrics{}, zap.NewNop(),
		5, time.Hour, false, 4096, 0.7)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := e.ExecuteTask(ctx, "orch-1", &domain.Task{ID: "t1", Complexity: domain.ComplexityLow, Prompt: "go"}, nil)

	assert.False(t, result.Success)
	assert.Equal(t, 1, backend.callCount(), "cancellation stops further attempts")
}
