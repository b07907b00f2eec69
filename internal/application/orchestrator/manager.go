package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
	"github.com/swellproject/swell/internal/registry"
)

// Manager coordinates end-to-end orchestrations: planning, wave
// scheduling, execution, aggregation and synthesis.
type Manager struct {
	registry    *registry.Registry
	classifier  *Classifier
	planner     *Planner
	executor    *Executor
	aggregator  *Aggregator
	synthesizer *Synthesizer
	eventBus    ports.EventBus
	metrics     ports.MetricsCollector
	logger      *zap.Logger

	// Track active orchestrations
	executions sync.Map // map[string]*executionContext
	active     int64
	activeMu   sync.Mutex

	orchestrationTimeout time.Duration
}

// executionContext holds state for a single in-flight orchestration.
type executionContext struct {
	id         string
	request    string
	startedAt  time.Time
	cancelFunc context.CancelFunc

	mu     sync.RWMutex
	status string
	wave   int
	waves  int
}

// ExecutionStatus is a point-in-time snapshot of an in-flight
// orchestration.
type ExecutionStatus struct {
	ID        string    `json:"id"`
	Request   string    `json:"request"`
	Status    string    `json:"status"`
	Wave      int       `json:"wave"`
	Waves     int       `json:"waves"`
	StartedAt time.Time `json:"started_at"`
}

// OrchestrateOptions influence a single orchestration call.
type OrchestrateOptions struct {
	// Strategy overrides auto-detection when set.
	Strategy domain.Strategy
}

// NewManager creates an orchestration manager.
func NewManager(
	reg *registry.Registry,
	classifier *Classifier,
	planner *Planner,
	executor *Executor,
	aggregator *Aggregator,
	synthesizer *Synthesizer,
	eventBus ports.EventBus,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
	orchestrationTimeout time.Duration,
) *Manager {
	return &Manager{
		registry:             reg,
		classifier:           classifier,
		planner:              planner,
		executor:             executor,
		aggregator:           aggregator,
		synthesizer:          synthesizer,
		eventBus:             eventBus,
		metrics:              metrics,
		logger:               logger,
		orchestrationTimeout: orchestrationTimeout,
	}
}

// Orchestrate runs one request end to end. Planning, cycle and
// configuration errors propagate; task-level failures are captured in the
// result, which always carries a synthesized (possibly degraded) answer
// when planning succeeded.
func (m *Manager) Orchestrate(ctx context.Context, request string, opts *OrchestrateOptions) (*domain.OrchestrationResult, error) {
	id := uuid.New().String()
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, m.orchestrationTimeout)
	defer cancel()

	exec := &executionContext{
		id:         id,
		request:    request,
		startedAt:  start,
		cancelFunc: cancel,
		status:     "planning",
	}
	m.executions.Store(id, exec)
	m.trackActive(1)
	defer func() {
		m.executions.Delete(id)
		m.trackActive(-1)
	}()

	m.logger.Info("orchestration started",
		zap.String("orchestration_id", id),
		zap.Int("request_len", len(request)))

	planOpts := &PlanOptions{}
	if opts != nil {
		planOpts.Strategy = opts.Strategy
	}

	plan, err := m.planner.PlanExecution(runCtx, request, planOpts)
	if err != nil {
		m.metrics.RecordOrchestration("planning_failed", time.Since(start))
		m.publishEvent(runCtx, id, domain.EventTypeOrchestrationFailed, map[string]interface{}{
			"error": err.Error(),
		})
		m.logger.Error("planning failed",
			zap.String("orchestration_id", id),
			zap.Error(err))
		return nil, err
	}

	waves, err := GroupTasksIntoWaves(plan.Tasks)
	if err != nil {
		m.metrics.RecordOrchestration("cycle_detected", time.Since(start))
		m.publishEvent(runCtx, id, domain.EventTypeOrchestrationFailed, map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	exec.setStatus("executing", 0, len(waves))
	m.publishEvent(runCtx, id, domain.EventTypeOrchestrationStarted, map[string]interface{}{
		"tasks":    len(plan.Tasks),
		"waves":    len(waves),
		"strategy": string(plan.Strategy),
	})

	results := make(map[string]*domain.TaskResult, len(plan.Tasks))
	for i, wave := range waves {
		exec.setStatus("executing", i+1, len(waves))
		m.publishEvent(runCtx, id, domain.EventTypeWaveStarted, map[string]interface{}{
			"wave":  i + 1,
			"tasks": len(wave),
		})

		waveResults := m.executor.ExecuteWave(runCtx, id, wave, results)
		for _, r := range waveResults {
			results[r.TaskID] = r
		}

		m.publishEvent(runCtx, id, domain.EventTypeWaveCompleted, map[string]interface{}{
			"wave": i + 1,
		})
	}

	exec.setStatus("synthesizing", len(waves), len(waves))
	answer, synthErr := m.synthesizer.Synthesize(runCtx, request, plan.Tasks, results)
	if synthErr != nil {
		m.logger.Warn("synthesis degraded",
			zap.String("orchestration_id", id),
			zap.Error(synthErr))
	}

	success := true
	for _, r := range results {
		if !r.Success {
			success = false
			break
		}
	}

	result := &domain.OrchestrationResult{
		ID:          id,
		Request:     request,
		Success:     success,
		Results:     results,
		TotalCost:   m.aggregator.TotalCost(results),
		Duration:    time.Since(start),
		Answer:      answer,
		Strategy:    plan.Strategy,
		StartedAt:   start,
		CompletedAt: time.Now(),
	}

	status := "succeeded"
	if !success {
		status = "partial_failure"
	}
	m.metrics.RecordOrchestration(status, result.Duration)
	m.publishEvent(runCtx, id, domain.EventTypeOrchestrationCompleted, map[string]interface{}{
		"success":    success,
		"total_cost": result.TotalCost,
		"duration":   result.Duration.String(),
	})

	m.logger.Info("orchestration completed",
		zap.String("orchestration_id", id),
		zap.Bool("success", success),
		zap.Int("tasks", len(results)),
		zap.Float64("total_cost", result.TotalCost),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// Classify rates one task without executing it: complexity tier, selected
// backend and estimated cost.
func (m *Manager) Classify(task *domain.Task) (*domain.TaskEstimate, error) {
	if task.Complexity == "" {
		task.Complexity = m.classifier.ClassifyComplexity(task)
	}
	backend, err := m.classifier.SelectBackend(task)
	if err != nil {
		return nil, err
	}
	cost, in, out := m.classifier.EstimateCost(task, backend)
	return &domain.TaskEstimate{
		TaskID:       task.ID,
		Complexity:   task.Complexity,
		Backend:      backend.Name,
		Cost:         cost,
		InputTokens:  in,
		OutputTokens: out,
	}, nil
}

// EstimatePlan plans a request without executing it, returning the
// execution plan with aggregate cost and duration estimates.
func (m *Manager) EstimatePlan(ctx context.Context, request string) (*domain.ExecutionPlan, error) {
	return m.planner.PlanExecution(ctx, request, &PlanOptions{})
}

// ListBackends returns every registry entry, including disabled ones.
func (m *Manager) ListBackends() []*domain.BackendConfig {
	return m.registry.All()
}

// GetExecution returns the status of an in-flight orchestration.
func (m *Manager) GetExecution(id string) (*ExecutionStatus, error) {
	val, ok := m.executions.Load(id)
	if !ok {
		return nil, fmt.Errorf("orchestration not found: %s", id)
	}
	exec := val.(*executionContext)
	exec.mu.RLock()
	defer exec.mu.RUnlock()
	return &ExecutionStatus{
		ID:        exec.id,
		Request:   exec.request,
		Status:    exec.status,
		Wave:      exec.wave,
		Waves:     exec.waves,
		StartedAt: exec.startedAt,
	}, nil
}

// Shutdown cancels all in-flight orchestrations.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestration manager")

	m.executions.Range(func(key, value interface{}) bool {
		value.(*executionContext).cancelFunc()
		return true
	})

	m.logger.Info("orchestration manager shut down complete")
	return nil
}

func (m *Manager) publishEvent(ctx context.Context, orchestrationID string, eventType domain.EventType, data map[string]interface{}) {
	event := domain.Event{
		ID:              uuid.New().String(),
		Type:            eventType,
		OrchestrationID: orchestrationID,
		Timestamp:       time.Now(),
		Data:            data,
	}
	if err := m.eventBus.Publish(ctx, "orchestration.events", event); err != nil {
		m.logger.Error("failed to publish orchestration event",
			zap.String("orchestration_id", orchestrationID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

func (m *Manager) trackActive(delta int64) {
	m.activeMu.Lock()
	m.active += delta
	count := int(m.active)
	m.activeMu.Unlock()
	m.metrics.SetActiveOrchestrations(count)
}

func (e *executionContext) setStatus(status string, wave, waves int) {
	e.mu.Lock()
	e.status = status
	e.wave = wave
	e.waves = waves
	e.mu.Unlock()
}
