package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
	"github.com/swellproject/swell/internal/registry"
)

// fakeBackend is a scripted ports.Backend for tests. The reply function
// receives the 1-based call number.
type fakeBackend struct {
	name string

	mu    sync.Mutex
	calls int
	reply func(call int, req *ports.CompletionRequest) (*ports.CompletionResponse, error)
}

func newFakeBackend(name string, reply func(call int, req *ports.CompletionRequest) (*ports.CompletionResponse, error)) *fakeBackend {
	return &fakeBackend{name: name, reply: reply}
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Complete(ctx context.Context, req *ports.CompletionRequest) (*ports.CompletionResponse, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.reply(call, req)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// staticReply always succeeds with the given text.
func staticReply(text string) func(int, *ports.CompletionRequest) (*ports.CompletionResponse, error) {
	return func(int, *ports.CompletionRequest) (*ports.CompletionResponse, error) {
		return &ports.CompletionResponse{Text: text, InputTokens: 100, OutputTokens: 50}, nil
	}
}

// slowReply succeeds with the given text after a delay.
func slowReply(text string, delay time.Duration) func(int, *ports.CompletionRequest) (*ports.CompletionResponse, error) {
	return func(int, *ports.CompletionRequest) (*ports.CompletionResponse, error) {
		time.Sleep(delay)
		return &ports.CompletionResponse{Text: text, InputTokens: 100, OutputTokens: 50}, nil
	}
}

// nopMetrics is a no-op ports.MetricsCollector.
type nopMetrics struct{}

func (nopMetrics) RecordOrchestration(string, time.Duration)              {}
func (nopMetrics) RecordTask(string, string, time.Duration)               {}
func (nopMetrics) RecordRetry(string)                                     {}
func (nopMetrics) RecordEscalation(string, string)                        {}
func (nopMetrics) RecordLLMCall(string, int, int, float64, time.Duration) {}
func (nopMetrics) SetActiveOrchestrations(int)                            {}

// nopBus is a no-op ports.EventBus.
type nopBus struct{}

func (nopBus) Publish(context.Context, string, domain.Event) error         { return nil }
func (nopBus) Subscribe(context.Context, string, ports.EventHandler) error { return nil }
func (nopBus) Close() error                                                { return nil }

// backendSpec describes one registry entry for tests.
type backendSpec struct {
	name         string
	enabled      bool
	capabilities []string
	inPrice      float64
	outPrice     float64
	client       ports.Backend
}

// newTestRegistry builds a registry from specs, binding clients to enabled
// entries. planner names the planning backend.
func newTestRegistry(planner string, specs ...backendSpec) (*registry.Registry, error) {
	doc := &registry.Document{Planner: planner}
	clients := make(map[string]ports.Backend, len(specs))
	for _, s := range specs {
		doc.Backends = append(doc.Backends, &domain.BackendConfig{
			Name:            s.name,
			Provider:        "test",
			Model:           s.name,
			Enabled:         s.enabled,
			Capabilities:    s.capabilities,
			CostPer1MInput:  s.inPrice,
			CostPer1MOutput: s.outPrice,
			MaxContext:      100000,
		})
		if s.client != nil {
			clients[s.name] = s.client
		}
	}
	return registry.New(doc, clients)
}
