package registry

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/swellproject/swell/internal/domain"
	"github.com/swellproject/swell/internal/ports"
)

// Document is the on-disk backend registry format.
type Document struct {
	// Planner names the backend used for plan generation and synthesis.
	// When empty, the most capable enabled backend is used.
	Planner  string                  `yaml:"planner"`
	Backends []*domain.BackendConfig `yaml:"backends"`
}

// Registry holds the backend catalog and the provider clients bound to it.
// It is constructed once at startup and read-only afterwards, so it is safe
// for concurrent use.
type Registry struct {
	configs []*domain.BackendConfig
	clients map[string]ports.Backend
	planner *domain.BackendConfig
}

// LoadDocument reads and parses a registry document from disk.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry document: %w", err)
	}

	return &doc, nil
}

// New builds a registry from a parsed document and the provider clients for
// its entries. Every enabled backend must have a client.
func New(doc *Document, clients map[string]ports.Backend) (*Registry, error) {
	if doc == nil || len(doc.Backends) == 0 {
		return nil, &domain.ConfigurationError{Reason: "backend registry is empty"}
	}

	seen := make(map[string]bool, len(doc.Backends))
	enabled := 0
	for _, b := range doc.Backends {
		if b.Name == "" {
			return nil, &domain.ConfigurationError{Reason: "backend entry without a name"}
		}
		if seen[b.Name] {
			return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("duplicate backend name: %s", b.Name)}
		}
		seen[b.Name] = true

		if !b.Enabled {
			continue
		}
		enabled++
		if _, ok := clients[b.Name]; !ok {
			return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("no client bound for enabled backend: %s", b.Name)}
		}
	}
	if enabled == 0 {
		return nil, &domain.ConfigurationError{Reason: "backend registry contains no enabled entries"}
	}

	r := &Registry{
		configs: doc.Backends,
		clients: clients,
	}

	if doc.Planner != "" {
		p, ok := r.Get(doc.Planner)
		if !ok || !p.Enabled {
			return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("planner backend %s is not an enabled entry", doc.Planner)}
		}
		r.planner = p
	} else {
		r.planner = mostCapable(r.Enabled())
	}

	return r, nil
}

// All returns every entry in document order, including disabled ones.
func (r *Registry) All() []*domain.BackendConfig {
	return r.configs
}

// Enabled returns the enabled entries in document order.
func (r *Registry) Enabled() []*domain.BackendConfig {
	out := make([]*domain.BackendConfig, 0, len(r.configs))
	for _, b := range r.configs {
		if b.Enabled {
			out = append(out, b)
		}
	}
	return out
}

// Get looks up a backend entry by name.
func (r *Registry) Get(name string) (*domain.BackendConfig, bool) {
	for _, b := range r.configs {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Client returns the provider client bound to a backend name.
func (r *Registry) Client(name string) (ports.Backend, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Planner returns the backend used for plan generation and synthesis.
func (r *Registry) Planner() *domain.BackendConfig {
	return r.planner
}

// mostCapable picks the highest-tier backend, breaking ties by price so the
// planner gets the strongest model available.
func mostCapable(backends []*domain.BackendConfig) *domain.BackendConfig {
	sorted := make([]*domain.BackendConfig, len(backends))
	copy(sorted, backends)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tier().Rank() != sorted[j].Tier().Rank() {
			return sorted[i].Tier().Rank() > sorted[j].Tier().Rank()
		}
		return sorted[i].CombinedPrice() > sorted[j].CombinedPrice()
	})
	return sorted[0]
}
