package domain

// BackendConfig describes one inference backend entry from the registry
// document. Loaded once at startup and read-only thereafter.
type BackendConfig struct {
	Name            string   `json:"name" yaml:"name"`
	Provider        string   `json:"provider" yaml:"provider"`
	Model           string   `json:"model" yaml:"model"`
	Enabled         bool     `json:"enabled" yaml:"enabled"`
	Capabilities    []string `json:"capabilities" yaml:"capabilities"`
	CostPer1MInput  float64  `json:"costPer1MInputTokens" yaml:"costPer1MInputTokens"`
	CostPer1MOutput float64  `json:"costPer1MOutputTokens" yaml:"costPer1MOutputTokens"`
	MaxContext      int      `json:"maxContext" yaml:"maxContext"`
}

// CombinedPrice is the ordering key used when comparing backend cost.
func (b *BackendConfig) CombinedPrice() float64 {
	return b.CostPer1MInput + b.CostPer1MOutput
}

// Tier derives the capability tier of a backend from its capability tags.
// Tags map upward: "reasoning" or "synthesis" imply high, "code" or
// "generation" imply medium, anything else low.
func (b *BackendConfig) Tier() ComplexityTier {
	tier := ComplexityLow
	for _, c := range b.Capabilities {
		switch c {
		case "reasoning", "synthesis", "planning":
			return ComplexityHigh
		case "code", "generation", "documentation":
			tier = ComplexityMedium
		}
	}
	return tier
}

// Cost computes the dollar cost of a call given token counts and this
// backend's per-million pricing.
func (b *BackendConfig) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*b.CostPer1MInput +
		float64(outputTokens)/1e6*b.CostPer1MOutput
}
