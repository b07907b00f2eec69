package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendTier(t *testing.T) {
	tests := []struct {
		name         string
		capabilities []string
		want         ComplexityTier
	}{
		{"reasoning implies high", []string{"reasoning"}, ComplexityHigh},
		{"synthesis implies high", []string{"code", "synthesis"}, ComplexityHigh},
		{"planning implies high", []string{"planning"}, ComplexityHigh},
		{"code implies medium", []string{"code"}, ComplexityMedium},
		{"documentation implies medium", []string{"formatting", "documentation"}, ComplexityMedium},
		{"unrecognized tags are low", []string{"formatting", "extraction"}, ComplexityLow},
		{"no tags are low", nil, ComplexityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &BackendConfig{Capabilities: tt.capabilities}
			assert.Equal(t, tt.want, b.Tier())
		})
	}
}

func TestTierRankOrdering(t *testing.T) {
	assert.Less(t, ComplexityLow.Rank(), ComplexityMedium.Rank())
	assert.Less(t, ComplexityMedium.Rank(), ComplexityHigh.Rank())
}

func TestBackendCost(t *testing.T) {
	b := &BackendConfig{CostPer1MInput: 3.0, CostPer1MOutput: 15.0}

	assert.InDelta(t, 0.0, b.Cost(0, 0), 1e-12)
	assert.InDelta(t, 3.0+15.0, b.Cost(1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 0.003+0.0015, b.Cost(1000, 100), 1e-12)
}

func TestCombinedPrice(t *testing.T) {
	cheap := &BackendConfig{CostPer1MInput: 0.1, CostPer1MOutput: 0.4}
	pricey := &BackendConfig{CostPer1MInput: 3.0, CostPer1MOutput: 15.0}
	assert.Less(t, cheap.CombinedPrice(), pricey.CombinedPrice())
}
