package costmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRevenue_DefaultDistribution(t *testing.T) {
	rev, warnings := ComputeRevenue(2.0, 1000, 50, 10_000_000, ServiceTierConfig{})
	require.Empty(t, warnings)
	require.Len(t, rev.Tiers, len(ServiceTiers))

	// 0.4*1.3 + 0.25*1.5 + 0.1*1.45 + 0.1*1.8 + 0.15*2.2 = 1.55
	assert.InDelta(t, 3.1, rev.BlendedPricePerGPUHour, 1e-9)
	assert.InDelta(t, 3.1*1000*8760*0.5, rev.AnnualRevenue, 1e-3)
	assert.InDelta(t, rev.AnnualRevenue-10_000_000, rev.Margin, 1e-3)
	assert.InDelta(t, rev.Margin/rev.AnnualRevenue*100, rev.MarginPercent, 1e-9)

	assert.Equal(t, "bare-metal", rev.Tiers[0].Tier)
	assert.InDelta(t, 2.6, rev.Tiers[0].PricePerGPUHour, 1e-9)
	assert.Equal(t, "inference-api", rev.Tiers[4].Tier)
	assert.InDelta(t, 4.4, rev.Tiers[4].PricePerGPUHour, 1e-9)
}

func TestComputeRevenue_Modifiers(t *testing.T) {
	st := ServiceTierConfig{
		Modifiers: ServiceModifiers{
			StoragePerformance: "performance",
			Compliance:         []string{"SOC2", "hipaa"},
			Sustainability:     "renewable",
		},
	}

	rev, warnings := ComputeRevenue(2.0, 1000, 100, 0, st)
	require.Empty(t, warnings)

	assert.InDelta(t, 0.26, rev.ModifierPremium, 1e-12)
	assert.InDelta(t, 2*(1.55+0.26), rev.BlendedPricePerGPUHour, 1e-9)
	assert.InDelta(t, 2*(1.30+0.26), rev.Tiers[0].PricePerGPUHour, 1e-9)
}

func TestComputeRevenue_Warnings(t *testing.T) {
	st := ServiceTierConfig{
		Distribution: map[string]float64{"bare-metal": 50, "inference-api": 40, "gpu-rental": 10},
		Modifiers: ServiceModifiers{
			Compliance:     []string{"pci"},
			Sustainability: "wind-powered",
		},
	}

	rev, warnings := ComputeRevenue(1.0, 100, 80, 0, st)

	assert.True(t, hasWarning(warnings, `"gpu-rental"`))
	assert.True(t, hasWarning(warnings, `"pci"`))
	assert.True(t, hasWarning(warnings, `"wind-powered"`))
	assert.True(t, hasWarning(warnings, "sums to 90.00%"))

	// as-given percentages, no normalization
	assert.InDelta(t, 0.5*1.3+0.4*2.2, rev.BlendedPricePerGPUHour, 1e-9)
}

func TestComputeRevenue_ZeroRevenue(t *testing.T) {
	rev, _ := ComputeRevenue(0, 0, 0, 1_000, ServiceTierConfig{})
	assert.Zero(t, rev.AnnualRevenue)
	assert.Zero(t, rev.MarginPercent)
	assert.InDelta(t, -1_000.0, rev.Margin, 1e-9)
}

func TestDefaultDistributionSumsTo100(t *testing.T) {
	var total float64
	for _, v := range DefaultDistribution() {
		total += v
	}
	assert.InDelta(t, 100.0, total, 1e-9)
}
