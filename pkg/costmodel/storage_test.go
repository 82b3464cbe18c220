package costmodel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/catalog"
)

func fixedSplit(total, hot, warm, cold, archive float64) StorageConfig {
	return StorageConfig{
		TotalPB: total,
		Hot:     StorageTierConfig{Percent: hot},
		Warm:    StorageTierConfig{Percent: warm},
		Cold:    StorageTierConfig{Percent: cold},
		Archive: StorageTierConfig{Percent: archive},
	}
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestComputeStorage_FourTierExample(t *testing.T) {
	c := catalog.Default()
	res := ComputeStorage(c, fixedSplit(50, 20, 35, 35, 10), Pricing{})

	require.Empty(t, res.Warnings)
	require.Len(t, res.Tiers, 4)

	hot := res.Tiers[0]
	assert.Equal(t, "hot", hot.Tier)
	assert.Equal(t, "vast", hot.Vendor)
	assert.InDelta(t, 10.0, hot.CapacityPB, 1e-9)
	assert.InDelta(t, 300_000.0, hot.Capex, 1e-6)
	assert.InDelta(t, 60_000.0, hot.PowerW, 1e-6)
	assert.InDelta(t, 8.0, hot.UsablePB, 1e-9)
	assert.InDelta(t, 60_000.0, hot.AnnualOpex, 1e-6)
	assert.InDelta(t, 1_000.0, hot.ThroughputGBps, 1e-6)

	order := []string{}
	for _, tier := range res.Tiers {
		order = append(order, tier.Tier)
	}
	assert.Equal(t, []string{"hot", "warm", "cold", "archive"}, order)

	assert.InDelta(t, 300_000+437_500+262_500+20_000.0, res.Capex, 1e-6)
	assert.InDelta(t, 100.0, res.TotalPercent, 1e-9)
}

func TestComputeStorage_Linearity(t *testing.T) {
	c := catalog.Default()

	for _, total := range []float64{1, 7.5, 50, 1_000} {
		single := ComputeStorage(c, fixedSplit(total, 20, 35, 35, 10), Pricing{})
		double := ComputeStorage(c, fixedSplit(2*total, 20, 35, 35, 10), Pricing{})

		require.Len(t, double.Tiers, len(single.Tiers))
		for i := range single.Tiers {
			assert.InDelta(t, 2*single.Tiers[i].CapacityPB, double.Tiers[i].CapacityPB, 1e-6)
			assert.InDelta(t, 2*single.Tiers[i].Capex, double.Tiers[i].Capex, 1e-6)
			assert.InDelta(t, 2*single.Tiers[i].PowerW, double.Tiers[i].PowerW, 1e-6)
		}
		assert.InDelta(t, 2*single.Capex, double.Capex, 1e-6)
		assert.InDelta(t, 2*single.PowerW, double.PowerW, 1e-6)
	}
}

func TestComputeStorage_VendorPriceOverride(t *testing.T) {
	c := catalog.Default()
	p := Pricing{StoragePricePerGB: map[string]float64{"vast": 0.02}}

	res := ComputeStorage(c, fixedSplit(50, 20, 35, 35, 10), p)
	assert.InDelta(t, 200_000.0, res.Tiers[0].Capex, 1e-6)
	assert.InDelta(t, 0.02, res.Tiers[0].PricePerGB, 1e-12)

	// other vendors keep catalog pricing
	assert.InDelta(t, 437_500.0, res.Tiers[1].Capex, 1e-6)
}

func TestComputeStorage_Warnings(t *testing.T) {
	c := catalog.Default()

	cases := []struct {
		name     string
		config   StorageConfig
		expected []string
	}{
		{
			name:     "percentages do not sum to 100",
			config:   fixedSplit(10, 20, 35, 35, 20),
			expected: []string{"sum to 110.00%"},
		},
		{
			name: "unknown vendor falls back to tier default",
			config: StorageConfig{
				TotalPB: 10,
				Hot:     StorageTierConfig{Percent: 100, Vendor: "acme"},
			},
			expected: []string{`unknown storage vendor "acme"`},
		},
		{
			name: "unknown tier falls back to warm",
			config: StorageConfig{
				TotalPB:       10,
				SelectedTiers: []string{"hot", "lukewarm"},
				TierPercents:  map[string]float64{"hot": 50, "lukewarm": 50},
			},
			expected: []string{`unknown storage tier "lukewarm"`},
		},
		{
			name: "duplicate tier",
			config: StorageConfig{
				TotalPB:       10,
				SelectedTiers: []string{"hot", "warm", "HOT"},
				TierPercents:  map[string]float64{"hot": 50, "warm": 50},
			},
			expected: []string{`"hot" is selected more than once`},
		},
		{
			name: "capacity tiers without a performance tier",
			config: StorageConfig{
				TotalPB:       10,
				SelectedTiers: []string{"warm", "cold", "archive"},
				TierPercents:  map[string]float64{"warm": 40, "cold": 40, "archive": 20},
			},
			expected: []string{"without a performance tier"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ComputeStorage(c, tc.config, Pricing{})
			for _, e := range tc.expected {
				assert.True(t, hasWarning(res.Warnings, e), "expected warning containing %q, got %v", e, res.Warnings)
			}
		})
	}
}

func TestComputeStorage_Generalized(t *testing.T) {
	c := catalog.Default()
	sc := StorageConfig{
		TotalPB:       100,
		SelectedTiers: []string{"scratch", "cold"},
		TierPercents:  map[string]float64{"scratch": 25, "cold": 75},
		TierVendors:   map[string]string{"cold": "ceph"},
		// ignored in generalized mode
		Hot: StorageTierConfig{Percent: 100},
	}

	res := ComputeStorage(c, sc, Pricing{})
	require.Empty(t, res.Warnings)
	require.Len(t, res.Tiers, 2)

	scratch, cold := res.Tiers[0], res.Tiers[1]
	assert.Equal(t, "weka", scratch.Vendor)
	assert.InDelta(t, 25*1e6*0.035, scratch.Capex, 1e-6)
	assert.InDelta(t, 25*0.85, scratch.UsablePB, 1e-9)

	assert.Equal(t, "ceph", cold.Vendor)
	assert.InDelta(t, 75*1e6*0.010, cold.Capex, 1e-6)
	assert.InDelta(t, 75*1000*4.0, cold.PowerW, 1e-6)
}

func TestComputeStorage_UnknownTierUsesWarmPricing(t *testing.T) {
	c := catalog.Default()
	sc := StorageConfig{
		TotalPB:       10,
		SelectedTiers: []string{"hot", "lukewarm"},
		TierPercents:  map[string]float64{"hot": 50, "lukewarm": 50},
	}

	res := ComputeStorage(c, sc, Pricing{})
	require.Len(t, res.Tiers, 2)
	assert.Equal(t, "lukewarm", res.Tiers[1].Tier)
	assert.Equal(t, "warm", res.Tiers[1].Architecture)
	assert.Equal(t, "pure", res.Tiers[1].Vendor)
}
