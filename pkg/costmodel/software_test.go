package costmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencost/gputco/pkg/catalog"
)

func defaultStackPricing() Pricing {
	return Pricing{FTEAnnualRate: DefaultFTEAnnualRate, StaffMultiplier: DefaultStaffMultiplier}
}

func TestCalculateStackCost_NvidiaEnterprise(t *testing.T) {
	c := catalog.Default()

	cases := []struct {
		name    string
		tier    catalog.SupportTier
		license float64
	}{
		// nvaie 4500*1000 + bcm (250*4)*250 nodes
		{"base rates", catalog.SupportNone, 4_500_000 + 250_000},
		// nvaie 5500*1000 + bcm (400*4)*250 + slurm (120*4)*250
		{"enterprise support", catalog.SupportEnterprise, 5_500_000 + 400_000 + 120_000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := CalculateStackCost(c, "nvidia-enterprise", 1000, 5, tc.tier, defaultStackPricing())
			require.Empty(t, sc.Warnings)

			assert.InDelta(t, 40_000.0, sc.UpfrontCost, 1e-6)
			assert.InDelta(t, tc.license, sc.AnnualLicense, 1e-6)
			assert.InDelta(t, 1_200_000.0, sc.FTECost, 1e-6)
			assert.InDelta(t, tc.license+1_200_000, sc.AnnualCost, 1e-6)
			assert.InDelta(t, 40_000+5*(tc.license+1_200_000), sc.TotalTCO, 1e-6)
			assert.InDelta(t, sc.TotalTCO/1000/5, sc.PerGPUCost, 1e-9)
		})
	}
}

func TestCalculateStackCost_NodePricedRoundTrip(t *testing.T) {
	c := catalog.Default()
	p := defaultStackPricing()

	for _, n := range []int{1, 3, 4, 5, 13, 100, 1023, 1024, 10_001} {
		rounded := 4 * ((n + 3) / 4)

		a := CalculateStackCost(c, "hpc-managed", n, 3, catalog.SupportBusiness, p)
		b := CalculateStackCost(c, "hpc-managed", rounded, 3, catalog.SupportBusiness, p)

		assert.Equal(t, a.UpfrontCost, b.UpfrontCost, "n=%d", n)
		assert.Equal(t, a.AnnualLicense, b.AnnualLicense, "n=%d", n)
		assert.Equal(t, a.FTECost, b.FTECost, "n=%d", n)
		assert.Equal(t, a.AnnualCost, b.AnnualCost, "n=%d", n)
		assert.Equal(t, a.TotalTCO, b.TotalTCO, "n=%d", n)
	}
}

func TestCalculateStackCost_NodePricingAtSmallCounts(t *testing.T) {
	c := catalog.Default()

	// 5 GPUs need two 4-GPU nodes of base-command-manager at 250*4 per node
	sc := CalculateStackCost(c, "hpc-managed", 5, 1, catalog.SupportNone, defaultStackPricing())
	require.Len(t, sc.LineItems, 2)

	bcm := sc.LineItems[0]
	assert.Equal(t, "base-command-manager", bcm.Component)
	assert.Equal(t, 2, bcm.Units)
	assert.InDelta(t, 1_000.0, bcm.UnitCost, 1e-9)
	assert.InDelta(t, 2_000.0, bcm.AnnualCost, 1e-9)
}

func TestCalculateStackCost_Fallbacks(t *testing.T) {
	c := catalog.Default()

	sc := CalculateStackCost(c, "does-not-exist", 64, 5, catalog.SupportNone, defaultStackPricing())
	assert.Equal(t, c.DefaultStack, sc.Stack)
	assert.True(t, hasWarning(sc.Warnings, `unknown software stack "does-not-exist"`))

	c.SoftwareStacks["lonely-runai"] = catalog.SoftwareStack{
		Key:          "lonely-runai",
		Components:   []string{"run-ai", "missing-component"},
		RequiredFTEs: 1,
	}
	sc = CalculateStackCost(c, "Lonely-RunAI", 64, 5, catalog.SupportNone, defaultStackPricing())
	assert.Equal(t, "lonely-runai", sc.Stack)
	assert.True(t, hasWarning(sc.Warnings, "run-ai depends on kubernetes"))
	assert.True(t, hasWarning(sc.Warnings, `unknown component "missing-component"`))
	assert.InDelta(t, 1200*64.0, sc.AnnualLicense, 1e-9)
}

func TestCalculateStackCost_Overrides(t *testing.T) {
	c := catalog.Default()
	license := 100.0
	p := Pricing{FTEAnnualRate: 150_000, StaffMultiplier: 1, SoftwareLicensePerGPUYear: &license}

	sc := CalculateStackCost(c, "nvidia-enterprise", 1000, 5, catalog.SupportEnterprise, p)
	assert.InDelta(t, 100_000.0, sc.AnnualLicense, 1e-9)
	assert.InDelta(t, 6*150_000.0, sc.FTECost, 1e-9)

	// a zero rate is a real price, even when the staff multiplier is zero too
	cfg := DefaultConfiguration(c)
	cfg.SoftwareStack = "nvidia-enterprise"
	o := Overrides{OverrideFTEAnnualRate: 0, OverrideStaffMultiplier: 0}

	sc = CalculateStackCost(c, "nvidia-enterprise", 1000, 5, catalog.SupportNone, ResolvePricing(c, cfg, o))
	assert.Zero(t, sc.FTECost)
	assert.InDelta(t, sc.AnnualLicense, sc.AnnualCost, 1e-9)

	r := ComputeTCO(cfg, c, o)
	assert.Equal(t, "nvidia-enterprise", r.Software.Stack)
	assert.Zero(t, r.Software.FTECost)
	assert.InDelta(t, r.Software.AnnualLicense, r.Software.AnnualCost, 1e-9)
}

func TestCalculateStackCost_ZeroDivisors(t *testing.T) {
	c := catalog.Default()

	sc := CalculateStackCost(c, "open-source-hpc", 0, 5, catalog.SupportNone, defaultStackPricing())
	assert.Zero(t, sc.PerGPUCost)
	assert.Zero(t, sc.AnnualLicense)

	sc = CalculateStackCost(c, "open-source-hpc", 64, 0, catalog.SupportNone, defaultStackPricing())
	assert.Zero(t, sc.PerGPUCost)
	assert.InDelta(t, sc.UpfrontCost, sc.TotalTCO, 1e-9)
}
