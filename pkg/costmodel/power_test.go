package costmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencost/gputco/pkg/catalog"
)

func TestComputePower_H100Air(t *testing.T) {
	c := catalog.Default()
	cfg, _ := DefaultConfiguration(c).Normalize(c)
	gpu, _ := c.GPU("h100")
	sz := SizeCluster(gpu, 1024)

	pw := ComputePower(sz, gpu, cfg.Cooling, NetworkResult{}, StorageResult{}, DefaultPricing(c, cfg))

	// 1024*700 W of GPUs plus 128 systems * (10200 - 8*700) W auxiliary
	assert.InDelta(t, 716_800.0, pw.GPUW, 1e-6)
	assert.InDelta(t, 588_800.0, pw.SystemAuxW, 1e-6)
	assert.InDelta(t, 1_305.6, pw.ITkW, 1e-9)
	assert.InDelta(t, 1.40, pw.PUE, 1e-12)
	assert.InDelta(t, 1_827.84, pw.TotalkW, 1e-6)
	assert.InDelta(t, 522.24, pw.CoolingkW, 1e-6)
	assert.InDelta(t, 1_827.84*8760, pw.AnnualkWh, 1e-3)
	assert.InDelta(t, 1_827.84*8760*0.085, pw.AnnualPowerCost, 1e-3)
	assert.InDelta(t, 1_200*1_305.6, pw.CoolingCapex, 1e-3)
	assert.InDelta(t, 0.45*1_827.84*8760*0.085, pw.CoolingOpex, 1e-3)
	assert.InDelta(t, 10_000_000*1.82784, pw.DatacenterCapex, 1e-3)
}

func TestComputePower_IncludesSubsystemWatts(t *testing.T) {
	c := catalog.Default()
	cfg, _ := DefaultConfiguration(c).Normalize(c)
	gpu, _ := c.GPU("h100")
	sz := SizeCluster(gpu, 8)
	p := DefaultPricing(c, cfg)

	base := ComputePower(sz, gpu, cfg.Cooling, NetworkResult{}, StorageResult{}, p)
	with := ComputePower(sz, gpu, cfg.Cooling, NetworkResult{PowerW: 2_000, DPUPowerW: 150}, StorageResult{PowerW: 850}, p)

	assert.InDelta(t, base.ITkW+3.0, with.ITkW, 1e-9)
	assert.InDelta(t, 150.0, with.DPUW, 1e-9)
	assert.InDelta(t, 2_000.0, with.NetworkW, 1e-9)
	assert.InDelta(t, 850.0, with.StorageW, 1e-9)
}

func TestComputePower_RackScaleHasNoNegativeAux(t *testing.T) {
	gpu := catalog.GPUSpec{PowerW: 1000, RackSize: 8, RackPowerW: 7000}
	pw := ComputePower(SizeCluster(gpu, 8), gpu, catalog.CoolingLiquid, NetworkResult{}, StorageResult{}, Pricing{PUE: 1})

	assert.Zero(t, pw.SystemAuxW)
	assert.InDelta(t, 8.0, pw.ITkW, 1e-9)
	assert.InDelta(t, 0.0, pw.CoolingkW, 1e-9)
}

func TestComputePower_PowerCostMultiplier(t *testing.T) {
	c := catalog.Default()
	cfg, _ := DefaultConfiguration(c).Normalize(c)
	gpu, _ := c.GPU("h100")
	sz := SizeCluster(gpu, 1024)

	base := ComputePower(sz, gpu, cfg.Cooling, NetworkResult{}, StorageResult{}, DefaultPricing(c, cfg))
	doubled := ComputePower(sz, gpu, cfg.Cooling, NetworkResult{}, StorageResult{}, ResolvePricing(c, cfg, Overrides{"powerCostMultiplier": 2}))

	assert.InDelta(t, 2*base.AnnualPowerCost, doubled.AnnualPowerCost, 1e-6)
	assert.InDelta(t, 2*base.CoolingOpex, doubled.CoolingOpex, 1e-6)
	assert.InDelta(t, base.CoolingCapex, doubled.CoolingCapex, 1e-6)
}
