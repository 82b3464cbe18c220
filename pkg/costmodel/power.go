package costmodel

import (
	"github.com/opencost/gputco/pkg/catalog"
)

const hoursPerYear = 8760

// PowerResult breaks facility power down by watt class and prices it.
type PowerResult struct {
	Cooling catalog.CoolingType `json:"cooling"`

	GPUW       float64 `json:"gpuW"`
	SystemAuxW float64 `json:"systemAuxW"`
	DPUW       float64 `json:"dpuW"`
	NetworkW   float64 `json:"networkW"`
	StorageW   float64 `json:"storageW"`

	ITkW      float64 `json:"itKW"`
	CoolingkW float64 `json:"coolingKW"`
	TotalkW   float64 `json:"totalKW"`
	PUE       float64 `json:"pue"`
	PUESource string  `json:"pueSource"`

	AnnualkWh       float64 `json:"annualKWh"`
	EnergyRate      float64 `json:"energyRate"`
	AnnualPowerCost float64 `json:"annualPowerCost"`

	CoolingCapex    float64 `json:"coolingCapex"`
	CoolingOpex     float64 `json:"coolingOpex"`
	DatacenterCapex float64 `json:"datacenterCapex"`
}

// ComputePower derives IT and facility power from the sized cluster and the network and storage
// subsystems, then prices energy, cooling and datacenter shell. The cooling type is trusted as
// given; normalization has already forced it for single-option systems.
func ComputePower(sz Sizing, gpu catalog.GPUSpec, cooling catalog.CoolingType, net NetworkResult, storage StorageResult, p Pricing) PowerResult {
	pw := PowerResult{
		Cooling:    cooling,
		GPUW:       float64(sz.ActualGPUs) * gpu.PowerW,
		SystemAuxW: float64(sz.Systems) * gpu.AuxPowerW(),
		DPUW:       net.DPUPowerW,
		NetworkW:   net.PowerW,
		StorageW:   storage.PowerW,
		PUE:        p.PUE,
		PUESource:  p.PUESource,
		EnergyRate: p.EnergyRate,
	}

	itW := pw.GPUW + pw.SystemAuxW + pw.DPUW + pw.NetworkW + pw.StorageW
	totalW := itW * pw.PUE

	pw.ITkW = itW / 1000
	pw.TotalkW = totalW / 1000
	pw.CoolingkW = pw.TotalkW - pw.ITkW

	pw.AnnualkWh = pw.TotalkW * hoursPerYear
	pw.AnnualPowerCost = pw.AnnualkWh * p.EnergyRate * p.PowerCostMultiplier

	pw.CoolingCapex = p.CoolingCostPerKW * pw.ITkW
	pw.CoolingOpex = pw.AnnualPowerCost * p.CoolingOverhead
	pw.DatacenterCapex = p.DatacenterCostPerMW * pw.TotalkW / 1000

	return pw
}
