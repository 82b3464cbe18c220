package costmodel

import (
	"fmt"

	"github.com/opencost/gputco/pkg/util/mathutil"
)

// TCOHorizons are the horizons always reported in Results.TCOByYears.
var TCOHorizons = []int{1, 3, 5}

// Aggregate sums the subsystem results into capex, opex and the derived per-GPU-hour and TCO
// figures, and builds the line item table.
func Aggregate(r *Results) {
	p := r.Pricing
	sz := r.Sizing

	r.Capex = CapexBreakdown{
		GPU:        float64(sz.ActualGPUs) * p.GPUUnitPrice,
		Storage:    r.Storage.Capex,
		Network:    r.Network.TotalCost,
		Cooling:    r.Power.CoolingCapex,
		Datacenter: r.Power.DatacenterCapex,
		DPU:        r.Network.DPUCost,
		Software:   r.Software.UpfrontCost,
	}
	r.Capex.sum()

	r.OpsFTEs = mathutil.CeilDiv(sz.ActualGPUs, DefaultGPUsPerOpsFTE)
	opsStaff := float64(r.OpsFTEs) * p.FTEAnnualRate * p.StaffMultiplier
	softwareStaff := r.Software.FTECost * p.StaffMultiplier

	maintained := r.Capex.GPU + r.Capex.Network + r.Capex.DPU + r.Capex.Storage

	r.Opex = OpexBreakdown{
		Power:       r.Power.AnnualPowerCost,
		Cooling:     r.Power.CoolingOpex,
		Staff:       opsStaff + softwareStaff,
		Maintenance: p.MaintenancePercent / 100 * maintained,
		Storage:     r.Storage.AnnualOpex,
		Bandwidth:   r.Network.AnnualBandwidthCost,
		Software:    r.Software.AnnualLicense,
	}
	r.Opex.sum()

	years := r.Configuration.DepreciationYears
	r.AnnualDepreciation = mathutil.SafeDiv(r.Capex.Total, float64(years))

	gpuHours := float64(sz.ActualGPUs) * hoursPerYear * r.Configuration.Utilization / 100
	r.CostPerGPUHour = mathutil.SafeDiv(r.AnnualDepreciation+r.Opex.Total, gpuHours)

	r.TCOYears = years
	r.TCO = r.TCOFor(years)
	r.TCOByYears = make(map[int]float64, len(TCOHorizons)+1)
	for _, n := range TCOHorizons {
		r.TCOByYears[n] = r.TCOFor(n)
	}
	r.TCOByYears[years] = r.TCO

	r.LineItems = buildLineItems(r, opsStaff, softwareStaff)
}

func buildLineItems(r *Results, opsStaff, softwareStaff float64) []LineItem {
	p := r.Pricing
	var items []LineItem

	add := func(kind LineItemKind, category, item string, qty float64, unit string, unitCost, total float64) {
		if total == 0 && qty == 0 {
			return
		}
		items = append(items, LineItem{
			Category: category,
			Item:     item,
			Quantity: qty,
			Unit:     unit,
			UnitCost: unitCost,
			Total:    total,
			Kind:     kind,
		})
	}

	gpuName := r.Configuration.GPUModel
	add(KindCapex, "compute", gpuName+" GPUs", float64(r.Sizing.ActualGPUs), "gpu", p.GPUUnitPrice, r.Capex.GPU)

	n := r.Network
	add(KindCapex, "network", "switches", float64(n.TotalSwitches), "switch", p.SwitchPrice, n.SwitchCost)
	add(KindCapex, "network", "cables", float64(n.Cables), "cable", p.CablePrice, n.CableCost)
	add(KindCapex, "network", "transceivers", float64(n.Transceivers), "transceiver", p.TransceiverPrice, n.TransceiverCost)
	add(KindCapex, "network", "DPUs", float64(n.DPUs), "dpu", p.DPUPrice, n.DPUCost)

	for _, t := range r.Storage.Tiers {
		add(KindCapex, "storage", fmt.Sprintf("%s tier (%s)", t.Tier, t.Vendor), t.CapacityPB, "PB", t.PricePerGB*gbPerPB, t.Capex)
	}

	add(KindCapex, "facility", string(r.Power.Cooling)+" cooling infrastructure", r.Power.ITkW, "kW", p.CoolingCostPerKW, r.Power.CoolingCapex)
	add(KindCapex, "facility", "datacenter build-out", r.Power.TotalkW/1000, "MW", p.DatacenterCostPerMW, r.Power.DatacenterCapex)

	for _, li := range r.Software.LineItems {
		if li.SetupCost > 0 {
			add(KindCapex, "software", li.Name+" setup", 1, "", li.SetupCost, li.SetupCost)
		}
	}

	add(KindOpex, "facility", "power", r.Power.AnnualkWh, "kWh", p.EnergyRate*p.PowerCostMultiplier, r.Power.AnnualPowerCost)
	add(KindOpex, "facility", "cooling operations", 1, "", r.Power.CoolingOpex, r.Power.CoolingOpex)
	add(KindOpex, "staff", "operations staff", float64(r.OpsFTEs), "fte", p.FTEAnnualRate*p.StaffMultiplier, opsStaff)
	add(KindOpex, "staff", "software platform staff", r.Software.RequiredFTEs, "fte", p.FTEAnnualRate*p.StaffMultiplier, softwareStaff)
	add(KindOpex, "maintenance", "hardware maintenance", 1, "", r.Opex.Maintenance, r.Opex.Maintenance)

	for _, t := range r.Storage.Tiers {
		add(KindOpex, "storage", fmt.Sprintf("%s tier operations", t.Tier), t.CapacityPB, "PB", mathutil.SafeDiv(t.AnnualOpex, t.CapacityPB), t.AnnualOpex)
	}

	add(KindOpex, "network", "bandwidth", float64(r.Sizing.ActualGPUs), "gpu", p.BandwidthPerGPUYear, n.AnnualBandwidthCost)

	if p.SoftwareLicensePerGPUYear != nil {
		add(KindOpex, "software", "negotiated licenses", float64(r.Sizing.ActualGPUs), "gpu", *p.SoftwareLicensePerGPUYear, r.Software.AnnualLicense)
	} else {
		for _, li := range r.Software.LineItems {
			if li.AnnualCost > 0 {
				add(KindOpex, "software", li.Name+" licenses", float64(li.Units), string(li.PricingUnit), li.UnitCost, li.AnnualCost)
			}
		}
	}

	return items
}
