// Package costmodel is the GPU cluster cost-composition engine together with the HTTP API that
// serves it.
//
// The engine is a pipeline of pure functions over a Configuration, read-only catalogs and a flat
// map of overrides:
//
//	sizing -> network -> storage -> software -> power -> aggregate -> revenue
//
// Overrides are resolved before any subsystem runs: configuration-level overrides are merged by
// ApplyOverrides and every price or rate is resolved into a Pricing value by ResolvePricing. The
// engine never returns an error. Problems with the input are reported as warnings and the
// computation continues with defaults.
package costmodel

import (
	"github.com/opencost/gputco/pkg/catalog"
)

// ComputeTCO runs the full engine. It is total and deterministic: the same inputs always produce
// the same Results, and nil catalogs fall back to the built-in catalogs.
func ComputeTCO(cfg Configuration, catalogs *catalog.Catalogs, overrides Overrides) *Results {
	if catalogs == nil {
		catalogs = catalog.Default()
	}

	merged, warnings := ApplyOverrides(cfg, overrides)
	normalized, w := merged.Normalize(catalogs)
	warnings = append(warnings, w...)

	pricing := ResolvePricing(catalogs, normalized, overrides)
	applied, _ := overrides.Canonicalize()

	gpu, _ := catalogs.GPU(normalized.GPUModel)
	fabric, _ := catalogs.Fabric(normalized.Fabric)

	r := &Results{
		Configuration:    normalized,
		Pricing:          pricing,
		AppliedOverrides: applied.Keys(),
	}

	r.Sizing = SizeCluster(gpu, normalized.GPUCount)

	r.Network, w = ComputeNetwork(r.Sizing, gpu, fabric, normalized, pricing)
	warnings = append(warnings, w...)

	r.Storage = ComputeStorage(catalogs, normalized.Storage, pricing)
	warnings = append(warnings, r.Storage.Warnings...)

	r.Software = CalculateStackCost(catalogs, normalized.SoftwareStack, r.Sizing.ActualGPUs, normalized.DepreciationYears, normalized.SupportTier, pricing)
	warnings = append(warnings, r.Software.Warnings...)

	r.Power = ComputePower(r.Sizing, gpu, normalized.Cooling, r.Network, r.Storage, pricing)

	Aggregate(r)

	if normalized.ServiceTiers != nil {
		r.Revenue, w = ComputeRevenue(r.CostPerGPUHour, r.Sizing.ActualGPUs, normalized.Utilization, r.AnnualDepreciation+r.Opex.Total, *normalized.ServiceTiers)
		warnings = append(warnings, w...)
	}

	if warnings == nil {
		warnings = []string{}
	}
	r.Warnings = warnings

	return r
}
