package costmodel

import (
	"fmt"
	"math"

	"github.com/opencost/gputco/pkg/catalog"
)

// Decimal SI units: 1 PB = 1e6 GB = 1000 TB.
const (
	gbPerPB = 1e6
	tbPerPB = 1000
)

var fixedTierOrder = []string{"hot", "warm", "cold", "archive"}

type TierAllocation struct {
	Tier           string  `json:"tier"`
	Architecture   string  `json:"architecture"`
	Vendor         string  `json:"vendor"`
	Percent        float64 `json:"percent"`
	CapacityPB     float64 `json:"capacityPB"`
	UsablePB       float64 `json:"usablePB"`
	PricePerGB     float64 `json:"pricePerGB"`
	Capex          float64 `json:"capex"`
	AnnualOpex     float64 `json:"annualOpex"`
	PowerW         float64 `json:"powerW"`
	ThroughputGBps float64 `json:"throughputGBps"`
}

type StorageResult struct {
	TotalPB        float64          `json:"totalPB"`
	UsablePB       float64          `json:"usablePB"`
	TotalPercent   float64          `json:"totalPercent"`
	Tiers          []TierAllocation `json:"tiers"`
	Capex          float64          `json:"capex"`
	AnnualOpex     float64          `json:"annualOpex"`
	PowerW         float64          `json:"powerW"`
	ThroughputGBps float64          `json:"throughputGBps"`
	Warnings       []string         `json:"warnings,omitempty"`
}

type tierRequest struct {
	tier    string
	percent float64
	vendor  string
}

func tierRequests(sc StorageConfig) ([]tierRequest, []string) {
	if !sc.IsGeneralized() {
		fixed := map[string]StorageTierConfig{"hot": sc.Hot, "warm": sc.Warm, "cold": sc.Cold, "archive": sc.Archive}
		reqs := make([]tierRequest, 0, len(fixedTierOrder))
		for _, tier := range fixedTierOrder {
			reqs = append(reqs, tierRequest{tier: tier, percent: fixed[tier].Percent, vendor: fixed[tier].Vendor})
		}
		return reqs, nil
	}

	var warnings []string
	seen := map[string]bool{}
	reqs := make([]tierRequest, 0, len(sc.SelectedTiers))
	for _, raw := range sc.SelectedTiers {
		tier := catalog.NormalizeKey(raw)
		if seen[tier] {
			warnings = append(warnings, fmt.Sprintf("storage tier %q is selected more than once; later selections are ignored", tier))
			continue
		}
		seen[tier] = true

		pct, ok := sc.TierPercents[tier]
		if !ok {
			pct = sc.TierPercents[raw]
		}
		vendor, ok := sc.TierVendors[tier]
		if !ok {
			vendor = sc.TierVendors[raw]
		}
		reqs = append(reqs, tierRequest{tier: tier, percent: pct, vendor: vendor})
	}
	return reqs, warnings
}

// ComputeStorage allocates the total capacity across tiers and prices each tier through its
// vendor. Percentages are used as given: a split that does not sum to 100 only produces a warning.
func ComputeStorage(c *catalog.Catalogs, sc StorageConfig, p Pricing) StorageResult {
	if c == nil {
		c = catalog.Default()
	}

	reqs, warnings := tierRequests(sc)
	res := StorageResult{TotalPB: sc.TotalPB}

	hasPerformance, capacityTiers := false, []string{}

	for _, req := range reqs {
		arch, ok := c.StorageTier(req.tier)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown storage tier %q, priced as %s", req.tier, arch.Key))
		}

		var vendor catalog.StorageVendor
		if req.vendor == "" {
			vendor = c.StorageVendors[arch.DefaultVendor]
		} else {
			vendor, ok = c.StorageVendorFor(arch, req.vendor)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("unknown storage vendor %q for tier %s, using %s", req.vendor, req.tier, vendor.Key))
			}
		}

		capacity := sc.TotalPB * req.percent / 100
		price := p.StoragePriceFor(vendor)

		alloc := TierAllocation{
			Tier:           req.tier,
			Architecture:   arch.Key,
			Vendor:         vendor.Key,
			Percent:        req.percent,
			CapacityPB:     capacity,
			UsablePB:       capacity * arch.Infrastructure.UsableEfficiency,
			PricePerGB:     price,
			Capex:          capacity * gbPerPB * price,
			AnnualOpex:     capacity * arch.CostPerPB.OpexAnnual,
			PowerW:         capacity * tbPerPB * vendor.PowerPerTBW,
			ThroughputGBps: capacity * arch.Performance.ThroughputGBpsPerPB,
		}

		res.Tiers = append(res.Tiers, alloc)
		res.TotalPercent += alloc.Percent
		res.UsablePB += alloc.UsablePB
		res.Capex += alloc.Capex
		res.AnnualOpex += alloc.AnnualOpex
		res.PowerW += alloc.PowerW
		res.ThroughputGBps += alloc.ThroughputGBps

		if alloc.Percent > 0 {
			if arch.IsPerformanceTier() {
				hasPerformance = true
			}
			if arch.IsCapacityTier() {
				capacityTiers = append(capacityTiers, req.tier)
			}
		}
	}

	if len(reqs) > 0 && math.Abs(res.TotalPercent-100) > 1e-6 {
		warnings = append(warnings, fmt.Sprintf("storage tier percentages sum to %.2f%%, not 100%%", res.TotalPercent))
	}

	if !hasPerformance && len(capacityTiers) > 0 {
		warnings = append(warnings, fmt.Sprintf("capacity tiers %v are allocated without a performance tier (hot or scratch) in front of them", capacityTiers))
	}

	res.Warnings = warnings
	return res
}
