package costmodel

import (
	"fmt"

	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/util/mathutil"
)

type SoftwareLineItem struct {
	Component   string              `json:"component"`
	Name        string              `json:"name"`
	PricingUnit catalog.PricingUnit `json:"pricingUnit"`
	Units       int                 `json:"units"`
	UnitCost    float64             `json:"unitCost"`
	AnnualCost  float64             `json:"annualCost"`
	SetupCost   float64             `json:"setupCost"`
}

type StackCost struct {
	Stack         string              `json:"stack"`
	Name          string              `json:"name"`
	GPUCount      int                 `json:"gpuCount"`
	Years         int                 `json:"years"`
	SupportTier   catalog.SupportTier `json:"supportTier,omitempty"`
	UpfrontCost   float64             `json:"upfrontCost"`
	AnnualLicense float64             `json:"annualLicense"`
	RequiredFTEs  float64             `json:"requiredFTEs"`
	FTECost       float64             `json:"fteCost"`
	AnnualCost    float64             `json:"annualCost"`
	TotalTCO      float64             `json:"totalTCO"`
	PerGPUCost    float64             `json:"perGPUCost"`
	LineItems     []SoftwareLineItem  `json:"lineItems"`
	Warnings      []string            `json:"warnings,omitempty"`
}

// CalculateStackCost prices a software stack for gpuCount GPUs over years. Node-priced components
// are billed per whole node: the per-GPU catalog rate is converted back to a node rate and
// multiplied by ceil(gpuCount / gpusPerNode). p must be resolved, see ResolvePricing and
// DefaultPricing; its FTE rate is used as is.
func CalculateStackCost(c *catalog.Catalogs, stackID string, gpuCount, years int, tier catalog.SupportTier, p Pricing) StackCost {
	if c == nil {
		c = catalog.Default()
	}
	if gpuCount < 0 {
		gpuCount = 0
	}
	if years < 0 {
		years = 0
	}

	var warnings []string
	stack, ok := c.Stack(stackID)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("unknown software stack %q, using %s", stackID, stack.Key))
	}

	sc := StackCost{
		Stack:        stack.Key,
		Name:         stack.Name,
		GPUCount:     gpuCount,
		Years:        years,
		SupportTier:  tier,
		RequiredFTEs: stack.RequiredFTEs,
	}

	inStack := map[string]bool{}
	for _, key := range stack.Components {
		inStack[catalog.NormalizeKey(key)] = true
	}

	for _, key := range stack.Components {
		comp, ok := c.Component(key)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("software stack %s references unknown component %q", stack.Key, key))
			continue
		}

		for _, dep := range comp.Dependencies {
			if !inStack[catalog.NormalizeKey(dep)] {
				warnings = append(warnings, fmt.Sprintf("%s depends on %s, which is not part of the %s stack", comp.Key, dep, stack.Key))
			}
		}

		rate := comp.RateFor(tier)
		item := SoftwareLineItem{
			Component:   comp.Key,
			Name:        comp.Name,
			PricingUnit: comp.PricingUnit,
			SetupCost:   comp.SetupCost,
		}

		if comp.IsNodePriced() && comp.GPUsPerNode > 0 {
			item.Units = mathutil.CeilDiv(gpuCount, comp.GPUsPerNode)
			item.UnitCost = rate * float64(comp.GPUsPerNode)
		} else {
			item.Units = gpuCount
			item.UnitCost = rate
		}
		item.AnnualCost = item.UnitCost * float64(item.Units)

		sc.LineItems = append(sc.LineItems, item)
		sc.UpfrontCost += item.SetupCost
		sc.AnnualLicense += item.AnnualCost
	}

	if p.SoftwareLicensePerGPUYear != nil {
		sc.AnnualLicense = *p.SoftwareLicensePerGPUYear * float64(gpuCount)
	}

	sc.FTECost = stack.RequiredFTEs * p.FTEAnnualRate
	sc.AnnualCost = sc.AnnualLicense + sc.FTECost
	sc.TotalTCO = sc.UpfrontCost + sc.AnnualCost*float64(years)
	sc.PerGPUCost = mathutil.SafeDiv(mathutil.SafeDiv(sc.TotalTCO, float64(gpuCount)), float64(years))
	sc.Warnings = warnings

	return sc
}
