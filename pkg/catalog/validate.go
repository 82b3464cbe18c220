package catalog

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Validate checks the structural invariants every consumer of the catalogs relies on. All
// violations are reported together.
func (c *Catalogs) Validate() error {
	var result *multierror.Error

	for _, key := range sortedKeys(c.GPUs) {
		g := c.GPUs[key]
		if g.RackSize <= 0 {
			result = multierror.Append(result, fmt.Errorf("gpu %s: rack size must be > 0, got %d", key, g.RackSize))
		}
		if len(g.CoolingOptions) == 0 {
			result = multierror.Append(result, fmt.Errorf("gpu %s: at least one cooling option is required", key))
		}
		if !validNonNegative(g.UnitPrice) || !validNonNegative(g.PowerW) || !validNonNegative(g.RackPowerW) {
			result = multierror.Append(result, fmt.Errorf("gpu %s: price and power must be finite and non-negative", key))
		}
		for _, cooling := range g.CoolingOptions {
			if _, ok := g.PUE[cooling]; !ok {
				result = multierror.Append(result, fmt.Errorf("gpu %s: missing PUE for %s cooling", key, cooling))
			}
		}
		for cooling, pue := range g.PUE {
			if pue < 1 || !validNonNegative(pue) {
				result = multierror.Append(result, fmt.Errorf("gpu %s: PUE for %s must be >= 1, got %v", key, cooling, pue))
			}
		}
	}

	for _, key := range sortedKeys(c.Regions) {
		r := c.Regions[key]
		if !validNonNegative(r.EnergyRate) {
			result = multierror.Append(result, fmt.Errorf("region %s: energy rate must be finite and non-negative", key))
		}
		if r.DefaultPUE < 1 {
			result = multierror.Append(result, fmt.Errorf("region %s: default PUE must be >= 1, got %v", key, r.DefaultPUE))
		}
	}

	for _, key := range sortedKeys(c.Fabrics) {
		f := c.Fabrics[key]
		if f.PortsPerSwitch <= 0 {
			result = multierror.Append(result, fmt.Errorf("fabric %s: ports per switch must be > 0", key))
		}
		if !validNonNegative(f.SwitchPrice) || !validNonNegative(f.CablePrice) || !validNonNegative(f.TransceiverPrice) {
			result = multierror.Append(result, fmt.Errorf("fabric %s: prices must be finite and non-negative", key))
		}
	}

	for _, key := range sortedKeys(c.StorageVendors) {
		v := c.StorageVendors[key]
		if !validNonNegative(v.PricePerGB) || !validNonNegative(v.PowerPerTBW) {
			result = multierror.Append(result, fmt.Errorf("storage vendor %s: price and power must be finite and non-negative", key))
		}
	}

	for _, key := range sortedKeys(c.StorageArchitectures) {
		a := c.StorageArchitectures[key]
		e := a.Infrastructure.UsableEfficiency
		if e <= 0 || e > 1 {
			result = multierror.Append(result, fmt.Errorf("storage tier %s: usable efficiency must be in (0, 1], got %v", key, e))
		}
		if _, ok := c.StorageVendors[a.DefaultVendor]; !ok {
			result = multierror.Append(result, fmt.Errorf("storage tier %s: default vendor %q is not in the catalog", key, a.DefaultVendor))
		}
	}

	for _, key := range sortedKeys(c.SoftwareComponents) {
		sc := c.SoftwareComponents[key]
		switch sc.PricingUnit {
		case PricingPerGPU:
		case PricingPerNode:
			if sc.GPUsPerNode <= 0 {
				result = multierror.Append(result, fmt.Errorf("software component %s: node-priced components need gpusPerNode > 0", key))
			}
		default:
			result = multierror.Append(result, fmt.Errorf("software component %s: unknown pricing unit %q", key, sc.PricingUnit))
		}
	}

	for _, key := range sortedKeys(c.SoftwareStacks) {
		s := c.SoftwareStacks[key]
		for _, comp := range s.Components {
			if _, ok := c.SoftwareComponents[comp]; !ok {
				result = multierror.Append(result, fmt.Errorf("software stack %s: unknown component %q", key, comp))
			}
		}
		if s.RequiredFTEs < 0 {
			result = multierror.Append(result, fmt.Errorf("software stack %s: required FTEs must be >= 0", key))
		}
	}

	defaults := []struct {
		name string
		ok   bool
	}{
		{"gpu " + c.DefaultGPU, hasKey(c.GPUs, c.DefaultGPU)},
		{"region " + c.DefaultRegion, hasKey(c.Regions, c.DefaultRegion)},
		{"fabric " + c.DefaultFabric, hasKey(c.Fabrics, c.DefaultFabric)},
		{"storage tier " + c.DefaultStorageTier, hasKey(c.StorageArchitectures, c.DefaultStorageTier)},
		{"software stack " + c.DefaultStack, hasKey(c.SoftwareStacks, c.DefaultStack)},
	}
	for _, d := range defaults {
		if !d.ok {
			result = multierror.Append(result, fmt.Errorf("default %s is not in the catalog", d.name))
		}
	}

	return result.ErrorOrNil()
}

func validNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

func hasKey[V any](m map[string]V, key string) bool {
	_, ok := m[key]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
