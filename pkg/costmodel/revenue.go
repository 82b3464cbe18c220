package costmodel

import (
	"fmt"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/util/mathutil"
)

// ServiceTier is an offering sold on top of the cluster, priced as a multiple of cost per GPU-hour.
type ServiceTier struct {
	Key                 string  `json:"key"`
	Name                string  `json:"name"`
	Multiplier          float64 `json:"multiplier"`
	DefaultDistribution float64 `json:"defaultDistribution"`
}

// ServiceTiers is ordered; the order is used for output and for the default distribution.
var ServiceTiers = []ServiceTier{
	{Key: "bare-metal", Name: "Bare Metal", Multiplier: 1.30, DefaultDistribution: 40},
	{Key: "managed-kubernetes", Name: "Managed Kubernetes", Multiplier: 1.50, DefaultDistribution: 25},
	{Key: "managed-slurm", Name: "Managed Slurm", Multiplier: 1.45, DefaultDistribution: 10},
	{Key: "training-platform", Name: "Training Platform", Multiplier: 1.80, DefaultDistribution: 10},
	{Key: "inference-api", Name: "Inference API", Multiplier: 2.20, DefaultDistribution: 15},
}

// Premium modifiers, added to every tier multiplier.
var (
	StoragePerformanceModifiers = map[string]float64{
		"standard":    0,
		"performance": 0.10,
		"extreme":     0.25,
	}
	ComplianceModifiers = map[string]float64{
		"soc2":     0.05,
		"hipaa":    0.08,
		"iso27001": 0.04,
		"fedramp":  0.15,
	}
	SustainabilityModifiers = map[string]float64{
		"none":           0,
		"renewable":      0.03,
		"carbon-neutral": 0.05,
	}
)

// DefaultDistribution returns a fresh copy of the default service tier mix.
func DefaultDistribution() map[string]float64 {
	d := make(map[string]float64, len(ServiceTiers))
	for _, t := range ServiceTiers {
		d[t.Key] = t.DefaultDistribution
	}
	return d
}

type ServiceModifiers struct {
	StoragePerformance string   `json:"storagePerformance,omitempty"`
	Compliance         []string `json:"compliance,omitempty"`
	Sustainability     string   `json:"sustainability,omitempty"`
}

// ServiceTierConfig enables the revenue model. An empty distribution uses DefaultDistribution.
type ServiceTierConfig struct {
	Distribution map[string]float64 `json:"distribution,omitempty"`
	Modifiers    ServiceModifiers   `json:"modifiers"`
}

func (st ServiceTierConfig) clone() ServiceTierConfig {
	out := st
	if st.Distribution != nil {
		out.Distribution = maps.Clone(st.Distribution)
	}
	if st.Modifiers.Compliance != nil {
		out.Modifiers.Compliance = slices.Clone(st.Modifiers.Compliance)
	}
	return out
}

// Total returns the summed premium of all modifiers and a warning per unknown value.
func (m ServiceModifiers) Total() (float64, []string) {
	var total float64
	var warnings []string

	if m.StoragePerformance != "" {
		key := catalog.NormalizeKey(m.StoragePerformance)
		if v, ok := StoragePerformanceModifiers[key]; ok {
			total += v
		} else {
			warnings = append(warnings, fmt.Sprintf("unknown storage performance level %q was ignored", m.StoragePerformance))
		}
	}

	for _, cert := range m.Compliance {
		key := catalog.NormalizeKey(cert)
		if v, ok := ComplianceModifiers[key]; ok {
			total += v
		} else {
			warnings = append(warnings, fmt.Sprintf("unknown compliance certification %q was ignored", cert))
		}
	}

	if m.Sustainability != "" {
		key := catalog.NormalizeKey(m.Sustainability)
		if v, ok := SustainabilityModifiers[key]; ok {
			total += v
		} else {
			warnings = append(warnings, fmt.Sprintf("unknown sustainability commitment %q was ignored", m.Sustainability))
		}
	}

	return total, warnings
}

type RevenueTier struct {
	Tier            string  `json:"tier"`
	Name            string  `json:"name"`
	Percent         float64 `json:"percent"`
	Multiplier      float64 `json:"multiplier"`
	PricePerGPUHour float64 `json:"pricePerGPUHour"`
}

type Revenue struct {
	Tiers                  []RevenueTier `json:"tiers"`
	ModifierPremium        float64       `json:"modifierPremium"`
	BlendedPricePerGPUHour float64       `json:"blendedPricePerGPUHour"`
	AnnualRevenue          float64       `json:"annualRevenue"`
	AnnualCost             float64       `json:"annualCost"`
	Margin                 float64       `json:"margin"`
	MarginPercent          float64       `json:"marginPercent"`
}

// ComputeRevenue prices every service tier off costPerGPUHour and blends them by the distribution.
// annualCost is annual depreciation plus annual opex.
func ComputeRevenue(costPerGPUHour float64, actualGPUs int, utilization, annualCost float64, st ServiceTierConfig) (*Revenue, []string) {
	premium, warnings := st.Modifiers.Total()

	dist := st.Distribution
	if len(dist) == 0 {
		dist = DefaultDistribution()
	}

	known := map[string]bool{}
	for _, t := range ServiceTiers {
		known[t.Key] = true
	}
	unknown := []string{}
	for k := range dist {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	for _, k := range unknown {
		warnings = append(warnings, fmt.Sprintf("unknown service tier %q in distribution was ignored", k))
	}

	rev := &Revenue{ModifierPremium: premium, AnnualCost: annualCost}

	var totalPct float64
	for _, t := range ServiceTiers {
		pct := dist[t.Key]
		totalPct += pct

		price := costPerGPUHour * (t.Multiplier + premium)
		rev.Tiers = append(rev.Tiers, RevenueTier{
			Tier:            t.Key,
			Name:            t.Name,
			Percent:         pct,
			Multiplier:      t.Multiplier,
			PricePerGPUHour: price,
		})
		rev.BlendedPricePerGPUHour += pct / 100 * price
	}

	if math.Abs(totalPct-100) > 1e-6 {
		warnings = append(warnings, fmt.Sprintf("service tier distribution sums to %.2f%%, not 100%%", totalPct))
	}

	rev.AnnualRevenue = rev.BlendedPricePerGPUHour * float64(actualGPUs) * hoursPerYear * utilization / 100
	rev.Margin = rev.AnnualRevenue - rev.AnnualCost
	rev.MarginPercent = mathutil.SafeDiv(rev.Margin, rev.AnnualRevenue) * 100

	return rev, warnings
}
