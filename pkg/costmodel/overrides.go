package costmodel

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"

	"github.com/opencost/gputco/pkg/catalog"
)

// Override keys. Keys are matched case-insensitively; the prefixed keys take a vendor or tier id
// after the dot.
const (
	OverridePUE                       = "pue"
	OverrideGPUUnitPrice              = "gpuUnitPrice"
	OverrideSwitchPrice               = "switchPrice"
	OverrideCablePrice                = "cablePrice"
	OverrideTransceiverPrice          = "transceiverPrice"
	OverrideDPUPrice                  = "dpuPrice"
	OverrideStoragePricePerGB         = "storagePricePerGB"
	OverrideMaintenancePercent        = "maintenancePercent"
	OverrideStaffMultiplier           = "staffMultiplier"
	OverrideEnergyRate                = "energyRate"
	OverridePowerCostMultiplier       = "powerCostMultiplier"
	OverrideCoolingCostPerKW          = "coolingCostPerKW"
	OverrideCoolingOverhead           = "coolingOverhead"
	OverrideDatacenterCostPerMW       = "datacenterCostPerMW"
	OverrideBandwidthPerGPUYear       = "bandwidthPerGPUYear"
	OverrideSoftwareLicensePerGPUYear = "softwareLicensePerGPUYear"
	OverrideFTEAnnualRate             = "fteAnnualRate"
	OverrideStorageHotPercent         = "storageHotPercent"
	OverrideStorageWarmPercent        = "storageWarmPercent"
	OverrideStorageColdPercent        = "storageColdPercent"
	OverrideStorageArchivePercent     = "storageArchivePercent"
	OverrideStorageTierPercent        = "storageTierPercent"
	OverrideTotalStoragePB            = "totalStoragePB"
	OverrideUtilization               = "utilization"
	OverrideDepreciationYears         = "depreciationYears"
)

var scalarOverrideKeys = []string{
	OverridePUE,
	OverrideGPUUnitPrice,
	OverrideSwitchPrice,
	OverrideCablePrice,
	OverrideTransceiverPrice,
	OverrideDPUPrice,
	OverrideMaintenancePercent,
	OverrideStaffMultiplier,
	OverrideEnergyRate,
	OverridePowerCostMultiplier,
	OverrideCoolingCostPerKW,
	OverrideCoolingOverhead,
	OverrideDatacenterCostPerMW,
	OverrideBandwidthPerGPUYear,
	OverrideSoftwareLicensePerGPUYear,
	OverrideFTEAnnualRate,
	OverrideStorageHotPercent,
	OverrideStorageWarmPercent,
	OverrideStorageColdPercent,
	OverrideStorageArchivePercent,
	OverrideTotalStoragePB,
	OverrideUtilization,
	OverrideDepreciationYears,
}

var prefixedOverrideKeys = []string{
	OverrideStoragePricePerGB,
	OverrideStorageTierPercent,
}

var (
	folder          = cases.Fold()
	foldedScalars   = map[string]string{}
	foldedPrefixes  = map[string]string{}
	fixedTierByKey  = map[string]string{}
	fixedKeysByTier = map[string]string{}
)

func init() {
	for _, k := range scalarOverrideKeys {
		foldedScalars[folder.String(k)] = k
	}
	for _, k := range prefixedOverrideKeys {
		foldedPrefixes[folder.String(k)] = k
	}

	for tier, key := range map[string]string{
		"hot":     OverrideStorageHotPercent,
		"warm":    OverrideStorageWarmPercent,
		"cold":    OverrideStorageColdPercent,
		"archive": OverrideStorageArchivePercent,
	} {
		fixedTierByKey[key] = tier
		fixedKeysByTier[tier] = key
	}
}

// Overrides is a flat map of negotiated values keyed by override name. A present key always
// replaces the corresponding default outright.
type Overrides map[string]float64

// CanonicalOverrideKey maps any casing of a known override key onto its canonical spelling. The
// id after the dot of a prefixed key is normalized like a catalog key.
func CanonicalOverrideKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if k, ok := foldedScalars[folder.String(key)]; ok {
		return k, true
	}

	prefix, id, found := strings.Cut(key, ".")
	if !found {
		return "", false
	}
	p, ok := foldedPrefixes[folder.String(prefix)]
	id = catalog.NormalizeKey(id)
	if !ok || id == "" {
		return "", false
	}
	return p + "." + id, true
}

// Canonicalize returns a copy with canonical keys. Unknown keys and non-finite values are dropped
// with a warning. When two spellings collide the first in sorted order wins.
func (o Overrides) Canonicalize() (Overrides, []string) {
	out := Overrides{}
	var warnings []string

	keys := maps.Keys(o)
	slices.Sort(keys)

	for _, k := range keys {
		v := o[k]
		canonical, ok := CanonicalOverrideKey(k)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown override %q was ignored", k))
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			warnings = append(warnings, fmt.Sprintf("override %q has a non-finite value and was ignored", k))
			continue
		}
		if _, dup := out[canonical]; dup {
			warnings = append(warnings, fmt.Sprintf("override %q duplicates %q and was ignored", k, canonical))
			continue
		}
		out[canonical] = v
	}

	return out, warnings
}

// Keys returns the override keys in sorted order.
func (o Overrides) Keys() []string {
	keys := maps.Keys(o)
	slices.Sort(keys)
	return keys
}

func (o Overrides) lookup(key string) (float64, bool) {
	v, ok := o[key]
	return v, ok
}

// ApplyOverrides substitutes the configuration-level overrides (utilization, depreciation, storage
// capacity and tier percentages) into a copy of cfg. Applying the same overrides twice yields the
// same configuration as applying them once.
func ApplyOverrides(cfg Configuration, overrides Overrides) (Configuration, []string) {
	o, warnings := overrides.Canonicalize()
	out := cfg.Clone()

	if v, ok := o.lookup(OverrideUtilization); ok {
		out.Utilization = v
	}
	if v, ok := o.lookup(OverrideDepreciationYears); ok {
		out.DepreciationYears = int(math.Round(v))
	}
	if v, ok := o.lookup(OverrideTotalStoragePB); ok {
		out.Storage.TotalPB = v
	}

	for _, key := range o.Keys() {
		if tier, ok := fixedTierByKey[key]; ok {
			setTierPercent(&out.Storage, tier, o[key])
		}
	}

	prefix := OverrideStorageTierPercent + "."
	for _, key := range o.Keys() {
		if tier, ok := strings.CutPrefix(key, prefix); ok {
			if _, fixed := fixedKeysByTier[tier]; fixed && o.has(fixedKeysByTier[tier]) {
				// the explicit fixed-split key wins over the generic form
				continue
			}
			setTierPercent(&out.Storage, tier, o[key])
		}
	}

	return out, warnings
}

func (o Overrides) has(key string) bool {
	_, ok := o[key]
	return ok
}

func setTierPercent(sc *StorageConfig, tier string, pct float64) {
	if sc.IsGeneralized() {
		if sc.TierPercents == nil {
			sc.TierPercents = map[string]float64{}
		}
		sc.TierPercents[tier] = pct
		return
	}

	switch tier {
	case "hot":
		sc.Hot.Percent = pct
	case "warm":
		sc.Warm.Percent = pct
	case "cold":
		sc.Cold.Percent = pct
	case "archive":
		sc.Archive.Percent = pct
	}
}

// Defaults used when neither the catalogs nor an override supply a value.
const (
	DefaultDPUPrice            = 2500.0
	DefaultDPUPowerW           = 150.0
	DefaultTransceiverPowerW   = 15.0
	DefaultMaintenancePercent  = 3.0
	DefaultStaffMultiplier     = 1.0
	DefaultPowerCostMultiplier = 1.0
	DefaultDatacenterCostPerMW = 10_000_000.0
	DefaultBandwidthPerGPUYear = 120.0
	DefaultFTEAnnualRate       = 200_000.0
	DefaultGPUsPerOpsFTE       = 500

	LiquidCoolingCostPerKW = 2500.0
	AirCoolingCostPerKW    = 1200.0
	LiquidCoolingOverhead  = 0.15
	AirCoolingOverhead     = 0.45
)

// Pricing is every price, rate and fraction the subsystems consume, resolved from the catalogs
// and the overrides before any subsystem runs.
type Pricing struct {
	GPUUnitPrice        float64 `json:"gpuUnitPrice"`
	PUE                 float64 `json:"pue"`
	PUESource           string  `json:"pueSource"`
	EnergyRate          float64 `json:"energyRate"`
	PowerCostMultiplier float64 `json:"powerCostMultiplier"`
	CoolingCostPerKW    float64 `json:"coolingCostPerKW"`
	CoolingOverhead     float64 `json:"coolingOverhead"`
	DatacenterCostPerMW float64 `json:"datacenterCostPerMW"`

	SwitchPrice       float64 `json:"switchPrice"`
	CablePrice        float64 `json:"cablePrice"`
	TransceiverPrice  float64 `json:"transceiverPrice"`
	TransceiverPowerW float64 `json:"transceiverPowerW"`
	DPUPrice          float64 `json:"dpuPrice"`
	DPUPowerW         float64 `json:"dpuPowerW"`

	BandwidthPerGPUYear float64 `json:"bandwidthPerGPUYear"`

	// StoragePricePerGB holds per-vendor $/GB overrides only; vendors without an entry use the
	// catalog price.
	StoragePricePerGB map[string]float64 `json:"storagePricePerGB,omitempty"`

	MaintenancePercent float64 `json:"maintenancePercent"`
	StaffMultiplier    float64 `json:"staffMultiplier"`
	FTEAnnualRate      float64 `json:"fteAnnualRate"`

	// SoftwareLicensePerGPUYear replaces the computed license total when set.
	SoftwareLicensePerGPUYear *float64 `json:"softwareLicensePerGPUYear,omitempty"`
}

// StoragePriceFor returns the effective $/GB for a vendor.
func (p Pricing) StoragePriceFor(v catalog.StorageVendor) float64 {
	if price, ok := p.StoragePricePerGB[v.Key]; ok {
		return price
	}
	return v.PricePerGB
}

// DefaultPricing resolves pricing for a configuration without any overrides.
func DefaultPricing(c *catalog.Catalogs, cfg Configuration) Pricing {
	return ResolvePricing(c, cfg, nil)
}

// ResolvePricing resolves every overridable price, rate and fraction for a normalized
// configuration. PUE precedence is override, then the configuration's own PUE, then the catalog
// PUE for the GPU and cooling type, then the region default.
func ResolvePricing(c *catalog.Catalogs, cfg Configuration, overrides Overrides) Pricing {
	if c == nil {
		c = catalog.Default()
	}
	o, _ := overrides.Canonicalize()

	gpu, _ := c.GPU(cfg.GPUModel)
	region, _ := c.Region(cfg.Region)
	fabric, _ := c.Fabric(cfg.Fabric)

	pick := func(key string, def float64) float64 {
		if v, ok := o.lookup(key); ok {
			return v
		}
		return def
	}

	p := Pricing{
		GPUUnitPrice:        pick(OverrideGPUUnitPrice, gpu.UnitPrice),
		EnergyRate:          pick(OverrideEnergyRate, region.EnergyRate),
		PowerCostMultiplier: pick(OverridePowerCostMultiplier, DefaultPowerCostMultiplier),
		DatacenterCostPerMW: pick(OverrideDatacenterCostPerMW, DefaultDatacenterCostPerMW),
		SwitchPrice:         pick(OverrideSwitchPrice, fabric.SwitchPrice),
		CablePrice:          pick(OverrideCablePrice, fabric.CablePrice),
		TransceiverPrice:    pick(OverrideTransceiverPrice, fabric.TransceiverPrice),
		TransceiverPowerW:   DefaultTransceiverPowerW,
		DPUPrice:            pick(OverrideDPUPrice, DefaultDPUPrice),
		DPUPowerW:           DefaultDPUPowerW,
		BandwidthPerGPUYear: pick(OverrideBandwidthPerGPUYear, DefaultBandwidthPerGPUYear),
		MaintenancePercent:  pick(OverrideMaintenancePercent, DefaultMaintenancePercent),
		StaffMultiplier:     pick(OverrideStaffMultiplier, DefaultStaffMultiplier),
		FTEAnnualRate:       pick(OverrideFTEAnnualRate, DefaultFTEAnnualRate),
	}

	if cfg.Cooling == catalog.CoolingLiquid {
		p.CoolingCostPerKW = pick(OverrideCoolingCostPerKW, LiquidCoolingCostPerKW)
		p.CoolingOverhead = pick(OverrideCoolingOverhead, LiquidCoolingOverhead)
	} else {
		p.CoolingCostPerKW = pick(OverrideCoolingCostPerKW, AirCoolingCostPerKW)
		p.CoolingOverhead = pick(OverrideCoolingOverhead, AirCoolingOverhead)
	}

	if v, ok := o.lookup(OverridePUE); ok {
		p.PUE, p.PUESource = v, "override"
	} else if cfg.PUE > 0 {
		p.PUE, p.PUESource = cfg.PUE, "configuration"
	} else if pue, ok := gpu.PUE[cfg.Cooling]; ok && pue > 0 {
		p.PUE, p.PUESource = pue, "catalog"
	} else {
		p.PUE, p.PUESource = region.DefaultPUE, "region"
	}

	if v, ok := o.lookup(OverrideSoftwareLicensePerGPUYear); ok {
		p.SoftwareLicensePerGPUYear = &v
	}

	prefix := OverrideStoragePricePerGB + "."
	for _, key := range o.Keys() {
		if vendor, ok := strings.CutPrefix(key, prefix); ok {
			if p.StoragePricePerGB == nil {
				p.StoragePricePerGB = map[string]float64{}
			}
			p.StoragePricePerGB[vendor] = o[key]
		}
	}

	return p
}
