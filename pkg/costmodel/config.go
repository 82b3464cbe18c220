package costmodel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/opencost/gputco/pkg/catalog"
	"github.com/opencost/gputco/pkg/util/json"
	"github.com/opencost/gputco/pkg/util/mapper"
)

const (
	DefaultGPUCount          = 1024
	DefaultUtilization       = 80.0
	DefaultDepreciationYears = 5
	DefaultOversubscription  = "1:1"
	DefaultRailsPerGPU       = 1
)

type Topology string

const (
	TopologyFatTree   Topology = "fat-tree"
	TopologyDragonfly Topology = "dragonfly"
	TopologyBCube     Topology = "bcube"
)

// StorageTierConfig is one entry of the fixed four-tier storage split.
type StorageTierConfig struct {
	Percent float64 `json:"percent"`
	Vendor  string  `json:"vendor,omitempty"`
}

// StorageConfig describes the storage estate. When SelectedTiers is non-empty the generalized
// selection (SelectedTiers, TierPercents, TierVendors) is used and the fixed split is ignored.
type StorageConfig struct {
	TotalPB float64           `json:"totalPB"`
	Hot     StorageTierConfig `json:"hot"`
	Warm    StorageTierConfig `json:"warm"`
	Cold    StorageTierConfig `json:"cold"`
	Archive StorageTierConfig `json:"archive"`

	SelectedTiers []string           `json:"selectedTiers,omitempty"`
	TierPercents  map[string]float64 `json:"tierPercents,omitempty"`
	TierVendors   map[string]string  `json:"tierVendors,omitempty"`
}

// IsGeneralized returns true when the storage estate is described by an explicit tier selection.
func (sc StorageConfig) IsGeneralized() bool {
	return len(sc.SelectedTiers) > 0
}

func (sc StorageConfig) clone() StorageConfig {
	out := sc
	if sc.SelectedTiers != nil {
		out.SelectedTiers = append([]string(nil), sc.SelectedTiers...)
	}
	if sc.TierPercents != nil {
		out.TierPercents = make(map[string]float64, len(sc.TierPercents))
		for k, v := range sc.TierPercents {
			out.TierPercents[k] = v
		}
	}
	if sc.TierVendors != nil {
		out.TierVendors = make(map[string]string, len(sc.TierVendors))
		for k, v := range sc.TierVendors {
			out.TierVendors[k] = v
		}
	}
	return out
}

// Configuration is the declarative description of a cluster. It is treated as an immutable value:
// every transformation returns a modified copy.
type Configuration struct {
	GPUModel          string              `json:"gpuModel"`
	GPUCount          int                 `json:"gpuCount"`
	Cooling           catalog.CoolingType `json:"cooling"`
	Region            string              `json:"region"`
	Utilization       float64             `json:"utilization"`
	DepreciationYears int                 `json:"depreciationYears"`
	PUE               float64             `json:"pue,omitempty"`
	Storage           StorageConfig       `json:"storage"`
	Fabric            string              `json:"fabric"`
	Topology          Topology            `json:"topology"`
	Oversubscription  string              `json:"oversubscription"`
	RailsPerGPU       int                 `json:"railsPerGPU"`
	EnableDPU         bool                `json:"enableDPU"`
	SoftwareStack     string              `json:"softwareStack"`
	SupportTier       catalog.SupportTier `json:"supportTier,omitempty"`
	ServiceTiers      *ServiceTierConfig  `json:"serviceTiers,omitempty"`
}

// DefaultConfiguration returns the configuration used when no input is given. Cooling is left
// empty and resolved to the GPU's first supported option by Normalize.
func DefaultConfiguration(c *catalog.Catalogs) Configuration {
	if c == nil {
		c = catalog.Default()
	}

	storage := StorageConfig{
		TotalPB: c.DefaultStorageTotal,
		Hot:     StorageTierConfig{Percent: 20},
		Warm:    StorageTierConfig{Percent: 35},
		Cold:    StorageTierConfig{Percent: 35},
		Archive: StorageTierConfig{Percent: 10},
	}

	return Configuration{
		GPUModel:          c.DefaultGPU,
		GPUCount:          DefaultGPUCount,
		Region:            c.DefaultRegion,
		Utilization:       DefaultUtilization,
		DepreciationYears: DefaultDepreciationYears,
		Storage:           storage,
		Fabric:            c.DefaultFabric,
		Topology:          TopologyFatTree,
		Oversubscription:  DefaultOversubscription,
		RailsPerGPU:       DefaultRailsPerGPU,
		SoftwareStack:     c.DefaultStack,
	}
}

// Clone returns a deep copy of the configuration.
func (cfg Configuration) Clone() Configuration {
	out := cfg
	out.Storage = cfg.Storage.clone()
	if cfg.ServiceTiers != nil {
		st := cfg.ServiceTiers.clone()
		out.ServiceTiers = &st
	}
	return out
}

// Normalize resolves catalog keys and repairs out-of-range values, returning the adjusted copy and
// one warning per adjustment. Software stack resolution is left to the software model.
func (cfg Configuration) Normalize(c *catalog.Catalogs) (Configuration, []string) {
	if c == nil {
		c = catalog.Default()
	}

	out := cfg.Clone()
	var warnings []string

	gpu, ok := c.GPU(out.GPUModel)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("unknown GPU model %q, using %s", out.GPUModel, gpu.Key))
	}
	out.GPUModel = gpu.Key

	region, ok := c.Region(out.Region)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("unknown region %q, using %s", out.Region, region.Key))
	}
	out.Region = region.Key

	fabric, ok := c.Fabric(out.Fabric)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("unknown network fabric %q, using %s", out.Fabric, fabric.Key))
	}
	out.Fabric = fabric.Key

	if out.GPUCount <= 0 {
		warnings = append(warnings, fmt.Sprintf("GPU count must be positive, got %d; using %d", out.GPUCount, DefaultGPUCount))
		out.GPUCount = DefaultGPUCount
	}

	out.Cooling = catalog.CoolingType(catalog.NormalizeKey(string(out.Cooling)))
	switch {
	case len(gpu.CoolingOptions) == 0:
	case out.Cooling == "":
		out.Cooling = gpu.CoolingOptions[0]
	case !gpu.SupportsCooling(out.Cooling):
		warnings = append(warnings, fmt.Sprintf("%s does not support %s cooling, using %s", gpu.Name, out.Cooling, gpu.CoolingOptions[0]))
		out.Cooling = gpu.CoolingOptions[0]
	}

	if math.IsNaN(out.Utilization) {
		warnings = append(warnings, fmt.Sprintf("invalid utilization, using %v%%", DefaultUtilization))
		out.Utilization = DefaultUtilization
	} else if out.Utilization < 0 || out.Utilization > 100 {
		clamped := math.Max(0, math.Min(100, out.Utilization))
		warnings = append(warnings, fmt.Sprintf("utilization %v%% is outside 0-100, using %v%%", out.Utilization, clamped))
		out.Utilization = clamped
	}

	if out.DepreciationYears <= 0 {
		warnings = append(warnings, fmt.Sprintf("depreciation period must be positive, got %d; using %d years", out.DepreciationYears, DefaultDepreciationYears))
		out.DepreciationYears = DefaultDepreciationYears
	}

	if out.PUE != 0 && (math.IsNaN(out.PUE) || math.IsInf(out.PUE, 0) || out.PUE < 1) {
		warnings = append(warnings, fmt.Sprintf("PUE %v is invalid and was ignored", out.PUE))
		out.PUE = 0
	}

	if math.IsNaN(out.Storage.TotalPB) || math.IsInf(out.Storage.TotalPB, 0) || out.Storage.TotalPB < 0 {
		warnings = append(warnings, fmt.Sprintf("total storage %v PB is invalid, using %v PB", out.Storage.TotalPB, c.DefaultStorageTotal))
		out.Storage.TotalPB = c.DefaultStorageTotal
	}

	out.Topology = Topology(catalog.NormalizeKey(string(out.Topology)))
	if out.Topology == "" {
		out.Topology = TopologyFatTree
	}

	if strings.TrimSpace(out.Oversubscription) == "" {
		out.Oversubscription = DefaultOversubscription
	}

	if out.RailsPerGPU < 1 {
		warnings = append(warnings, fmt.Sprintf("rails per GPU must be at least 1, got %d; using %d", out.RailsPerGPU, DefaultRailsPerGPU))
		out.RailsPerGPU = DefaultRailsPerGPU
	}

	if tier, ok := ParseSupportTier(string(out.SupportTier)); ok {
		out.SupportTier = tier
	} else {
		warnings = append(warnings, fmt.Sprintf("unknown support tier %q was ignored", tier))
		out.SupportTier = catalog.SupportNone
	}

	return out, warnings
}

// ParseSupportTier normalizes s to a known support tier. An unknown tier is returned normalized
// along with false.
func ParseSupportTier(s string) (catalog.SupportTier, bool) {
	tier := catalog.SupportTier(catalog.NormalizeKey(s))
	switch tier {
	case catalog.SupportNone, catalog.SupportCommunity, catalog.SupportBusiness, catalog.SupportEnterprise:
		return tier, true
	}
	return tier, false
}

// ConfigurationFromMap builds a configuration from flat string keys such as query parameters or
// a flattened JSON/YAML document. Any value that fails to parse falls back to its default.
//
// Nested fields use dotted keys: storage.totalPB, storage.hot.percent, storage.hot.vendor,
// storage.selectedTiers (comma separated), storage.tierPercents.<tier>, storage.tierVendors.<tier>,
// serviceTiers.distribution.<tier> and serviceTiers.modifiers.{storagePerformance, compliance,
// sustainability}.
func ConfigurationFromMap(m mapper.PrimitiveMapReader, c *catalog.Catalogs) Configuration {
	cfg := DefaultConfiguration(c)

	cfg.GPUModel = m.Get("gpuModel", cfg.GPUModel)
	cfg.GPUCount = m.GetInt("gpuCount", cfg.GPUCount)
	cfg.Cooling = catalog.CoolingType(m.Get("cooling", string(cfg.Cooling)))
	cfg.Region = m.Get("region", cfg.Region)
	cfg.Utilization = m.GetFloat64("utilization", cfg.Utilization)
	cfg.DepreciationYears = m.GetInt("depreciationYears", cfg.DepreciationYears)
	cfg.PUE = m.GetFloat64("pue", cfg.PUE)
	cfg.Fabric = m.Get("fabric", cfg.Fabric)
	cfg.Topology = Topology(m.Get("topology", string(cfg.Topology)))
	cfg.Oversubscription = m.Get("oversubscription", cfg.Oversubscription)
	cfg.RailsPerGPU = m.GetInt("railsPerGPU", cfg.RailsPerGPU)
	cfg.EnableDPU = m.GetBool("enableDPU", cfg.EnableDPU)
	cfg.SoftwareStack = m.Get("softwareStack", cfg.SoftwareStack)
	cfg.SupportTier = catalog.SupportTier(m.Get("supportTier", string(cfg.SupportTier)))

	s := &cfg.Storage
	s.TotalPB = m.GetFloat64("storage.totalPB", s.TotalPB)
	for name, tier := range map[string]*StorageTierConfig{"hot": &s.Hot, "warm": &s.Warm, "cold": &s.Cold, "archive": &s.Archive} {
		tier.Percent = m.GetFloat64("storage."+name+".percent", tier.Percent)
		tier.Vendor = m.Get("storage."+name+".vendor", tier.Vendor)
	}

	if selected := m.GetList("storage.selectedTiers", ","); len(selected) > 0 {
		s.SelectedTiers = nil
		s.TierPercents = map[string]float64{}
		s.TierVendors = map[string]string{}
		for _, tier := range selected {
			if tier == "" {
				continue
			}
			s.SelectedTiers = append(s.SelectedTiers, tier)
			if m.Has("storage.tierPercents." + tier) {
				s.TierPercents[tier] = m.GetFloat64("storage.tierPercents."+tier, 0)
			}
			if vendor := m.Get("storage.tierVendors."+tier, ""); vendor != "" {
				s.TierVendors[tier] = vendor
			}
		}
	}

	if st, ok := serviceTiersFromMap(m); ok {
		cfg.ServiceTiers = &st
	}

	return cfg
}

func serviceTiersFromMap(m mapper.PrimitiveMapReader) (ServiceTierConfig, bool) {
	var st ServiceTierConfig
	found := m.GetBool("serviceTiers.enabled", false)

	for _, tier := range ServiceTiers {
		key := "serviceTiers.distribution." + tier.Key
		if m.Has(key) {
			if st.Distribution == nil {
				st.Distribution = map[string]float64{}
			}
			st.Distribution[tier.Key] = m.GetFloat64(key, 0)
			found = true
		}
	}

	// modifiers may be nested under "modifiers" or given directly under serviceTiers
	modifierKey := func(name string) (string, bool) {
		for _, key := range []string{"serviceTiers.modifiers." + name, "serviceTiers." + name} {
			if m.Has(key) {
				return key, true
			}
		}
		return "", false
	}

	if key, ok := modifierKey("storagePerformance"); ok {
		st.Modifiers.StoragePerformance = m.Get(key, "")
		found = true
	}
	if key, ok := modifierKey("compliance"); ok {
		for _, cert := range m.GetList(key, ",") {
			if cert != "" {
				st.Modifiers.Compliance = append(st.Modifiers.Compliance, cert)
			}
		}
		found = true
	}
	if key, ok := modifierKey("sustainability"); ok {
		st.Modifiers.Sustainability = m.Get(key, "")
		found = true
	}

	return st, found
}

// ConfigurationFromJSON decodes a JSON document leniently: the document is flattened to dotted
// string keys and read through ConfigurationFromMap, so mistyped numbers fall back to defaults
// instead of failing the request.
func ConfigurationFromJSON(data []byte, c *catalog.Catalogs) (Configuration, error) {
	var doc interface{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return Configuration{}, fmt.Errorf("decoding configuration: %w", err)
		}
	}

	flat := FlattenDocument(doc)
	return ConfigurationFromMap(mapper.NewMapper(mapper.NewGoMap(flat)), c), nil
}

// FlattenDocument flattens a decoded JSON or YAML document into dotted string keys. Lists of
// scalars are joined with commas. Null values are dropped.
func FlattenDocument(doc interface{}) map[string]string {
	out := map[string]string{}
	flatten("", doc, out)
	return out
}

func flatten(prefix string, v interface{}, out map[string]string) {
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	switch t := v.(type) {
	case nil:
	case map[string]interface{}:
		for k, child := range t {
			flatten(join(k), child, out)
		}
	case map[interface{}]interface{}:
		for k, child := range t {
			flatten(join(fmt.Sprintf("%v", k)), child, out)
		}
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := scalarString(item); ok {
				parts = append(parts, s)
			}
		}
		if prefix != "" {
			out[prefix] = strings.Join(parts, ",")
		}
	default:
		if s, ok := scalarString(t); ok && prefix != "" {
			out[prefix] = s
		}
	}
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	}
	return "", false
}
