// Package catalog holds the reference data the cost engine prices against: GPU systems, regional
// energy rates, network fabrics, storage vendors and tier architectures, and software components
// and stacks. A Catalogs value is built once at startup and treated as read-only afterwards, so it
// is safe for concurrent use without locking.
package catalog

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type CoolingType string

const (
	CoolingAir    CoolingType = "air"
	CoolingLiquid CoolingType = "liquid"
)

type GPUFamily string

const (
	// FamilyRackScale systems are sold as a whole rack (e.g. NVL72) and cannot be purchased partially.
	FamilyRackScale GPUFamily = "rack-scale"
	FamilyNode      GPUFamily = "node"
)

// GPUSpec describes one deployable GPU system type. RackSize is the number of GPUs per
// deployable system and RackPowerW the power of one such system, bundled CPUs and
// interconnect included.
type GPUSpec struct {
	Key            string                  `json:"key"`
	Name           string                  `json:"name"`
	Vendor         string                  `json:"vendor"`
	Family         GPUFamily               `json:"family"`
	PowerW         float64                 `json:"powerW"`
	MemoryGB       float64                 `json:"memoryGB"`
	UnitPrice      float64                 `json:"unitPrice"`
	RackSize       int                     `json:"rackSize"`
	RackPowerW     float64                 `json:"rackPowerW"`
	CoolingOptions []CoolingType           `json:"coolingOptions"`
	PUE            map[CoolingType]float64 `json:"pue"`
}

// AuxPowerW is the per-system power not drawn by the GPUs themselves.
func (g GPUSpec) AuxPowerW() float64 {
	aux := g.RackPowerW - float64(g.RackSize)*g.PowerW
	if aux < 0 {
		return 0
	}
	return aux
}

func (g GPUSpec) IsRackScale() bool {
	return g.Family == FamilyRackScale
}

func (g GPUSpec) SupportsCooling(c CoolingType) bool {
	return slices.Contains(g.CoolingOptions, c)
}

// GPUsPerPod is the number of GPUs sharing one non-blocking leaf-spine segment.
func (g GPUSpec) GPUsPerPod() int {
	if g.IsRackScale() {
		return 1008
	}
	return 1024
}

// NodesPerRack is the number of deployable systems placed in one physical rack.
func (g GPUSpec) NodesPerRack() int {
	if g.IsRackScale() {
		return 1
	}
	return 4
}

type Region struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	EnergyRate float64 `json:"energyRate"` // $/kWh
	DefaultPUE float64 `json:"defaultPUE"`
}

type FabricSpec struct {
	Key                 string  `json:"key"`
	Name                string  `json:"name"`
	Vendor              string  `json:"vendor"`
	SwitchPrice         float64 `json:"switchPrice"`
	CablePrice          float64 `json:"cablePrice"`
	TransceiverPrice    float64 `json:"transceiverPrice"`
	BandwidthPerGPUGbps float64 `json:"bandwidthPerGPUGbps"`
	PortsPerSwitch      int     `json:"portsPerSwitch"`
	SwitchPowerW        float64 `json:"switchPowerW"`
}

type StorageVendor struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Tier        string  `json:"tier"`
	PricePerGB  float64 `json:"pricePerGB"`
	PowerPerTBW float64 `json:"powerPerTBW"`
}

type CostPerPB struct {
	Capex         float64 `json:"capex"`
	OpexAnnual    float64 `json:"opexAnnual"`
	FiveYearTotal float64 `json:"fiveYearTotal"`
}

type StoragePerformance struct {
	ThroughputGBpsPerPB float64 `json:"throughputGBpsPerPB"`
	LatencyClass        string  `json:"latencyClass"`
}

type StorageInfrastructure struct {
	MediaType        string  `json:"mediaType"`
	PowerPerPBkW     float64 `json:"powerPerPBkW"`
	UsableEfficiency float64 `json:"usableEfficiency"`
}

// StorageArchitecture is a storage tier: a capacity/performance/cost class with its own vendors.
type StorageArchitecture struct {
	Key            string                `json:"key"`
	Name           string                `json:"name"`
	Vendors        []string              `json:"vendors"`
	DefaultVendor  string                `json:"defaultVendor"`
	CostPerPB      CostPerPB             `json:"costPerPB"`
	Performance    StoragePerformance    `json:"performance"`
	Infrastructure StorageInfrastructure `json:"infrastructure"`
}

// IsPerformanceTier returns true for tiers that can front capacity tiers (hot, scratch).
func (sa StorageArchitecture) IsPerformanceTier() bool {
	return sa.Performance.LatencyClass == LatencyUltraLow
}

// IsCapacityTier returns true for tiers that need a performance tier in front of them (cold, archive).
func (sa StorageArchitecture) IsCapacityTier() bool {
	return sa.Performance.LatencyClass == LatencyMedium || sa.Performance.LatencyClass == LatencyHigh
}

const (
	LatencyUltraLow = "ultra-low"
	LatencyLow      = "low"
	LatencyMedium   = "medium"
	LatencyHigh     = "high"
)

type PricingUnit string

const (
	PricingPerGPU  PricingUnit = "per-gpu"
	PricingPerNode PricingUnit = "per-node"
)

type SupportTier string

const (
	SupportNone       SupportTier = ""
	SupportCommunity  SupportTier = "community"
	SupportBusiness   SupportTier = "business"
	SupportEnterprise SupportTier = "enterprise"
)

// SoftwareComponent prices are always normalized per GPU per year. For PricingPerNode components
// the engine converts back to a node price with GPUsPerNode before multiplying by node count.
type SoftwareComponent struct {
	Key            string                  `json:"key"`
	Name           string                  `json:"name"`
	Vendor         string                  `json:"vendor"`
	Category       string                  `json:"category"`
	Licensing      string                  `json:"licensing"`
	CostPerGPUYear float64                 `json:"costPerGPUYear"`
	PricingUnit    PricingUnit             `json:"pricingUnit"`
	GPUsPerNode    int                     `json:"gpusPerNode,omitempty"`
	SetupCost      float64                 `json:"setupCost"`
	Dependencies   []string                `json:"dependencies,omitempty"`
	Expertise      string                  `json:"expertise"`
	SupportTiers   map[SupportTier]float64 `json:"supportTiers,omitempty"`
}

func (sc SoftwareComponent) IsNodePriced() bool {
	return sc.PricingUnit == PricingPerNode
}

// RateFor returns the per-GPU-year rate for a support tier, falling back to the base rate when
// the tier is unset or not defined for this component.
func (sc SoftwareComponent) RateFor(tier SupportTier) float64 {
	if tier != SupportNone {
		if rate, ok := sc.SupportTiers[tier]; ok {
			return rate
		}
	}
	return sc.CostPerGPUYear
}

type SoftwareStack struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Components   []string `json:"components"`
	RequiredFTEs float64  `json:"requiredFTEs"`
	ScaleBand    string   `json:"scaleBand"`
}

// Catalogs is the full set of reference tables plus the keys used when a lookup misses.
type Catalogs struct {
	GPUs                 map[string]GPUSpec             `json:"gpus"`
	Regions              map[string]Region              `json:"regions"`
	Fabrics              map[string]FabricSpec          `json:"fabrics"`
	StorageVendors       map[string]StorageVendor       `json:"storageVendors"`
	StorageArchitectures map[string]StorageArchitecture `json:"storageArchitectures"`
	SoftwareComponents   map[string]SoftwareComponent   `json:"softwareComponents"`
	SoftwareStacks       map[string]SoftwareStack       `json:"softwareStacks"`

	DefaultGPU          string  `json:"defaultGPU"`
	DefaultRegion       string  `json:"defaultRegion"`
	DefaultFabric       string  `json:"defaultFabric"`
	DefaultStorageTier  string  `json:"defaultStorageTier"`
	DefaultStack        string  `json:"defaultStack"`
	DefaultStorageTotal float64 `json:"defaultStorageTotalPB"`
}

// NormalizeKey folds catalog keys so lookups are case and whitespace insensitive.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// GPU returns the spec for key, or the default spec and false on a miss.
func (c *Catalogs) GPU(key string) (GPUSpec, bool) {
	if g, ok := c.GPUs[NormalizeKey(key)]; ok {
		return g, true
	}
	return c.GPUs[c.DefaultGPU], false
}

// Region returns the region for key, or the default region and false on a miss.
func (c *Catalogs) Region(key string) (Region, bool) {
	if r, ok := c.Regions[NormalizeKey(key)]; ok {
		return r, true
	}
	return c.Regions[c.DefaultRegion], false
}

// Fabric returns the fabric for key, or the default fabric and false on a miss.
func (c *Catalogs) Fabric(key string) (FabricSpec, bool) {
	if f, ok := c.Fabrics[NormalizeKey(key)]; ok {
		return f, true
	}
	return c.Fabrics[c.DefaultFabric], false
}

// StorageTier returns the architecture for a tier id, or the default tier and false on a miss.
func (c *Catalogs) StorageTier(key string) (StorageArchitecture, bool) {
	if a, ok := c.StorageArchitectures[NormalizeKey(key)]; ok {
		return a, true
	}
	return c.StorageArchitectures[c.DefaultStorageTier], false
}

// StorageVendorFor returns the vendor for key. On a miss it falls back to the tier's default vendor.
func (c *Catalogs) StorageVendorFor(tier StorageArchitecture, key string) (StorageVendor, bool) {
	if v, ok := c.StorageVendors[NormalizeKey(key)]; ok {
		return v, true
	}
	return c.StorageVendors[tier.DefaultVendor], false
}

// Stack returns the software stack for key, or the default stack and false on a miss.
func (c *Catalogs) Stack(key string) (SoftwareStack, bool) {
	if s, ok := c.SoftwareStacks[NormalizeKey(key)]; ok {
		return s, true
	}
	return c.SoftwareStacks[c.DefaultStack], false
}

func (c *Catalogs) Component(key string) (SoftwareComponent, bool) {
	sc, ok := c.SoftwareComponents[NormalizeKey(key)]
	return sc, ok
}

// Kinds lists the catalog tables that can be listed by name.
var Kinds = []string{
	"gpus",
	"regions",
	"fabrics",
	"storage-vendors",
	"storage-tiers",
	"software-components",
	"software-stacks",
}

// List returns the entries of one catalog table sorted by key, or false for an unknown kind.
func (c *Catalogs) List(kind string) ([]interface{}, bool) {
	switch NormalizeKey(kind) {
	case "gpus":
		return sortedValues(c.GPUs), true
	case "regions":
		return sortedValues(c.Regions), true
	case "fabrics":
		return sortedValues(c.Fabrics), true
	case "storage-vendors":
		return sortedValues(c.StorageVendors), true
	case "storage-tiers":
		return sortedValues(c.StorageArchitectures), true
	case "software-components":
		return sortedValues(c.SoftwareComponents), true
	case "software-stacks":
		return sortedValues(c.SoftwareStacks), true
	}
	return nil, false
}

func sortedValues[V any](m map[string]V) []interface{} {
	keys := maps.Keys(m)
	slices.Sort(keys)

	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
